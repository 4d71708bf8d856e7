package httpds

import (
	"context"
	"io"
	"net/url"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
)

// Source is a datasource.Source backed by one URL.
type Source struct {
	url    string
	client *Client
}

// NewSource returns a Source fetching rawURL with a client built from cfg.
func NewSource(rawURL string, cfg Config) *Source {
	return &Source{url: rawURL, client: NewClient(cfg)}
}

// Name is the URL without credentials or query string, so it is safe to log
// and its extension identifies the format.
func (s *Source) Name() string {
	u, err := url.Parse(s.url)
	if err != nil {
		return s.url
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// Open fetches the URL. Failures come back as *errs.IOError.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errs.IOError{Op: "load", Path: s.Name(), Err: err}
	}
	return resp.Body, nil
}

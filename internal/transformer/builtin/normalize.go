package builtin

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Normalize canonicalizes column names: trimmed, lowercased, with every run of
// whitespace replaced by Separator. Values are untouched.
type Normalize struct {
	Separator string

	// FoldAccents strips combining marks, so "Précip" becomes "precip".
	FoldAccents bool
}

func newNormalize(o config.Options, _ Env) (transformer.Transformer, error) {
	return Normalize{
		Separator:   o.String("separator", "_"),
		FoldAccents: o.Bool("fold_accents", false),
	}, nil
}

// Name returns the canonical form of one column name. Name(Name(s)) == Name(s).
func (n Normalize) Name(s string) string {
	s = strings.ToLower(s)
	if n.FoldAccents {
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if folded, _, err := transform.String(t, s); err == nil {
			s = folded
		}
	}
	return strings.Join(strings.Fields(s), n.Separator)
}

func (n Normalize) Apply(in *table.Table) (*table.Table, error) {
	mapping := make(map[string]string, in.NumCols())
	for _, name := range in.Names() {
		mapping[name] = n.Name(name)
	}
	return in.Rename(mapping)
}

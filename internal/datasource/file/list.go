package file

import (
	"bufio"
	"context"
	"strings"
)

// ReadList reads a line-oriented list from the source, such as the
// patterns_file of a drop_pattern stage. Blank lines and lines starting with
// '#' are skipped; surrounding whitespace is trimmed; order is preserved.
func (l *Local) ReadList(ctx context.Context) ([]string, error) {
	rc, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []string
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

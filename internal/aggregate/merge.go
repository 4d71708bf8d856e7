package aggregate

import (
	"fmt"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// JoinType selects which left rows survive a merge.
type JoinType string

const (
	// LeftJoin keeps every left row; right columns are missing where no right
	// row matches.
	LeftJoin JoinType = "left"
	// InnerJoin keeps only left rows with at least one match.
	InnerJoin JoinType = "inner"
)

// MergeOptions configures Merge.
type MergeOptions struct {
	How JoinType
	// Suffixes disambiguate non-key columns present on both sides. Defaults to
	// "_x" and "_y".
	Suffixes [2]string
}

// Merge joins right onto left by key. Left row order is kept; a left row
// matching several right rows repeats once per match, in right order. Missing
// keys never match. Key columns must have the same type on both sides.
func Merge(left, right *table.Table, key string, opt MergeOptions) (*table.Table, error) {
	lk, err := left.Column(key)
	if err != nil {
		return nil, err
	}
	rk, err := right.Column(key)
	if err != nil {
		return nil, err
	}
	if lk.Type() != rk.Type() {
		return nil, &errs.ShapeError{Column: key, Msg: fmt.Sprintf("merge key is %s on the left and %s on the right", lk.Type(), rk.Type())}
	}
	switch opt.How {
	case "":
		opt.How = LeftJoin
	case LeftJoin, InnerJoin:
	default:
		return nil, fmt.Errorf("unknown join type %q", opt.How)
	}
	if opt.Suffixes == [2]string{} {
		opt.Suffixes = [2]string{"_x", "_y"}
	}

	matches := make(map[string][]int, rk.Len())
	for j := 0; j < rk.Len(); j++ {
		if rk.IsMissing(j) {
			continue
		}
		k := rk.Key(j)
		matches[k] = append(matches[k], j)
	}

	var li, ri []int
	for i := 0; i < lk.Len(); i++ {
		var js []int
		if !lk.IsMissing(i) {
			js = matches[lk.Key(i)]
		}
		if len(js) == 0 {
			if opt.How == LeftJoin {
				li = append(li, i)
				ri = append(ri, -1)
			}
			continue
		}
		for _, j := range js {
			li = append(li, i)
			ri = append(ri, j)
		}
	}

	var cols []*table.Column
	for _, c := range left.Columns() {
		name := c.Name()
		if name != key && right.Has(name) {
			name += opt.Suffixes[0]
		}
		cols = append(cols, c.Take(li).Rename(name))
	}
	for _, c := range right.Columns() {
		name := c.Name()
		if name == key {
			continue
		}
		if left.Has(name) {
			name += opt.Suffixes[1]
		}
		cols = append(cols, c.Take(ri).Rename(name))
	}
	return table.New(cols...)
}

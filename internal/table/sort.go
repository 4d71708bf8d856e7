package table

import (
	"cmp"
	"sort"
	"strings"
)

// SortKey orders rows by one column.
type SortKey struct {
	Column     string
	Descending bool
}

// SortBy stably orders rows by the given keys. Missing values sort last
// regardless of direction.
func (t *Table) SortBy(keys ...SortKey) (*Table, error) {
	cols := make([]*Column, len(keys))
	for i, k := range keys {
		c, err := t.Column(k.Column)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		for k, c := range cols {
			ma, mb := c.IsMissing(ia), c.IsMissing(ib)
			switch {
			case ma && mb:
				continue
			case ma:
				return false
			case mb:
				return true
			}
			r := Compare(c, ia, ib)
			if r == 0 {
				continue
			}
			if keys[k].Descending {
				return r > 0
			}
			return r < 0
		}
		return false
	})
	return t.Take(idx), nil
}

// Compare orders two present values of c.
func Compare(c *Column, i, j int) int {
	switch c.typ {
	case Text, Categorical:
		return strings.Compare(c.strs[i], c.strs[j])
	case Integer:
		return cmp.Compare(c.ints[i], c.ints[j])
	case Decimal:
		return cmp.Compare(c.nums[i], c.nums[j])
	case Date:
		return c.times[i].Compare(c.times[j])
	}
	return 0
}

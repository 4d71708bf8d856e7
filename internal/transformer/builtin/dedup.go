package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Dedup policies.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
)

// Dedup collapses rows sharing the same values in Keys to one winner:
//
//   - keep-first: the earliest occurrence (default)
//   - keep-last: the latest occurrence
//   - most-complete: the occurrence with the fewest missing values; ties go to
//     the latest
//
// Surviving rows keep their input order. Missing key values compare equal to
// each other.
type Dedup struct {
	Keys   []string
	Policy string
}

func newDedup(o config.Options, _ Env) (transformer.Transformer, error) {
	keys, err := requireStrings(o, "keys")
	if err != nil {
		return nil, err
	}
	policy := strings.ToLower(strings.TrimSpace(o.String("policy", KeepFirst)))
	switch policy {
	case "first":
		policy = KeepFirst
	case "last":
		policy = KeepLast
	case KeepFirst, KeepLast, MostComplete:
	default:
		return nil, fmt.Errorf("unknown dedup policy %q", policy)
	}
	return Dedup{Keys: keys, Policy: policy}, nil
}

func (d Dedup) Apply(in *table.Table) (*table.Table, error) {
	sel, err := in.Select(d.Keys...)
	if err != nil {
		return nil, err
	}
	keyCols := sel.Columns()
	all := in.Columns()

	type slot struct {
		index int
		score int
	}
	winners := make(map[xxh3.Uint128]slot, in.NumRows())
	var buf []byte
	for i := 0; i < in.NumRows(); i++ {
		buf = buf[:0]
		for _, c := range keyCols {
			buf = append(buf, c.Key(i)...)
			buf = append(buf, '\x1f')
		}
		h := xxh3.Hash128(buf)
		prev, seen := winners[h]
		switch d.Policy {
		case KeepLast:
			winners[h] = slot{index: i}
		case MostComplete:
			s := slot{index: i, score: completeness(all, i)}
			if !seen || s.score >= prev.score {
				winners[h] = s
			}
		default:
			if !seen {
				winners[h] = slot{index: i}
			}
		}
	}

	idx := make([]int, 0, len(winners))
	for _, s := range winners {
		idx = append(idx, s.index)
	}
	sort.Ints(idx)
	if len(idx) == in.NumRows() {
		return in, nil
	}
	return in.Take(idx), nil
}

func completeness(cols []*table.Column, i int) int {
	n := 0
	for _, c := range cols {
		if !c.IsMissing(i) {
			n++
		}
	}
	return n
}

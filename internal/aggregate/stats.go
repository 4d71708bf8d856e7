package aggregate

import (
	"math"
	"sort"

	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Summary holds descriptive statistics of a set of values. Every field but
// Count and Sum is NaN when Count is 0.
type Summary struct {
	Count  int
	Sum    float64
	Mean   float64
	Min    float64
	Max    float64
	Median float64
}

// Stats summarizes vals. NaN entries are ignored.
func Stats(vals []float64) Summary {
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	s := Summary{Count: len(present), Mean: math.NaN(), Min: math.NaN(), Max: math.NaN(), Median: math.NaN()}
	if s.Count == 0 {
		return s
	}
	sort.Float64s(present)
	for _, v := range present {
		s.Sum += v
	}
	s.Mean = s.Sum / float64(s.Count)
	s.Min = present[0]
	s.Max = present[s.Count-1]
	mid := s.Count / 2
	if s.Count%2 == 1 {
		s.Median = present[mid]
	} else {
		s.Median = (present[mid-1] + present[mid]) / 2
	}
	return s
}

// Describe summarizes a numeric column. Missing values are ignored.
func Describe(c *table.Column) (Summary, error) {
	nums, err := c.Numbers()
	if err != nil {
		return Summary{}, err
	}
	return Stats(nums), nil
}

// ArgMax returns the row holding the largest value of c, or -1 when every
// value is missing. Ties go to the first row.
func ArgMax(c *table.Column) (int, error) {
	nums, err := c.Numbers()
	if err != nil {
		return -1, err
	}
	best := -1
	for i, v := range nums {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > nums[best] {
			best = i
		}
	}
	return best, nil
}

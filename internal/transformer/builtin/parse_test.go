package builtin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"₦12,345.00", 12345, true},
		{"$ 1,200", 1200, true},
		{"(50.25)", -50.25, true},
		{"-₦500", -500, true},
		{"₦-500", -500, true},
		{"1e3", 1000, true},
		{" 42 ", 42, true},
		{"12 000", 12000, true},
		{"abc", 0, false},
		{"12abc", 0, false},
		{"--", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseNumber(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestParseInteger(t *testing.T) {
	n, ok := ParseInteger("1,000")
	assert.True(t, ok)
	assert.Equal(t, int64(1000), n)

	n, ok = ParseInteger("12.0")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	_, ok = ParseInteger("12.5")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		layout string
		want   time.Time
	}{
		{"2025-01-15", "", date(2025, time.January, 15)},
		{"15/01/2025", "", date(2025, time.January, 15)},
		{"01/02/2025", "", date(2025, time.February, 1)},
		{"01/02/2025", "01/02/2006", date(2025, time.January, 2)},
		{"45658", "", date(2025, time.January, 1)},
		{"01 Jan 2025 10:15:32", "", time.Date(2025, time.January, 1, 10, 15, 32, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.in+"/"+tc.layout, func(t *testing.T) {
			got, ok := ParseDate(tc.in, tc.layout)
			assert.True(t, ok)
			assert.True(t, tc.want.Equal(got), "got %v", got)
		})
	}

	_, ok := ParseDate("not a date", "")
	assert.False(t, ok)
	_, ok = ParseDate("99999999", "")
	assert.False(t, ok, "out of range serial")
	_, ok = ParseDate("03/25/2025", "02/01/2006")
	assert.False(t, ok, "explicit layout is not swapped for month-first")
	_, ok = ParseDate("2025-07-04", "02/01/2006")
	assert.False(t, ok)
	got, ok := ParseDate("45658", "02/01/2006")
	assert.True(t, ok, "serials still parse under a layout")
	assert.True(t, date(2025, time.January, 1).Equal(got))
}

/*
BestLayout picks the layout matching most samples and prefers day-first
layouts when day-first and month-first match equally often.
*/
func TestBestLayout(t *testing.T) {
	assert.Equal(t, "02/01/2006", BestLayout([]string{"01/02/2025", "13/02/2025"}))
	assert.Equal(t, "01/02/2006", BestLayout([]string{"02/13/2025", "01/02/2025"}))
	assert.Equal(t, "02/01/2006", BestLayout([]string{"01/02/2025"}))
	assert.Equal(t, "", BestLayout([]string{"nope"}))
	assert.Equal(t, "", BestLayout(nil))
}

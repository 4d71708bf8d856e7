package table

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the width of a reporting period.
type Granularity string

const (
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// ParseGranularity accepts the long names and the single-letter period codes
// (D, W, M, Q, Y/A). An empty string means Month.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "m", "month", "monthly":
		return Month, nil
	case "d", "day", "daily":
		return Day, nil
	case "w", "week", "weekly":
		return Week, nil
	case "q", "quarter", "quarterly":
		return Quarter, nil
	case "y", "a", "year", "yearly", "annual":
		return Year, nil
	default:
		return "", fmt.Errorf("unknown period granularity %q", s)
	}
}

// Start returns the first instant of the period enclosing t, in t's location.
// Weeks start on Monday.
func (g Granularity) Start(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch g {
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case Week:
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Quarter:
		q := (int(m) - 1) / 3
		return time.Date(y, time.Month(q*3+1), 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
}

// Next returns the start of the period following the one starting at start.
func (g Granularity) Next(start time.Time) time.Time {
	switch g {
	case Day:
		return start.AddDate(0, 0, 1)
	case Week:
		return start.AddDate(0, 0, 7)
	case Quarter:
		return start.AddDate(0, 3, 0)
	case Year:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// Label renders the period starting at start, e.g. "2025-03" for a month or
// "2025Q1" for a quarter.
func (g Granularity) Label(start time.Time) string {
	switch g {
	case Day:
		return start.Format("2006-01-02")
	case Week:
		y, w := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case Quarter:
		return fmt.Sprintf("%dQ%d", start.Year(), (int(start.Month())-1)/3+1)
	case Year:
		return start.Format("2006")
	default:
		return start.Format("2006-01")
	}
}

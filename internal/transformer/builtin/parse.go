package builtin

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// numericRE is what must remain once currency symbols, grouping commas and
// spaces are stripped.
var numericRE = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// cleanNumber strips currency symbols, thousands separators and whitespace,
// and turns accounting parentheses into a leading minus.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	neg := false
	if len(s) > 2 && s[0] == '(' && s[len(s)-1] == ')' {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	if neg && s != "" && s[0] != '-' {
		s = "-" + strings.TrimPrefix(s, "+")
	}
	return s
}

// ParseNumber parses a currency-formatted decimal such as "₦12,345.00",
// "$ 1,200" or "(50.25)".
func ParseNumber(s string) (float64, bool) {
	c := cleanNumber(s)
	if !numericRE.MatchString(c) {
		return 0, false
	}
	f, err := strconv.ParseFloat(c, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseInteger is ParseNumber restricted to whole numbers. "12.0" is accepted.
func ParseInteger(s string) (int64, bool) {
	c := cleanNumber(s)
	if n, err := strconv.ParseInt(c, 10, 64); err == nil {
		return n, true
	}
	f, ok := ParseNumber(s)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// DateLayouts are the layouts tried when a column has no explicit layout.
// Day-first layouts come before month-first ones.
var DateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"02 Jan 2006 15:04:05",
	"02 Jan 2006 15:04",
	"2006-01-02",
	"02.01.2006",
	"01.02.2006",
	"02/01/2006",
	"01/02/2006",
	"2/1/2006",
	"1/2/2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
	"20060102",
}

// layoutPreference breaks ties between layouts matching the same number of
// samples: day-first over ISO over month-first.
func layoutPreference(layout string) int {
	switch layout {
	case time.RFC3339Nano:
		return 4
	case "02.01.2006", "02/01/2006", "2/1/2006", "2 Jan 2006", "02-Jan-2006",
		"02/01/2006 15:04:05", "02 Jan 2006 15:04:05", "02 Jan 2006 15:04":
		return 3
	case time.RFC3339, "2006-01-02", "2006/01/02", "20060102", "2006-01-02 15:04:05":
		return 2
	case "01.02.2006", "01/02/2006", "1/2/2006", "01/02/2006 15:04:05":
		return 1
	default:
		return 0
	}
}

// BestLayout returns the layout parsing the most samples, or "" when none
// parses any.
func BestLayout(samples []string) string {
	if len(samples) == 0 {
		return ""
	}
	scores := make([]int, len(DateLayouts))
	for _, s := range samples {
		s = strings.TrimSpace(s)
		for i, lay := range DateLayouts {
			if _, err := time.Parse(lay, s); err == nil {
				scores[i]++
			}
		}
	}
	best, bestScore, bestPref := -1, 0, -1
	for i, lay := range DateLayouts {
		sc, p := scores[i], layoutPreference(lay)
		if sc == 0 || sc < bestScore {
			continue
		}
		if sc > bestScore || p > bestPref {
			best, bestScore, bestPref = i, sc, p
		}
	}
	if best < 0 {
		return ""
	}
	return DateLayouts[best]
}

// excelSerialMax is 9999-12-31 as an Excel serial.
const excelSerialMax = 2958465

// ParseDate parses s with layout, or with every DateLayouts entry when layout
// is empty, then as an Excel serial day number. A given layout is never
// swapped for another one, so "03/25/2025" under "02/01/2006" fails.
func ParseDate(s, layout string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := DateLayouts
	if layout != "" {
		layouts = []string{layout}
	}
	for _, lay := range layouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return serialDate(f)
	}
	return time.Time{}, false
}

func serialDate(f float64) (time.Time, bool) {
	if f < 1 || f > excelSerialMax {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

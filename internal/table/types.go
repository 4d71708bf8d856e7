package table

import (
	"fmt"
	"strings"
)

// Type is the declared semantic type of a Column.
type Type int

const (
	// Text is free-form string data, including raw values awaiting coercion.
	Text Type = iota + 1
	// Categorical is text with a small set of distinct values.
	Categorical
	// Date is a point in time; period columns are Date columns carrying a
	// Granularity.
	Date
	// Integer is a 64-bit whole number.
	Integer
	// Decimal is a float64 amount (currency, measurements).
	Decimal
)

func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case Categorical:
		return "categorical"
	case Date:
		return "date"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// IsNumeric reports whether values of t can be read as float64.
func (t Type) IsNumeric() bool { return t == Integer || t == Decimal }

// IsText reports whether values of t are strings.
func (t Type) IsText() bool { return t == Text || t == Categorical }

// ParseType maps config spellings onto a Type. It accepts the canonical names
// plus the aliases commonly found in pipeline files.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "str":
		return Text, nil
	case "categorical", "category":
		return Categorical, nil
	case "date", "datetime", "timestamp":
		return Date, nil
	case "integer", "int", "int64", "bigint":
		return Integer, nil
	case "decimal", "numeric", "float", "float64", "real", "currency", "number":
		return Decimal, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// Field describes one column of a table's schema.
type Field struct {
	Name        string      `json:"name"`
	Type        Type        `json:"-"`
	TypeName    string      `json:"type"`
	Granularity Granularity `json:"granularity,omitempty"`
	Missing     int         `json:"missing"`
}

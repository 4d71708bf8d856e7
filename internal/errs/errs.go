// Package errs defines the error taxonomy shared by every pipeline stage.
//
// Errors fall into four kinds:
//
//   - structural: a required column is absent or two columns collide. Always
//     fatal to the run.
//   - coercion: a single value could not be converted. Degrades to a missing
//     value unless the run is strict.
//   - validation: a post-coercion invariant does not hold. Reported and
//     collected; fatal only in strict mode.
//   - io: the source cannot be read or the destination cannot be written.
//     Always fatal.
//
// All concrete types expose Kind() and work with errors.As.
package errs

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Kind classifies an error for the propagation policy.
type Kind string

const (
	KindStructural Kind = "structural"
	KindCoercion   Kind = "coercion"
	KindValidation Kind = "validation"
	KindIO         Kind = "io"
)

// Severity of a reported ValidationError.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// sampleLimit caps the offending values carried by an error.
const sampleLimit = 3

type kinded interface{ Kind() Kind }

// KindOf reports the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// IsFatal applies the run's propagation policy. Structural and io errors (and
// anything unclassified) always abort; coercion and validation errors abort
// only when strict is set.
func IsFatal(err error, strict bool) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindCoercion, KindValidation:
		return strict
	default:
		return true
	}
}

// DuplicateColumnError is returned when two distinct source names map to the
// same target column name.
type DuplicateColumnError struct {
	Name    string
	Sources []string
}

func (e *DuplicateColumnError) Error() string {
	if len(e.Sources) == 0 {
		return fmt.Sprintf("duplicate column %q", e.Name)
	}
	return fmt.Sprintf("duplicate column %q (from %s)", e.Name, quoteJoin(e.Sources))
}

func (e *DuplicateColumnError) Kind() Kind { return KindStructural }

// MissingColumnError lists required columns absent from a table.
type MissingColumnError struct {
	Names []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column(s): %s", quoteJoin(e.Names))
}

func (e *MissingColumnError) Kind() Kind { return KindStructural }

// ShapeError reports a table whose columns disagree on row count, or an
// operation applied to a column of the wrong semantic type.
type ShapeError struct {
	Column string
	Msg    string
}

func (e *ShapeError) Error() string {
	if e.Column == "" {
		return e.Msg
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Msg)
}

func (e *ShapeError) Kind() Kind { return KindStructural }

// NumericConversionError is a non-sentinel value whose residue after stripping
// currency symbols and separators is not a number.
type NumericConversionError struct {
	Column string
	Row    int
	Value  string
	Count  int
	Sample []string
}

func (e *NumericConversionError) Error() string {
	return fmt.Sprintf("column %q: %d value(s) not numeric, e.g. %s (first at row %d)",
		e.Column, e.Count, quoteJoin(e.Sample), e.Row)
}

func (e *NumericConversionError) Kind() Kind { return KindCoercion }

// DateConversionError is a value matching none of the accepted date layouts.
type DateConversionError struct {
	Column string
	Row    int
	Value  string
	Count  int
	Sample []string
}

func (e *DateConversionError) Error() string {
	return fmt.Sprintf("column %q: %d value(s) not a date, e.g. %s (first at row %d)",
		e.Column, e.Count, quoteJoin(e.Sample), e.Row)
}

func (e *DateConversionError) Kind() Kind { return KindCoercion }

// DataValidationError is a post-coercion invariant violation on one column.
type DataValidationError struct {
	Column string
	Rule   string
	Count  int
	Sample []string
}

func (e *DataValidationError) Error() string {
	msg := fmt.Sprintf("column %q violates %s: %d row(s)", e.Column, e.Rule, e.Count)
	if len(e.Sample) > 0 {
		msg += ", e.g. " + quoteJoin(e.Sample)
	}
	return msg
}

func (e *DataValidationError) Kind() Kind { return KindValidation }

// Record converts the error into a reportable ValidationError.
func (e *DataValidationError) Record() ValidationError {
	return ValidationError{
		Column:   e.Column,
		Rule:     e.Rule,
		Count:    e.Count,
		Value:    strings.Join(e.Sample, ", "),
		Severity: SeverityError,
	}
}

// IOError wraps a failure to read a source or write a destination.
type IOError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Kind() Kind { return KindIO }

// NotFound reports whether the underlying cause is a missing file.
func (e *IOError) NotFound() bool { return errors.Is(e.Err, os.ErrNotExist) }

// ValidationError is a structured, reportable finding. It is data, not
// control flow: stages collect these and the driver decides what to do.
type ValidationError struct {
	Column   string   `json:"column"`
	Rule     string   `json:"rule"`
	Value    string   `json:"value,omitempty"`
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

func (v ValidationError) Error() string {
	if v.Value != "" {
		return fmt.Sprintf("%s: column %q %s: %d (%s)", v.Severity, v.Column, v.Rule, v.Count, v.Value)
	}
	return fmt.Sprintf("%s: column %q %s: %d", v.Severity, v.Column, v.Rule, v.Count)
}

func (v ValidationError) Kind() Kind { return KindValidation }

// StageError attributes a failure to a named pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Kind() Kind { return KindOf(e.Err) }

// InStage wraps err with its stage name; nil stays nil.
func InStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// Sample appends v to s while s is below the sample cap.
func Sample(s []string, v string) []string {
	if len(s) >= sampleLimit {
		return s
	}
	return append(s, v)
}

func quoteJoin(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}

// Findings flattens err (including errors.Join trees) into reportable
// records. Coercion errors become warnings, validation errors keep their
// severity; anything else is reported as an error-level record.
func Findings(err error) []ValidationError {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []ValidationError
		for _, e := range j.Unwrap() {
			out = append(out, Findings(e)...)
		}
		return out
	}
	var (
		num *NumericConversionError
		dt  *DateConversionError
		dv  *DataValidationError
		ve  ValidationError
	)
	switch {
	case errors.As(err, &num):
		return []ValidationError{{Column: num.Column, Rule: "numeric", Value: strings.Join(num.Sample, ", "), Count: num.Count, Severity: SeverityWarning}}
	case errors.As(err, &dt):
		return []ValidationError{{Column: dt.Column, Rule: "date", Value: strings.Join(dt.Sample, ", "), Count: dt.Count, Severity: SeverityWarning}}
	case errors.As(err, &dv):
		return []ValidationError{dv.Record()}
	case errors.As(err, &ve):
		return []ValidationError{ve}
	}
	return []ValidationError{{Rule: "error", Value: err.Error(), Count: 1, Severity: SeverityError}}
}

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single lint finding. Path is a dotted path into the config, e.g.
// "transform[1].options.rules".
type Issue struct {
	Severity IssueSeverity `json:"severity"`
	Path     string        `json:"path"`
	Message  string        `json:"message"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Known step kinds. The builtin and analysis registries are checked against
// these lists in their tests.
var (
	TransformKinds = []string{
		"normalize", "filter", "drop_pattern", "drop_missing", "mask", "coerce",
		"period", "product", "fill_missing", "rename", "select", "drop", "sort",
		"dedup", "require", "non_negative", "count_missing",
	}
	StepKinds    = []string{"aggregate", "pct_change", "merge", "fill", "scale", "sort", "rename", "select"}
	StorageKinds = []string{"parquet", "csv", "sqlite", "postgres", "mssql", "mysql"}
)

// clean is the implicit name of the cleaned table in analysis inputs.
const clean = "clean"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePipeline lints p without mutating it. Struct-level requirements
// come from validate tags; the rest are cross-field checks.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue
	issues = append(issues, structIssues(p)...)
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateAnalysis(p.Analysis)...)
	issues = append(issues, validateStorage("storage", p.Storage)...)
	return issues
}

func structIssues(p Pipeline) []Issue {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     fieldPath(fe.Namespace()),
			Message:  tagMessage(fe),
		})
	}
	return issues
}

// fieldPath drops the root struct name: "Pipeline.source.kind" -> "source.kind".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "url":
		return fmt.Sprintf("must be an absolute URL, got %q", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func known(list []string, kind string) bool {
	for _, k := range list {
		if k == kind {
			return true
		}
	}
	return false
}

// validateSource checks the fields the source kind needs.
func validateSource(s Source) []Issue {
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			return []Issue{{Severity: SeverityError, Path: "source.file.path", Message: "file source requires a path"}}
		}
	case "http":
		var issues []Issue
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{Severity: SeverityError, Path: "source.http.url", Message: "http source requires a url"})
		}
		if s.HTTP.Timeout != "" {
			if _, err := time.ParseDuration(s.HTTP.Timeout); err != nil {
				issues = append(issues, Issue{Severity: SeverityError, Path: "source.http.timeout", Message: err.Error()})
			}
		}
		return issues
	}
	return nil
}

// validateTransforms checks kinds and the options each kind cannot run without.
func validateTransforms(ts []Transform) []Issue {
	var issues []Issue
	if len(ts) == 0 {
		return append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform",
			Message:  "no transforms configured; the raw table will be saved as-is",
		})
	}
	needs := map[string][]string{
		"filter":       {"column", "op"},
		"drop_pattern": {"column"},
		"mask":         {"column", "rules"},
		"coerce":       {"columns"},
		"period":       {"column", "output"},
		"product":      {"columns", "output"},
		"rename":       {"columns"},
		"select":       {"columns"},
		"drop":         {"columns"},
		"sort":         {"by"},
		"dedup":        {"keys"},
		"require":      {"columns"},
		"non_negative": {"columns"},
	}
	for i, t := range ts {
		if t.Kind == "" {
			continue
		}
		if !known(TransformKinds, t.Kind) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("transform[%d].kind", i),
				Message:  fmt.Sprintf("unknown transform kind %q", t.Kind),
			})
			continue
		}
		for _, key := range needs[t.Kind] {
			if !t.Options.Has(key) {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options.%s", i, key),
					Message:  fmt.Sprintf("%s transform requires %q", t.Kind, key),
				})
			}
		}
		if t.Kind == "drop_pattern" && !t.Options.Has("patterns") && !t.Options.Has("patterns_file") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("transform[%d].options", i),
				Message:  "drop_pattern transform requires \"patterns\" or \"patterns_file\"",
			})
		}
	}
	return issues
}

// validateAnalysis checks kinds, unique names and that every input refers to
// "clean" or an earlier step.
func validateAnalysis(steps []Step) []Issue {
	var issues []Issue
	seen := map[string]bool{clean: true}
	for i, s := range steps {
		path := fmt.Sprintf("analysis[%d]", i)
		if s.Kind != "" && !known(StepKinds, s.Kind) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".kind",
				Message:  fmt.Sprintf("unknown analysis kind %q", s.Kind),
			})
		}
		inputs := []string{s.Input}
		if s.Kind == "merge" {
			inputs = append(inputs, s.Options.String("right", ""))
		}
		for _, in := range inputs {
			if in != "" && !seen[in] {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".input",
					Message:  fmt.Sprintf("input %q is not \"clean\" or an earlier step", in),
				})
			}
		}
		if s.Name != "" && seen[s.Name] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("step name %q is already in use", s.Name),
			})
		}
		seen[s.Name] = true
		if s.Save != nil {
			issues = append(issues, validateStorage(path+".save", *s.Save)...)
		}
	}
	return issues
}

// validateStorage checks the sink kind and the fields that kind requires.
func validateStorage(path string, s Storage) []Issue {
	var issues []Issue
	if s.Kind == "" {
		return nil
	}
	if !known(StorageKinds, s.Kind) {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown storage kind %q; registered kinds are %s", s.Kind, strings.Join(StorageKinds, ", ")),
		})
	}
	switch s.Kind {
	case "parquet", "csv":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".file.path",
				Message:  s.Kind + " storage requires a non-empty path",
			})
		}
		if s.Kind == "csv" && s.File.Compression != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".file.compression",
				Message:  "compression is ignored by csv storage",
			})
		}
	default:
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".db.dsn",
				Message:  s.Kind + " storage requires a dsn",
			})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".db.table",
				Message:  s.Kind + " storage requires a table",
			})
		}
	}
	return issues
}

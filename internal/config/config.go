// Package config defines the pipeline configuration model. A pipeline file is
// JSON or YAML with the same shape:
//
//	job: sales
//	source:   { kind: file, file: { path: data/sales.csv } }
//	parser:   { kind: csv, options: { trim_space: true } }
//	settings: { sentinel: "--", strict: false }
//	transform:
//	  - kind: normalize
//	  - kind: coerce
//	    options: { columns: { price: decimal, sale_date: date } }
//	analysis:
//	  - { name: by_category, kind: aggregate, options: { group_by: category, value: revenue, output: total_revenue } }
//	storage:  { kind: parquet, file: { path: out/sales.parquet } }
//
// Transform and analysis steps carry a free-form Options bag whose shape is
// defined by the step implementation.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSentinel is the placeholder exports use for "not applicable".
const DefaultSentinel = "--"

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs, metrics and spans.
	Job         string `json:"job" yaml:"job" validate:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Source    Source      `json:"source" yaml:"source"`
	Parser    Parser      `json:"parser" yaml:"parser"`
	Settings  Settings    `json:"settings" yaml:"settings"`
	Transform []Transform `json:"transform" yaml:"transform" validate:"dive"`

	// Analysis runs after cleaning; each step produces a named table.
	Analysis []Step `json:"analysis,omitempty" yaml:"analysis,omitempty" validate:"dive"`

	Report  Report  `json:"report,omitempty" yaml:"report,omitempty"`
	Storage Storage `json:"storage" yaml:"storage"`
}

// Source identifies where input data comes from.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string     `json:"kind" yaml:"kind" validate:"required,oneof=file http"`
	File SourceFile `json:"file,omitempty" yaml:"file,omitempty"`
	HTTP SourceHTTP `json:"http,omitempty" yaml:"http,omitempty"`
}

// Override points the source at loc: an http(s) URL switches to the http
// kind, anything else is a file path. HTTP settings other than the URL are
// kept.
func (s *Source) Override(loc string) {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		s.Kind = "http"
		s.HTTP.URL = loc
		s.File = SourceFile{}
		return
	}
	s.Kind = "file"
	s.File.Path = loc
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// SourceHTTP holds configuration for the "http" source kind. The format is
// inferred from the URL path unless parser.kind is set.
type SourceHTTP struct {
	URL                string            `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Headers            map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Timeout            string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries         int               `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"gte=0"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
}

// Parser selects how the source bytes become a raw table. An empty Kind is
// inferred from the file extension.
//
// Recognised options: sheet (string), skip_rows (int), delimiter (string),
// no_header (bool), trim_space (bool), header_map (object),
// replace (list of {old, new}), records (string, json envelope key).
type Parser struct {
	Kind    string  `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=csv xlsx parquet json"`
	Options Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// Settings are the per-pipeline knobs shared by every stage.
type Settings struct {
	// Sentinel is the literal that numeric coercion maps to missing. Empty
	// means DefaultSentinel.
	Sentinel string `json:"sentinel,omitempty" yaml:"sentinel,omitempty"`

	// Strict turns coercion and validation findings into fatal errors.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// SentinelOrDefault returns the configured sentinel or DefaultSentinel.
func (s Settings) SentinelOrDefault() string {
	if s.Sentinel == "" {
		return DefaultSentinel
	}
	return s.Sentinel
}

// Transform is one cleaning stage.
type Transform struct {
	// Kind selects the stage implementation (see TransformKinds).
	Kind string `json:"kind" yaml:"kind" validate:"required"`

	// Name labels the stage in events; defaults to Kind.
	Name    string  `json:"name,omitempty" yaml:"name,omitempty"`
	Options Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// Label returns Name, falling back to Kind.
func (t Transform) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Kind
}

// Step is one analysis operation. Input names an earlier step's output or
// "clean" (the cleaned table, the default).
type Step struct {
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Kind    string   `json:"kind" yaml:"kind" validate:"required"`
	Input   string   `json:"input,omitempty" yaml:"input,omitempty"`
	Options Options  `json:"options,omitempty" yaml:"options,omitempty"`
	Save    *Storage `json:"save,omitempty" yaml:"save,omitempty"`
}

// Report selects the columns summarised after a run.
type Report struct {
	// DateColumn yields a "Jan 2025 - Mar 2025" range label.
	DateColumn string `json:"date_column,omitempty" yaml:"date_column,omitempty"`
	// LabelColumn yields its distinct values joined with ", ".
	LabelColumn string `json:"label_column,omitempty" yaml:"label_column,omitempty"`
	// ValueColumn yields count, total, mean, median, min and max.
	ValueColumn string `json:"value_column,omitempty" yaml:"value_column,omitempty"`
	// PeriodColumn, with ValueColumn, adds median and max of per-period totals.
	PeriodColumn string `json:"period_column,omitempty" yaml:"period_column,omitempty"`
}

// Storage selects the sink for a table. An empty Kind saves nothing.
type Storage struct {
	Kind string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	File FileConfig `json:"file,omitempty" yaml:"file,omitempty"`
	DB   DBConfig   `json:"db,omitempty" yaml:"db,omitempty"`
}

// FileConfig configures file sinks (parquet, csv).
type FileConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Compression applies to parquet: snappy (default), zstd, gzip, none.
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty"`
}

// DBConfig configures database sinks (sqlite, postgres, mssql, mysql).
type DBConfig struct {
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Table is replaced wholesale on every save.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
}

// Options fetches typed values from a decoded JSON or YAML map. Getters
// return def when the key is absent or holds an unexpected type.
type Options map[string]any

// Has reports whether key is set.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int accepts JSON numbers (float64) and YAML integers.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Float accepts any numeric value, or a string holding one.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return def
}

// Rune returns the first rune of a string value, for delimiters. "\t" and
// "tab" both mean a tab.
func (o Options) Rune(key string, def rune) rune {
	s := o.String(key, "")
	switch s {
	case "":
		return def
	case `\t`, "tab":
		return '\t'
	}
	return []rune(s)[0]
}

// StringMap returns the string-valued entries of an object value.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if m, ok := o[key].(map[string]any); ok {
		for k, vv := range m {
			if s, ok := vv.(string); ok {
				res[k] = s
			}
		}
	}
	return res
}

// StringSlice returns a list of strings; a bare string becomes a one-element
// list.
func (o Options) StringSlice(key string) []string {
	switch vv := o[key].(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	case string:
		return []string{vv}
	}
	return nil
}

// Any returns the raw value for key.
func (o Options) Any(key string) any { return o[key] }

// Decode unmarshals the value under key into out, for nested blocks such as
// ordered masking rules. A missing key leaves out untouched.
func (o Options) Decode(key string, out any) error {
	v, ok := o[key]
	if !ok {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("option %s: %w", key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("option %s: %w", key, err)
	}
	return nil
}

// UnmarshalJSON makes a missing or null options object decode to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

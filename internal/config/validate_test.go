package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// hasIssue reports whether issues contains one with the given severity and
// path whose message contains msg.
func hasIssue(issues []Issue, sev IssueSeverity, path, msg string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msg) {
			return true
		}
	}
	return false
}

func minimal() Pipeline {
	return Pipeline{
		Job:       "bank",
		Source:    Source{Kind: "file", File: SourceFile{Path: "Bank_Statement.xlsx"}},
		Parser:    Parser{Kind: "xlsx", Options: Options{"skip_rows": 6}},
		Transform: []Transform{{Kind: "normalize"}},
		Storage:   Storage{Kind: "parquet", File: FileConfig{Path: "out/bank.parquet"}},
	}
}

/*
A well-formed pipeline produces no issues.
*/
func TestValidatePipeline_Minimal(t *testing.T) {
	assert.Empty(t, ValidatePipeline(minimal()))
}

/*
Struct tags report required and enumerated fields with json-style paths.
*/
func TestValidatePipeline_StructTags(t *testing.T) {
	p := minimal()
	p.Job = ""
	p.Source.Kind = "ftp"
	p.Parser.Kind = "xml"
	p.Transform = append(p.Transform, Transform{})

	issues := ValidatePipeline(p)
	assert.True(t, hasIssue(issues, SeverityError, "job", "must not be empty"), "%+v", issues)
	assert.True(t, hasIssue(issues, SeverityError, "source.kind", "must be one of"), "%+v", issues)
	assert.True(t, hasIssue(issues, SeverityError, "parser.kind", "must be one of"), "%+v", issues)
	assert.True(t, hasIssue(issues, SeverityError, "transform[1].kind", "must not be empty"), "%+v", issues)
	assert.True(t, HasErrors(issues))
}

func TestValidatePipeline_Source(t *testing.T) {
	p := minimal()
	p.Source.File.Path = " "
	assert.True(t, hasIssue(ValidatePipeline(p), SeverityError, "source.file.path", "requires a path"))

	p.Source = Source{Kind: "http"}
	assert.True(t, hasIssue(ValidatePipeline(p), SeverityError, "source.http.url", "requires a url"))

	p.Source.HTTP = SourceHTTP{URL: "exports/sales.csv", Timeout: "soon"}
	issues := ValidatePipeline(p)
	assert.True(t, hasIssue(issues, SeverityError, "source.http.url", "absolute URL"), "%+v", issues)
	assert.True(t, hasIssue(issues, SeverityError, "source.http.timeout", "invalid duration"), "%+v", issues)

	p.Source.HTTP = SourceHTTP{URL: "https://example.com/exports/sales.csv", Timeout: "10s", MaxRetries: 2}
	assert.Empty(t, ValidatePipeline(p))
}

func TestValidatePipeline_Transforms(t *testing.T) {
	p := minimal()
	p.Transform = []Transform{
		{Kind: "explode"},
		{Kind: "mask", Options: Options{"column": "description"}},
		{Kind: "drop_pattern", Options: Options{"column": "description"}},
	}
	issues := ValidatePipeline(p)
	assert.True(t, hasIssue(issues, SeverityError, "transform[0].kind", "unknown transform kind"))
	assert.True(t, hasIssue(issues, SeverityError, "transform[1].options.rules", "requires"))
	assert.True(t, hasIssue(issues, SeverityError, "transform[2].options", "patterns_file"))

	p.Transform = nil
	assert.True(t, hasIssue(ValidatePipeline(p), SeverityWarning, "transform", "no transforms"))
}

func TestValidatePipeline_Analysis(t *testing.T) {
	p := minimal()
	p.Analysis = []Step{
		{Name: "monthly", Kind: "aggregate"},
		{Name: "pct", Kind: "pct_change", Input: "monthly"},
		{Name: "joined", Kind: "merge", Input: "monthly", Options: Options{"right": "later"}},
		{Name: "later", Kind: "sort", Input: "nope"},
		{Name: "monthly", Kind: "pivot", Save: &Storage{Kind: "csv"}},
	}
	issues := ValidatePipeline(p)
	assert.True(t, hasIssue(issues, SeverityError, "analysis[2].input", `"later"`))
	assert.True(t, hasIssue(issues, SeverityError, "analysis[3].input", `"nope"`))
	assert.True(t, hasIssue(issues, SeverityError, "analysis[4].name", "already in use"))
	assert.True(t, hasIssue(issues, SeverityError, "analysis[4].kind", "unknown analysis kind"))
	assert.True(t, hasIssue(issues, SeverityError, "analysis[4].save.file.path", "non-empty path"))
	assert.False(t, hasIssue(issues, SeverityError, "analysis[1].input", ""))
}

func TestValidatePipeline_Storage(t *testing.T) {
	p := minimal()
	p.Storage = Storage{Kind: "postgres"}
	issues := ValidatePipeline(p)
	assert.True(t, hasIssue(issues, SeverityError, "storage.db.dsn", "dsn"))
	assert.True(t, hasIssue(issues, SeverityError, "storage.db.table", "table"))

	p.Storage = Storage{Kind: "s3"}
	assert.True(t, hasIssue(ValidatePipeline(p), SeverityError, "storage.kind", "unknown storage kind"))

	p.Storage = Storage{Kind: "csv", File: FileConfig{Path: "x.csv", Compression: "zstd"}}
	assert.True(t, hasIssue(ValidatePipeline(p), SeverityWarning, "storage.file.compression", "ignored"))
}

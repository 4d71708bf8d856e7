package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a pipeline file. The format follows the extension: .yaml/.yml
// are YAML, anything else JSON. ${VAR} references are replaced with
// environment values before decoding; unknown fields are rejected.
func Load(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read pipeline %s: %w", path, err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	p, err := Parse(data, format)
	if err != nil {
		return Pipeline{}, fmt.Errorf("parse pipeline %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a pipeline from JSON or YAML bytes.
func Parse(data []byte, format string) (Pipeline, error) {
	data = []byte(ExpandEnv(string(data)))
	var p Pipeline
	switch format {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	default:
		return Pipeline{}, fmt.Errorf("unknown config format %q", format)
	}
	return p, nil
}

// ExpandEnv replaces each ${VAR} with the value of VAR (empty when unset).
// A bare $ is left alone so regex anchors in patterns survive.
func ExpandEnv(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			break
		}
		b.WriteString(s[:start])
		b.WriteString(os.Getenv(s[start+2 : start+end]))
		s = s[start+end+1:]
	}
	b.WriteString(s)
	return b.String()
}

// Marshal renders p in the given format, for printing built-in recipes.
func Marshal(p Pipeline, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(p)
	case "json":
		return json.MarshalIndent(p, "", "  ")
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
}

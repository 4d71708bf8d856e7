// Package recipes holds the built-in pipelines for the three source layouts
// the tool grew out of: bank statement exports, retail sales extracts and
// daily weather station observations.
package recipes

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
)

//go:embed *.yaml
var files embed.FS

// Names lists the built-in recipes, sorted.
func Names() []string {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(out)
	return out
}

// Raw returns the recipe file as written, before ${VAR} expansion.
func Raw(name string) ([]byte, error) {
	b, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown recipe %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return b, nil
}

// Get parses the named recipe. A non-empty source replaces the recipe's
// default input path.
func Get(name, source string) (config.Pipeline, error) {
	b, err := Raw(name)
	if err != nil {
		return config.Pipeline{}, err
	}
	p, err := config.Parse(b, "yaml")
	if err != nil {
		return config.Pipeline{}, fmt.Errorf("recipe %s: %w", name, err)
	}
	if source != "" {
		p.Source.Override(source)
	}
	return p, nil
}

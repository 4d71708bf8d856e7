// Package builtin contains the cleaning stages a pipeline file can name.
//
// Each stage is a plain struct implementing transformer.Transformer; Build
// turns a config.Transform into one. Stages never mutate their input table.
package builtin

import (
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Env carries pipeline-wide settings into stage construction.
type Env struct {
	// Sentinel is the "not applicable" literal numeric coercion maps to missing.
	Sentinel string

	// BaseDir resolves relative option paths such as patterns_file.
	BaseDir string

	Logger *zap.Logger
}

func (e Env) sentinel() string {
	if e.Sentinel == "" {
		return config.DefaultSentinel
	}
	return e.Sentinel
}

func (e Env) path(p string) string {
	if p == "" || filepath.IsAbs(p) || e.BaseDir == "" {
		return p
	}
	return filepath.Join(e.BaseDir, p)
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

type factory func(o config.Options, env Env) (transformer.Transformer, error)

var registry = map[string]factory{
	"normalize":     newNormalize,
	"filter":        newFilter,
	"drop_pattern":  newDropPattern,
	"drop_missing":  newDropMissing,
	"mask":          newMask,
	"coerce":        newCoerce,
	"period":        newPeriod,
	"product":       newProduct,
	"fill_missing":  newFillMissing,
	"rename":        newRename,
	"select":        newSelect,
	"drop":          newDrop,
	"sort":          newSort,
	"dedup":         newDedup,
	"require":       newRequire,
	"non_negative":  newNonNegative,
	"count_missing": newCountMissing,
}

// Kinds lists the registered stage kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build constructs the stage described by t.
func Build(t config.Transform, env Env) (transformer.Transformer, error) {
	f, ok := registry[t.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown transform kind %q", t.Kind)
	}
	s, err := f(t.Options, env)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", t.Label(), err)
	}
	return s, nil
}

// BuildChain constructs every stage in order.
func BuildChain(ts []config.Transform, env Env) (transformer.Chain, error) {
	chain := make(transformer.Chain, 0, len(ts))
	for _, t := range ts {
		s, err := Build(t, env)
		if err != nil {
			return nil, err
		}
		chain = append(chain, s)
	}
	return chain, nil
}

func requireString(o config.Options, key string) (string, error) {
	v := o.String(key, "")
	if v == "" {
		return "", fmt.Errorf("option %q is required", key)
	}
	return v, nil
}

func requireStrings(o config.Options, key string) ([]string, error) {
	v := o.StringSlice(key)
	if len(v) == 0 {
		return nil, fmt.Errorf("option %q must list at least one column", key)
	}
	return v, nil
}

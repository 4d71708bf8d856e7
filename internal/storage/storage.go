// Package storage persists finished tables. Backends register a Factory for
// their kind at init time; import storage/all to enable every built-in one.
//
// File savers never leave a partially written destination behind: output goes
// to a temporary file in the destination directory and is renamed into place
// only after a complete, synced write. Database savers replace the target
// table inside one transaction.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Saver writes a table to one destination.
type Saver interface {
	Save(ctx context.Context, t *table.Table) error
}

// Config is the backend-neutral description of a destination.
type Config struct {
	Kind string

	// File destinations.
	Path        string
	Compression string

	// Database destinations.
	DSN   string
	Table string

	// BatchSize bounds rows per bulk-copy call; 0 uses DefaultBatchSize.
	BatchSize int

	Logger *zap.Logger
}

// FromConfig maps a pipeline storage block onto a Config.
func FromConfig(s config.Storage, logger *zap.Logger) Config {
	return Config{
		Kind:        s.Kind,
		Path:        s.File.Path,
		Compression: s.File.Compression,
		DSN:         s.DB.DSN,
		Table:       s.DB.Table,
		Logger:      logger,
	}
}

// Log returns the configured logger or a no-op one.
func (c Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Factory builds a Saver for one kind.
type Factory func(cfg Config) (Saver, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New builds the Saver registered for cfg.Kind.
func New(cfg Config) (Saver, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for kind %q", cfg.Kind)
	}
	return f(cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

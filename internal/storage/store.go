// Package storage persists the planner snapshot. Every Save writes the whole
// state; there is no partial persistence.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/salahplan/internal/model"
)

var ErrUnknownDialect = errors.New("storage: unknown driver")

// Store loads and saves the planner snapshot. Load reports false when nothing
// has been saved yet.
type Store interface {
	Load(ctx context.Context) (model.SavedState, bool, error)
	Save(ctx context.Context, state model.SavedState) error
	Close() error
}

// Options selects a backend. Path is used by sqlite and file, DSN by postgres.
type Options struct {
	Driver string
	Path   string
	DSN    string
}

// Open builds the store named by opts.Driver and applies its migrations.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "sqlite", "sqlite3":
		return OpenSQLite(ctx, opts.Path)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, opts.DSN)
	case "file", "json":
		return NewFileStore(opts.Path), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, opts.Driver)
	}
}

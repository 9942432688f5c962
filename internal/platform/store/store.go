// Package store opens the relational catalog source and hands repos a
// narrow query seam instead of a live pool handle. The pipeline only
// reads from the source schema, so the surface stays read-shaped: Exec
// exists for fixtures and smoke checks, nothing in the pipeline writes.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cinedex/internal/platform/logger"
)

// Row is the single-row scan contract.
type Row interface {
	Scan(dest ...any) error
}

// Rows is the result-set contract: iterate, scan, then check Err.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports what a statement did.
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the sql surface repos program against.
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Pinger is implemented by seams that can report readiness.
type Pinger interface{ Ping(context.Context) error }

// Store owns the configured backends. The zero value is inert: every
// seam stays nil until Open wires it.
type Store struct {
	// Log feeds the query hook; a zero value logs nowhere.
	Log logger.Logger

	// PG is the catalog source, nil unless cfg.PG.Enabled.
	PG RowQuerier
}

// Open applies the options, then brings up each backend the config
// enables. Backends left disabled stay nil on the returned Store.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	// normalize a zero logger so the query hook never nil-checks
	s.Log = s.Log.With().Logger()

	if cfg.PG.Enabled {
		pgSeam, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = pgSeam
	}
	return s, nil
}

// Guard pings every wired seam and reports the failures together.
// Callers run it once at boot before trusting the Store.
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if p, ok := s.PG.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pg: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close shuts down whatever Open wired. Nil seams are skipped.
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if c, ok := s.PG.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

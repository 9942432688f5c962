// Package pg dials the source database through pgxpool and carries the
// query tracer the store's sql adapter emits into.
package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config describes one pool: where to connect, how many conns to hold
// open, and the slow-statement threshold the adapter tags against.
type Config struct {
	URL      string
	MaxConns int32
	SlowMs   int
}

// PG bundles the live pool with the tracing knobs the adapter reads.
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

// connect is swapped by tests to fail pool construction without a server.
var connect = pgxpool.NewWithConfig

// Open parses cfg into a pool config, lets mutate tweak it (integration
// tests use this to shrink pools), and dials. The tracer may be nil.
func Open(ctx context.Context, cfg Config, tracer QueryTracer, mutate func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := poolConfig(cfg, mutate)
	if err != nil {
		return nil, err
	}
	pool, err := connect(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

func poolConfig(cfg Config, mutate func(*pgxpool.Config)) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if mutate != nil {
		mutate(pcfg)
	}
	return pcfg, nil
}

// Close releases the pool. Safe on a nil receiver and a nil pool.
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

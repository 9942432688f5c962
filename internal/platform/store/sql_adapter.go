package store

import (
	"context"
	"errors"
	"time"

	"cinedex/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// thin wrappers from pgx types to our Row/Rows/CommandTag

// tracedRow defers the trace event until Scan returns so the event carries
// the scan error
type tracedRow struct {
	r     pgx.Row
	after func(error)
}

func (tr tracedRow) Scan(dst ...any) error {
	err := tr.r.Scan(dst...)
	if tr.after != nil {
		tr.after(err)
	}
	return err
}

type rowsAdapter struct{ r pgx.Rows }

func (ra rowsAdapter) Next() bool            { return ra.r.Next() }
func (ra rowsAdapter) Scan(dst ...any) error { return ra.r.Scan(dst...) }
func (ra rowsAdapter) Err() error            { return ra.r.Err() }
func (ra rowsAdapter) Close()                { ra.r.Close() }

type tagAdapter struct{ t pgconn.CommandTag }

func (t tagAdapter) String() string      { return t.t.String() }
func (t tagAdapter) RowsAffected() int64 { return t.t.RowsAffected() }

// poolAdapter wraps pg.PG and implements RowQuerier.
// It emits query trace events when a tracer is configured on pg.PG
type poolAdapter struct {
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *poolAdapter { return &poolAdapter{p: p} }

func (a *poolAdapter) Ping(ctx context.Context) error {
	if a == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *poolAdapter) Close() error { a.p.Close(); return nil }

func (a *poolAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := a.p.Pool.Exec(ctx, sql, args...)
	a.emit(ctx, sql, args, start, err)
	return tagAdapter{ct}, err
}

func (a *poolAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.p.Pool.Query(ctx, sql, args...)
	// timing covers query open only, row scanning happens after
	a.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rowsAdapter{r: rs}, nil
}

func (a *poolAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := a.p.Pool.QueryRow(ctx, sql, args...)
	return tracedRow{
		r: r,
		after: func(scanErr error) {
			a.emit(ctx, sql, args, start, scanErr)
		},
	}
}

// emit sends a query event to the configured tracer
func (a *poolAdapter) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if a == nil || a.p == nil || a.p.Tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	slow := a.p.SlowMs >= 0 && elapsedUS >= int64(a.p.SlowMs)*1000
	a.p.Tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      slow,
	})
}

package pg

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"cinedex/internal/platform/logger"
)

// QueryEvent captures one executed statement for tracing.
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives query events from the sql adapter.
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer builds the default tracer: statements log at Info under a
// pinned debug floor so PG_LOG_SQL stays visible even when the root
// logger runs quiet. Slow statements escalate to Warn.
func Tracer(root logger.Logger) QueryTracer {
	return &sqlTracer{
		log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger(),
	}
}

type sqlTracer struct{ log logger.Logger }

func (t *sqlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := t.log.Info()
	if ev.Slow {
		evt = t.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", oneLine(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}

// oneLine folds whitespace runs so multi-line SQL logs on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package etl drives the incremental mirror of the relational catalog
// into the search index: a single-threaded tick loop over the producer
// streams, each tick running produce, bulk-load and watermark commit in
// that order. Progress is committed only after the load is confirmed, so
// a crash between load and commit re-emits the batch; document-id
// idempotence makes the replay harmless.
package etl

import (
	"context"
	"time"

	"cinedex/internal/platform/logger"
	"cinedex/internal/platform/retry"
	"cinedex/internal/platform/search"
	"cinedex/internal/services/etl/producer"
)

// DefaultIdleInterval is the sleep after a tick that moved nothing.
const DefaultIdleInterval = 5 * time.Second

// Sink receives producer batches. *loader.Loader satisfies it.
type Sink interface {
	EnsureIndices(ctx context.Context) error
	Load(ctx context.Context, index string, docs []search.Doc) (int, error)
}

// Committer persists stream watermarks. *state.Store satisfies it.
type Committer interface {
	SetTime(key string, t time.Time) error
}

// Options wires a Runner.
type Options struct {
	Streams []producer.Stream
	Sink    Sink
	State   Committer

	// IdleInterval overrides DefaultIdleInterval when positive.
	IdleInterval time.Duration

	// Policy is the backoff schedule for transient produce failures.
	// The zero value falls back to retry.DefaultPolicy.
	Policy retry.Policy
}

// Runner owns the tick loop.
type Runner struct {
	streams []producer.Stream
	sink    Sink
	state   Committer
	idle    time.Duration
	policy  retry.Policy
}

// New constructs a Runner from options.
func New(opt Options) *Runner {
	if len(opt.Streams) == 0 {
		panic("etl.Runner requires at least one stream")
	}
	if opt.Sink == nil {
		panic("etl.Runner requires a non nil sink")
	}
	if opt.State == nil {
		panic("etl.Runner requires a non nil state committer")
	}
	idle := opt.IdleInterval
	if idle <= 0 {
		idle = DefaultIdleInterval
	}
	policy := opt.Policy
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy()
	}
	return &Runner{
		streams: opt.Streams,
		sink:    opt.Sink,
		state:   opt.State,
		idle:    idle,
		policy:  policy,
	}
}

// Run creates the indices and ticks until ctx is cancelled. Cancellation
// is a clean stop; any other error is fatal and surfaces to the caller.
func (r *Runner) Run(ctx context.Context) error {
	l := logger.C(ctx).With().Str("mod", "etl").Logger()

	if err := r.sink.EnsureIndices(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	l.Info().Int("streams", len(r.streams)).Msg("etl: indices ready, loop starting")

	for {
		total, err := r.tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.Info().Msg("etl: shutdown requested, stopping")
				return nil
			}
			return err
		}

		if total == 0 {
			select {
			case <-ctx.Done():
				l.Info().Msg("etl: shutdown requested, stopping")
				return nil
			case <-time.After(r.idle):
			}
			continue
		}

		select {
		case <-ctx.Done():
			l.Info().Msg("etl: shutdown requested, stopping")
			return nil
		default:
		}
	}
}

// tick runs every stream once and sums the loaded documents.
func (r *Runner) tick(ctx context.Context) (int, error) {
	total := 0
	for _, s := range r.streams {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := r.runStream(ctx, s)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// runStream walks one stream through produce, load and commit.
func (r *Runner) runStream(ctx context.Context, s producer.Stream) (int, error) {
	batch, err := retry.DoValue(ctx, "produce "+s.Name, r.policy, func() (producer.Batch, error) {
		return s.Produce(ctx)
	})
	if err != nil {
		return 0, err
	}
	if batch.Watermark.IsZero() {
		// the selection saw nothing, not even an empty fan-out
		return 0, nil
	}

	n, err := r.sink.Load(ctx, s.Index, batch.Docs)
	if err != nil {
		return 0, err
	}

	// the commit is the at-least-once boundary: it must not move until
	// the load above has been confirmed
	if err := r.state.SetTime(s.StateKey, batch.Watermark); err != nil {
		return n, err
	}

	if n > 0 {
		logger.C(ctx).Info().
			Str("mod", "etl").
			Str("stream", s.Name).
			Str("index", s.Index).
			Int("docs", n).
			Time("watermark", batch.Watermark).
			Msg("etl: batch loaded")
	}
	return n, nil
}

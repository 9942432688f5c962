// Package retry runs calls against flaky backends under a capped
// geometric backoff schedule.
//
// Retryability is decided by the error, not the caller: anything that
// maps to a transient code (see errors.Retryable) is retried until the
// context is done; everything else aborts on the first attempt.
package retry

import (
	"context"
	"time"

	perr "cinedex/internal/platform/errors"
	"cinedex/internal/platform/logger"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a geometric backoff schedule. Waits start at Initial,
// grow by Factor per attempt and never exceed Cap. Jitter is disabled so
// schedules stay deterministic.
type Policy struct {
	Initial time.Duration
	Factor  float64
	Cap     time.Duration
}

// DefaultPolicy is the 100ms-doubling-capped-at-10s schedule used by the
// ETL loop and the search adapters.
func DefaultPolicy() Policy {
	return Policy{Initial: 100 * time.Millisecond, Factor: 2.0, Cap: 10 * time.Second}
}

// schedule builds the underlying backoff bound to ctx.
// MaxElapsedTime stays zero: only ctx cancellation ends the retries.
func (p Policy) schedule(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.Multiplier = p.Factor
	b.MaxInterval = p.Cap
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// Do runs fn under the policy, retrying while the returned error is
// retryable. Cancellation of ctx wins between attempts and surfaces as
// ctx.Err().
func Do(ctx context.Context, op string, p Policy, fn func() error) error {
	_, err := DoValue(ctx, op, p, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, op string, p Policy, fn func() (T, error)) (T, error) {
	attempt := func() (T, error) {
		v, err := fn()
		if err != nil && !perr.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		logger.C(ctx).Warn().Err(err).Str("op", op).Dur("wait", wait).Msg("transient failure, backing off")
	}
	return backoff.RetryNotifyWithData(attempt, p.schedule(ctx), notify)
}

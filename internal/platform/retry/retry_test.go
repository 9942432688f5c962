package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "cinedex/internal/platform/errors"
)

func fastPolicy() Policy {
	return Policy{Initial: time.Millisecond, Factor: 2.0, Cap: 4 * time.Millisecond}
}

func TestDoValueFirstTrySuccess(t *testing.T) {
	calls := 0
	got, err := DoValue(context.Background(), "test", fastPolicy(), func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("DoValue: %v", err)
	}
	if got != 42 {
		t.Fatalf("value = %d, want 42", got)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "test", fastPolicy(), func() error {
		calls++
		if calls < 3 {
			return perr.Unavailablef("search backend down")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoAbortsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "test", fastPolicy(), func() error {
		calls++
		return perr.NotFoundf("document missing")
	})
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retries for permanent errors)", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Do(ctx, "test", fastPolicy(), func() error {
		return perr.Unavailablef("still down")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Initial != 100*time.Millisecond {
		t.Fatalf("Initial = %v, want 100ms", p.Initial)
	}
	if p.Factor != 2.0 {
		t.Fatalf("Factor = %v, want 2.0", p.Factor)
	}
	if p.Cap != 10*time.Second {
		t.Fatalf("Cap = %v, want 10s", p.Cap)
	}
}

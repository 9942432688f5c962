package etl

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	perr "cinedex/internal/platform/errors"
	"cinedex/internal/platform/retry"
	"cinedex/internal/platform/search"
	"cinedex/internal/services/etl/producer"
)

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type loadCall struct {
	index string
	docs  int
}

type fakeSink struct {
	ensureCalls int
	ensureErr   error

	loads     []loadCall
	failLoads int
	loadErr   error
}

func (f *fakeSink) EnsureIndices(context.Context) error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeSink) Load(_ context.Context, index string, docs []search.Doc) (int, error) {
	if f.failLoads > 0 {
		f.failLoads--
		return 0, f.loadErr
	}
	f.loads = append(f.loads, loadCall{index: index, docs: len(docs)})
	return len(docs), nil
}

type setCall struct {
	key  string
	mark time.Time
}

type fakeState struct {
	sets []setCall
	err  error
}

func (f *fakeState) SetTime(key string, t time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.sets = append(f.sets, setCall{key: key, mark: t})
	return nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{Initial: time.Millisecond, Factor: 1.0, Cap: time.Millisecond}
}

func docBatch(n int, mark time.Time) producer.Batch {
	docs := make([]search.Doc, n)
	for i := range docs {
		docs[i] = search.Doc{ID: "d", Body: json.RawMessage(`{}`)}
	}
	return producer.Batch{Docs: docs, Watermark: mark}
}

func stream(name, index, key string, produce func(context.Context) (producer.Batch, error)) producer.Stream {
	return producer.Stream{Name: name, Index: index, StateKey: key, Produce: produce}
}

func newRunner(streams []producer.Stream, sink *fakeSink, st *fakeState, idle time.Duration) *Runner {
	return New(Options{
		Streams:      streams,
		Sink:         sink,
		State:        st,
		IdleInterval: idle,
		Policy:       fastPolicy(),
	})
}

func TestRunStream_CommitsWatermarkOnlyAfterLoad(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{}
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		return docBatch(2, t0), nil
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	n, err := r.runStream(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if len(sink.loads) != 1 || sink.loads[0].index != "movies" || sink.loads[0].docs != 2 {
		t.Fatalf("loads = %+v", sink.loads)
	}
	if len(st.sets) != 1 || st.sets[0].key != "k" || !st.sets[0].mark.Equal(t0) {
		t.Fatalf("commits = %+v", st.sets)
	}
}

func TestRunStream_LoadFailureLeavesWatermarkUntouched(t *testing.T) {
	sink := &fakeSink{failLoads: 100, loadErr: perr.Internalf("bulk rejected")}
	st := &fakeState{}
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		return docBatch(1, t0), nil
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	if _, err := r.runStream(context.Background(), s); err == nil {
		t.Fatalf("expected load error")
	}
	if len(st.sets) != 0 {
		t.Fatalf("watermark committed despite load failure: %+v", st.sets)
	}
}

func TestRunStream_NothingSelectedSkipsLoadAndCommit(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{}
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		return producer.Batch{}, nil
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	n, err := r.runStream(context.Background(), s)
	if err != nil || n != 0 {
		t.Fatalf("n = %d, err = %v", n, err)
	}
	if len(sink.loads) != 0 || len(st.sets) != 0 {
		t.Fatalf("idle stream touched the sink or state: %+v %+v", sink.loads, st.sets)
	}
}

func TestRunStream_EmptyFanOutCommitsWithoutDocs(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{}
	s := stream("films-by-genre", "movies", "k", func(context.Context) (producer.Batch, error) {
		return producer.Batch{Watermark: t0}, nil
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	n, err := r.runStream(context.Background(), s)
	if err != nil || n != 0 {
		t.Fatalf("n = %d, err = %v", n, err)
	}
	if len(st.sets) != 1 || !st.sets[0].mark.Equal(t0) {
		t.Fatalf("watermark-only batch must still commit: %+v", st.sets)
	}
}

func TestRunStream_RetriesTransientProduceFailures(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{}
	attempts := 0
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		attempts++
		if attempts <= 2 {
			return producer.Batch{}, perr.Unavailablef("source down")
		}
		return docBatch(1, t0), nil
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	n, err := r.runStream(context.Background(), s)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if n != 1 || attempts != 3 {
		t.Fatalf("n = %d, attempts = %d", n, attempts)
	}
}

func TestRunStream_CommitFailureSurfaces(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{err: perr.Internalf("disk full")}
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		return docBatch(1, t0), nil
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	if _, err := r.runStream(context.Background(), s); err == nil {
		t.Fatalf("expected commit error to surface")
	}
}

func TestTick_RunsStreamsInOrderAndSumsCounts(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{}
	var order []string
	mk := func(name, index string, n int) producer.Stream {
		return stream(name, index, name+"-key", func(context.Context) (producer.Batch, error) {
			order = append(order, name)
			return docBatch(n, t0), nil
		})
	}
	streams := []producer.Stream{mk("a", "movies", 2), mk("b", "genres", 0), mk("c", "persons", 3)}
	r := newRunner(streams, sink, st, time.Millisecond)

	total, err := r.tick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("order = %v", order)
	}
	if len(st.sets) != 3 {
		t.Fatalf("commits = %+v", st.sets)
	}
}

func TestTick_StopsAtFirstFatalStream(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{}
	ran := ""
	ok := stream("a", "movies", "ka", func(context.Context) (producer.Batch, error) {
		ran += "a"
		return docBatch(1, t0), nil
	})
	bad := stream("b", "genres", "kb", func(context.Context) (producer.Batch, error) {
		ran += "b"
		return producer.Batch{}, perr.Internalf("poisoned row")
	})
	after := stream("c", "persons", "kc", func(context.Context) (producer.Batch, error) {
		ran += "c"
		return producer.Batch{}, nil
	})
	r := newRunner([]producer.Stream{ok, bad, after}, sink, st, time.Millisecond)

	total, err := r.tick(context.Background())
	if err == nil {
		t.Fatalf("expected error from stream b")
	}
	if total != 1 || ran != "ab" {
		t.Fatalf("total = %d, ran = %q", total, ran)
	}
}

func TestRun_EnsuresIndicesBeforeStreaming(t *testing.T) {
	sink := &fakeSink{ensureErr: perr.Internalf("mapping rejected")}
	st := &fakeState{}
	produced := false
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		produced = true
		return producer.Batch{}, nil
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected index bootstrap failure to surface")
	}
	if produced {
		t.Fatalf("streams ran before the indices existed")
	}
	if sink.ensureCalls != 1 {
		t.Fatalf("ensureCalls = %d", sink.ensureCalls)
	}
}

func TestRun_IdlesWhenNothingMovesAndStopsOnCancel(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{}
	ctx, cancel := context.WithCancel(context.Background())

	ticks := 0
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		ticks++
		if ticks == 3 {
			cancel()
		}
		return producer.Batch{}, nil
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	if err := r.Run(ctx); err != nil {
		t.Fatalf("cancellation must be a clean stop, got %v", err)
	}
	if ticks < 3 {
		t.Fatalf("ticks = %d, want at least 3", ticks)
	}
	if len(sink.loads) != 0 || len(st.sets) != 0 {
		t.Fatalf("idle loop touched sink or state")
	}
}

func TestRun_KeepsGoingAfterWorkAndReturnsFatalErrors(t *testing.T) {
	sink := &fakeSink{}
	st := &fakeState{}

	calls := 0
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		calls++
		switch calls {
		case 1:
			return docBatch(2, t0), nil
		case 2:
			return docBatch(1, t0.Add(time.Second)), nil
		default:
			return producer.Batch{}, perr.Internalf("source schema changed")
		}
	})
	r := newRunner([]producer.Stream{s}, sink, st, time.Millisecond)

	err := r.Run(context.Background())
	if err == nil {
		t.Fatalf("expected the fatal error to stop the loop")
	}
	if len(sink.loads) != 2 {
		t.Fatalf("loads = %+v, want two successful batches first", sink.loads)
	}
	if len(st.sets) != 2 || !st.sets[1].mark.Equal(t0.Add(time.Second)) {
		t.Fatalf("commits = %+v", st.sets)
	}
}

func TestNew_DefaultsIdleAndPolicy(t *testing.T) {
	s := stream("films", "movies", "k", func(context.Context) (producer.Batch, error) {
		return producer.Batch{}, nil
	})
	r := New(Options{Streams: []producer.Stream{s}, Sink: &fakeSink{}, State: &fakeState{}})
	if r.idle != DefaultIdleInterval {
		t.Fatalf("idle = %v, want %v", r.idle, DefaultIdleInterval)
	}
	if r.policy != retry.DefaultPolicy() {
		t.Fatalf("policy = %+v", r.policy)
	}
}

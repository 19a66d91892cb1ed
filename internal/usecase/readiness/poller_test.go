package readiness

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/chunkdex/internal/domain"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// scriptedLister replays responses; the last one repeats.
type scriptedLister struct {
	responses [][]index.Status
	errAt     int
	err       error
	calls     int
}

func (s *scriptedLister) ListSearchIndexes(_ context.Context, _ string) ([]index.Status, error) {
	s.calls++
	if s.err != nil && s.calls == s.errAt {
		return nil, s.err
	}
	i := s.calls - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

// fakeTime is a clock that only moves when the poller sleeps.
type fakeTime struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeTime() *fakeTime {
	return &fakeTime{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeTime) Now() time.Time { return f.now }

func (f *fakeTime) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func newPoller(l IndexLister, ft *fakeTime, opts ...Option) *Poller {
	opts = append([]Option{
		WithInterval(10 * time.Second),
		WithSleeper(ft.Sleep),
		WithClock(ft.Now),
	}, opts...)
	return New(l, opts...)
}

func st(name string, state index.State) index.Status {
	return index.Status{Name: name, Status: state}
}

func TestAwaitReady_EndToEndScenario(t *testing.T) {
	l := &scriptedLister{responses: [][]index.Status{
		{st("vector_index", index.StatusPending), st("text_index", "READY")},
		{st("vector_index", "READY"), st("text_index", "READY")},
	}}
	ft := newFakeTime()

	res, err := newPoller(l, ft).AwaitReady(context.Background(), "chunks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Polls != 2 || l.calls != 2 {
		t.Errorf("expected 2 polls, got %d (lister calls %d)", res.Polls, l.calls)
	}
	if want := []time.Duration{10 * time.Second}; !reflect.DeepEqual(ft.sleeps, want) {
		t.Errorf("expected sleeps %v, got %v", want, ft.sleeps)
	}
	if res.Elapsed != 10*time.Second {
		t.Errorf("expected elapsed 10s, got %v", res.Elapsed)
	}
	if res.Statuses[0].Status != "READY" {
		t.Errorf("expected READY, got %s", res.Statuses[0].Status)
	}
}

func TestAwaitReady_NPendingPollsThenConverge(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7} {
		var responses [][]index.Status
		for range n {
			responses = append(responses, []index.Status{st("vector_index", index.StatusPending)})
		}
		responses = append(responses, []index.Status{st("vector_index", "READY")})

		l := &scriptedLister{responses: responses}
		ft := newFakeTime()

		res, err := newPoller(l, ft).AwaitReady(context.Background(), "chunks")
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if res.Polls != n+1 {
			t.Errorf("n=%d: expected %d polls, got %d", n, n+1, res.Polls)
		}
		if len(ft.sleeps) != n {
			t.Errorf("n=%d: expected %d sleeps, got %d", n, n, len(ft.sleeps))
		}
	}
}

func TestAwaitReady_EmptyListIsNotConverged(t *testing.T) {
	l := &scriptedLister{responses: [][]index.Status{
		{},
		nil,
		{st("vector_index", "READY")},
	}}
	ft := newFakeTime()

	res, err := newPoller(l, ft).AwaitReady(context.Background(), "chunks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Polls != 3 || len(ft.sleeps) != 2 {
		t.Errorf("expected 3 polls and 2 sleeps, got %d and %d", res.Polls, len(ft.sleeps))
	}
}

func TestAwaitReady_WaitsForExpectedNames(t *testing.T) {
	l := &scriptedLister{responses: [][]index.Status{
		{st("vector_index", "READY")},
		{st("vector_index", "READY"), st("text_index", "READY")},
	}}
	ft := newFakeTime()

	res, err := newPoller(l, ft).AwaitReady(context.Background(), "chunks", "vector_index", "text_index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Polls != 2 {
		t.Errorf("expected 2 polls, got %d", res.Polls)
	}
}

func TestAwaitReady_NonPendingFailureIsSettled(t *testing.T) {
	l := &scriptedLister{responses: [][]index.Status{
		{st("vector_index", "FAILED"), st("text_index", "READY")},
	}}
	ft := newFakeTime()

	res, err := newPoller(l, ft).AwaitReady(context.Background(), "chunks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Polls != 1 || len(ft.sleeps) != 0 {
		t.Errorf("expected a single poll without sleeping, got %d polls, sleeps %v", res.Polls, ft.sleeps)
	}
}

func TestAwaitReady_Timeout(t *testing.T) {
	l := &scriptedLister{responses: [][]index.Status{{st("vector_index", index.StatusPending)}}}
	ft := newFakeTime()

	res, err := newPoller(l, ft, WithMaxWait(25*time.Second)).AwaitReady(context.Background(), "chunks")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if res.Polls != 4 {
		t.Errorf("expected 4 polls, got %d", res.Polls)
	}
	want := []time.Duration{10 * time.Second, 10 * time.Second, 5 * time.Second}
	if !reflect.DeepEqual(ft.sleeps, want) {
		t.Errorf("expected sleeps %v, got %v", want, ft.sleeps)
	}
	if !res.Statuses[0].Pending() {
		t.Errorf("expected last status pending, got %s", res.Statuses[0].Status)
	}
}

func TestAwaitReady_ListErrorAborts(t *testing.T) {
	boom := errors.New("connection reset")
	l := &scriptedLister{
		responses: [][]index.Status{{st("vector_index", index.StatusPending)}},
		errAt:     2,
		err:       boom,
	}
	ft := newFakeTime()

	res, err := newPoller(l, ft).AwaitReady(context.Background(), "chunks")
	if !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
	if res.Polls != 2 || len(ft.sleeps) != 1 {
		t.Errorf("expected 2 polls and 1 sleep, got %d and %d", res.Polls, len(ft.sleeps))
	}
}

func TestAwaitReady_ContextCancelled(t *testing.T) {
	l := &scriptedLister{responses: [][]index.Status{{st("vector_index", index.StatusPending)}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(l, WithInterval(time.Hour))
	res, err := p.AwaitReady(ctx, "chunks")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Polls != 1 {
		t.Errorf("expected 1 poll, got %d", res.Polls)
	}
}

func TestAwaitReady_LogsProgress(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &scriptedLister{responses: [][]index.Status{
		{st("vector_index", index.StatusPending)},
		{st("vector_index", "READY")},
	}}
	ft := newFakeTime()

	if _, err := newPoller(l, ft, WithLogger(zap.New(core))).AwaitReady(context.Background(), "chunks"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for msg, want := range map[string]int{
		"waiting...":           1,
		"Search index status":  2,
		"Search indexes ready": 1,
	} {
		if got := logs.FilterMessage(msg).Len(); got != want {
			t.Errorf("%q: expected %d entries, got %d", msg, want, got)
		}
	}
}

func TestContextSleep(t *testing.T) {
	if err := contextSleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := contextSleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	l := &scriptedLister{responses: [][]index.Status{{st("vector_index", "READY")}}}
	statuses, ok, err := New(l).Check(context.Background(), "chunks", "vector_index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || len(statuses) != 1 {
		t.Errorf("expected converged with 1 status, got ok=%v statuses=%v", ok, statuses)
	}

	_, ok, err = New(l).Check(context.Background(), "chunks", "text_index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected not converged while text_index is missing")
	}
}

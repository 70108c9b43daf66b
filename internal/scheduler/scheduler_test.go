package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
)

type countingFlusher struct {
	calls atomic.Int32
	err   error
}

func (f *countingFlusher) Flush(context.Context) error {
	f.calls.Add(1)
	return f.err
}

type blockingSweeper struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingSweeper() *blockingSweeper {
	return &blockingSweeper{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (s *blockingSweeper) ReconcileAll(ctx context.Context, now time.Time) engine.SweepReport {
	s.calls.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return engine.SweepReport{ID: "r", StartedAt: now, FinishedAt: now, Total: 1, Unchanged: 1}
}

type instantSweeper struct{ calls atomic.Int32 }

func (s *instantSweeper) ReconcileAll(_ context.Context, now time.Time) engine.SweepReport {
	n := s.calls.Add(1)
	return engine.SweepReport{StartedAt: now, FinishedAt: now, Total: int(n)}
}

func TestFlushLoopKeepsTickingOnError(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &countingFlusher{err: errors.New("disk full")}
	s := New(f, &instantSweeper{}, Options{FlushInterval: 10 * time.Millisecond, SweepInterval: time.Hour})
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return f.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestStartIsIdempotentAndRestartable(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &countingFlusher{}
	s := New(f, &instantSweeper{}, Options{FlushInterval: 10 * time.Millisecond, SweepInterval: time.Hour})

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.Running())
	s.Stop()
	assert.False(t, s.Running())
	s.Stop()

	before := f.calls.Load()
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return f.calls.Load() > before }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestSweepIsNotReentrant(t *testing.T) {
	defer goleak.VerifyNone(t)

	sw := newBlockingSweeper()
	s := New(&countingFlusher{}, sw, Options{FlushInterval: time.Hour, SweepInterval: 10 * time.Millisecond})
	s.Start(context.Background())

	<-sw.started
	assert.True(t, s.Sweeping())

	// ticks that land while the first sweep blocks are skipped
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), sw.calls.Load())

	_, err := s.RunSweep(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)

	close(sw.release)
	assert.Eventually(t, func() bool {
		_, ok := s.LastSweep()
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
}

func TestStopCancelsRunningSweep(t *testing.T) {
	defer goleak.VerifyNone(t)

	sw := newBlockingSweeper()
	s := New(&countingFlusher{}, sw, Options{FlushInterval: time.Hour, SweepInterval: 10 * time.Millisecond})
	s.Start(context.Background())
	<-sw.started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a sweep was running")
	}
}

func TestRunSweepReportsAndNotifies(t *testing.T) {
	var seen atomic.Int32
	sw := &instantSweeper{}
	s := New(&countingFlusher{}, sw, Options{OnSweep: func(r engine.SweepReport) { seen.Store(int32(r.Total)) }})

	_, ok := s.LastSweep()
	assert.False(t, ok)

	report, err := s.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, int32(1), seen.Load())

	last, ok := s.LastSweep()
	require.True(t, ok)
	assert.Equal(t, report.Total, last.Total)
}

func TestRunSweepRespectsForeignLease(t *testing.T) {
	locker := NewLocalLocker()
	release, ok, err := locker.Acquire(context.Background(), sweepLockName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	sw := &instantSweeper{}
	s := New(&countingFlusher{}, sw, Options{Locker: locker})

	_, err = s.RunSweep(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)
	assert.Zero(t, sw.calls.Load())

	release()
	_, err = s.RunSweep(context.Background())
	assert.NoError(t, err)
}

func TestLocalLockerExpiry(t *testing.T) {
	l := NewLocalLocker()

	_, ok, _ := l.Acquire(context.Background(), "a", 20*time.Millisecond)
	require.True(t, ok)

	_, ok, _ = l.Acquire(context.Background(), "a", time.Minute)
	assert.False(t, ok)

	time.Sleep(30 * time.Millisecond)
	release, ok, _ := l.Acquire(context.Background(), "a", time.Minute)
	require.True(t, ok)
	release()

	_, ok, _ = l.Acquire(context.Background(), "a", time.Minute)
	assert.True(t, ok)
}

func TestLocalLockerStaleReleaseKeepsNewLease(t *testing.T) {
	l := NewLocalLocker()

	stale, ok, _ := l.Acquire(context.Background(), "a", 10*time.Millisecond)
	require.True(t, ok)
	time.Sleep(20 * time.Millisecond)

	_, ok, _ = l.Acquire(context.Background(), "a", time.Minute)
	require.True(t, ok)

	stale()
	_, ok, _ = l.Acquire(context.Background(), "a", time.Minute)
	assert.False(t, ok)
}

func TestTriggerSweepRunsInBackground(t *testing.T) {
	defer goleak.VerifyNone(t)

	sw := newBlockingSweeper()
	s := New(&countingFlusher{}, sw, Options{FlushInterval: time.Hour, SweepInterval: time.Hour})

	results := make(chan engine.SweepReport, 1)
	require.NoError(t, s.TriggerSweep(time.Minute, func(r engine.SweepReport, err error) {
		assert.NoError(t, err)
		results <- r
	}))

	<-sw.started
	assert.True(t, s.Sweeping())
	assert.ErrorIs(t, s.TriggerSweep(time.Minute, nil), ErrSweepRunning)
	_, err := s.RunSweep(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)

	close(sw.release)
	r := <-results
	assert.Equal(t, "r", r.ID)
	assert.Eventually(t, func() bool { return !s.Sweeping() }, time.Second, 5*time.Millisecond)

	s.Stop()
}

func TestStopCancelsTriggeredSweep(t *testing.T) {
	defer goleak.VerifyNone(t)

	sw := newBlockingSweeper()
	s := New(&countingFlusher{}, sw, Options{FlushInterval: time.Hour, SweepInterval: time.Hour})

	finished := make(chan struct{})
	require.NoError(t, s.TriggerSweep(time.Hour, func(engine.SweepReport, error) { close(finished) }))
	<-sw.started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the triggered sweep")
	}
	<-finished
	assert.False(t, s.Sweeping())

	// a new trigger after Stop gets a fresh context
	sw2 := &instantSweeper{}
	s.sweeper = sw2
	got := make(chan error, 1)
	require.NoError(t, s.TriggerSweep(time.Minute, func(_ engine.SweepReport, err error) { got <- err }))
	assert.NoError(t, <-got)
	assert.Equal(t, int32(1), sw2.calls.Load())
	s.Stop()
}

func TestTriggerSweepTimesOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	sw := newBlockingSweeper()
	s := New(&countingFlusher{}, sw, Options{FlushInterval: time.Hour, SweepInterval: time.Hour})

	got := make(chan struct{})
	require.NoError(t, s.TriggerSweep(20*time.Millisecond, func(engine.SweepReport, error) { close(got) }))

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("triggered sweep ignored its timeout")
	}
	s.Stop()
}

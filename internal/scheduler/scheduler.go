// Package scheduler runs the periodic state flush and the verification sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/metrics"
)

// ErrSweepRunning is returned when a sweep is requested while one runs
var ErrSweepRunning = errors.New("sweep already in progress")

const sweepLockName = "verification-sweep"

// Flusher persists state
type Flusher interface {
	Flush(ctx context.Context) error
}

// Sweeper reconciles every verification record
type Sweeper interface {
	ReconcileAll(ctx context.Context, now time.Time) engine.SweepReport
}

// Options configures the scheduler
type Options struct {
	FlushInterval time.Duration
	SweepInterval time.Duration
	// Locker keeps sweeps exclusive across processes. Defaults to a
	// LocalLocker.
	Locker Locker
	// OnSweep receives every finished sweep report
	OnSweep func(engine.SweepReport)
}

// Scheduler owns the flush and sweep loops. Start and Stop may be called
// repeatedly; Start on a running scheduler does nothing.
type Scheduler struct {
	flusher Flusher
	sweeper Sweeper
	opts    Options

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	manual  *background

	flushing atomic.Bool
	sweeping atomic.Bool
	last     atomic.Pointer[engine.SweepReport]
}

// New creates a stopped scheduler
func New(flusher Flusher, sweeper Sweeper, opts Options) *Scheduler {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 5 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 24 * time.Hour
	}
	if opts.Locker == nil {
		opts.Locker = NewLocalLocker()
	}
	return &Scheduler{flusher: flusher, sweeper: sweeper, opts: opts, manual: newBackground()}
}

// background tracks triggered sweeps until the next Stop
type background struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newBackground() *background {
	ctx, cancel := context.WithCancel(context.Background())
	return &background{ctx: ctx, cancel: cancel}
}

// Start launches both loops. The first flush and sweep happen one interval
// after Start.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(2)
	go s.loop(ctx, "flush", s.opts.FlushInterval, s.flushTick)
	go s.loop(ctx, "sweep", s.opts.SweepInterval, s.sweepTick)

	logger.System(fmt.Sprintf("Scheduler started (flush every %s, sweep every %s)", s.opts.FlushInterval, s.opts.SweepInterval), "Scheduler")
}

// Stop cancels both loops and any triggered sweep, then waits for them
func (s *Scheduler) Stop() {
	s.mu.Lock()
	manual := s.manual
	s.manual = newBackground()
	wasRunning := s.running
	if wasRunning {
		s.cancel()
		s.running = false
	}
	s.mu.Unlock()

	manual.cancel()
	manual.wg.Wait()
	if !wasRunning {
		return
	}

	s.wg.Wait()
	logger.System("Scheduler stopped", "Scheduler")
}

// Running reports whether the loops are active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, tick func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

func (s *Scheduler) flushTick(ctx context.Context) {
	if !s.flushing.CompareAndSwap(false, true) {
		metrics.SkippedTicks.WithLabelValues("flush").Inc()
		logger.Warn("Previous flush still running, skipping", "Scheduler")
		return
	}
	defer s.flushing.Store(false)

	if err := s.flusher.Flush(ctx); err != nil {
		logger.Error(fmt.Sprintf("Periodic flush failed: %v", err), "Scheduler")
		return
	}
	logger.Debug("Auto-saved all data", "Scheduler")
}

func (s *Scheduler) sweepTick(ctx context.Context) {
	if _, err := s.RunSweep(ctx); err != nil {
		metrics.SkippedTicks.WithLabelValues("sweep").Inc()
		logger.Warn(fmt.Sprintf("Scheduled sweep skipped: %v", err), "Scheduler")
	}
}

// RunSweep runs one sweep now. It fails with ErrSweepRunning when a sweep is
// already in progress in this process or, through the Locker, in another.
func (s *Scheduler) RunSweep(ctx context.Context) (engine.SweepReport, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return engine.SweepReport{}, ErrSweepRunning
	}
	defer s.sweeping.Store(false)
	return s.sweep(ctx)
}

// TriggerSweep starts a sweep in the background and returns at once. It
// fails with ErrSweepRunning when a sweep is in progress in this process.
// The sweep is cancelled by Stop or after timeout. done, when not nil,
// receives the result.
func (s *Scheduler) TriggerSweep(timeout time.Duration, done func(engine.SweepReport, error)) error {
	if !s.sweeping.CompareAndSwap(false, true) {
		return ErrSweepRunning
	}

	s.mu.Lock()
	bg := s.manual
	bg.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer bg.wg.Done()
		defer s.sweeping.Store(false)

		ctx, cancel := context.WithTimeout(bg.ctx, timeout)
		defer cancel()

		report, err := s.sweep(ctx)
		if err != nil {
			logger.Warn(fmt.Sprintf("Triggered sweep not run: %v", err), "Scheduler")
		}
		if done != nil {
			done(report, err)
		}
	}()
	return nil
}

func (s *Scheduler) sweep(ctx context.Context) (engine.SweepReport, error) {
	// the lease outlives a normal sweep; it is released explicitly
	release, ok, err := s.opts.Locker.Acquire(ctx, sweepLockName, s.opts.SweepInterval)
	if err != nil {
		return engine.SweepReport{}, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		return engine.SweepReport{}, ErrSweepRunning
	}
	defer release()

	report := s.sweeper.ReconcileAll(ctx, time.Now())
	s.last.Store(&report)

	if s.opts.OnSweep != nil {
		s.opts.OnSweep(report)
	}
	return report, nil
}

// Sweeping reports whether a sweep is in progress
func (s *Scheduler) Sweeping() bool {
	return s.sweeping.Load()
}

// LastSweep returns the most recent sweep report, if any
func (s *Scheduler) LastSweep() (engine.SweepReport, bool) {
	r := s.last.Load()
	if r == nil {
		return engine.SweepReport{}, false
	}
	return *r, true
}

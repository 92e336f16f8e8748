package compaction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
)

// Sweeper runs one full compaction sweep.
type Sweeper interface {
	CompactAll(ctx context.Context) Report
}

// Scheduler runs sweeps on a Policy for as long as it is running.
// Sweeps never overlap: the next run is armed only after the previous one returned.
// Sweep failures are logged and published, never returned.
type Scheduler struct {
	*worker.BaseWorker
	sweeper Sweeper
	clock   Clock
	logger  *slog.Logger
	reports chan<- Report

	mu     sync.Mutex
	policy Policy
	next   time.Time
	rearm  chan struct{}
	cancel context.CancelFunc

	runs atomic.Uint64
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(clock Clock) SchedulerOption {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReports publishes every finished sweep on ch. A report is dropped when
// nobody is ready to receive it, so a slow consumer never delays the next sweep.
func WithReports(ch chan<- Report) SchedulerOption {
	return func(s *Scheduler) {
		s.reports = ch
	}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(sweeper Sweeper, policy Policy, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		BaseWorker: worker.NewBaseWorker("compaction-scheduler"),
		sweeper:    sweeper,
		clock:      SystemClock(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:     policy,
		rearm:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := s.BaseWorker.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("scheduler already started (status: %s)", status)
	}
	if s.sweeper == nil || s.currentPolicy() == nil {
		return fmt.Errorf("scheduler needs a sweeper and a policy")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.SetStatus(worker.StatusRunning)
	return s.StartFunc(runCtx, s.run)
}

// Stop cancels the loop. A sweep in flight finishes the note it is on and stops.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		s.StopRequested = true
		cancel()
	}
	return s.BaseWorker.Stop(ctx)
}

// SetPolicy swaps the policy. A loop waiting for its next run re-arms with p right away.
func (s *Scheduler) SetPolicy(p Policy) {
	if p == nil {
		return
	}
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()

	select {
	case s.rearm <- struct{}{}:
	default:
	}
	s.logger.Info("compaction policy changed", "policy", p.String())
}

// NextRun returns the armed run time, zero while a sweep is running or before start.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Runs returns the number of sweeps completed.
func (s *Scheduler) Runs() uint64 {
	return s.runs.Load()
}

// State implements worker.Worker.
func (s *Scheduler) State() worker.State {
	s.mu.Lock()
	policy, next := s.policy, s.next
	s.mu.Unlock()

	return s.ExportState(func(st *worker.State) {
		st.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"runs":              strconv.FormatUint(s.runs.Load(), 10),
		}
		if policy != nil {
			st.Metadata["policy"] = policy.String()
		}
		if !next.IsZero() {
			st.Metadata["next_run"] = next.Format(time.RFC3339)
		}
	})
}

func (s *Scheduler) currentPolicy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// arm computes the next run from the current policy and returns how long to wait.
func (s *Scheduler) arm() (time.Time, time.Duration) {
	now := s.clock.Now()
	s.mu.Lock()
	next := s.policy.Next(now)
	s.next = next
	s.mu.Unlock()

	wait := next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return next, wait
}

func (s *Scheduler) disarm() {
	s.mu.Lock()
	s.next = time.Time{}
	s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("scheduler panic: %v", recovered)
			if s.logger.Enabled(ctx, slog.LevelDebug) {
				s.logger.Error("scheduler panic", "error", err, "stack", string(debug.Stack()))
			} else {
				s.logger.Error("scheduler panic", "error", err)
			}
		}
	}()
	defer s.disarm()

	for {
		next, wait := s.arm()
		s.logger.Info("next compaction scheduled", "at", next.Format(time.RFC3339), "in", wait.Round(time.Second))

		select {
		case <-ctx.Done():
			return nil
		case <-s.rearm:
			continue
		case <-s.clock.After(wait):
		}

		s.disarm()
		report := s.sweeper.CompactAll(ctx)
		s.runs.Add(1)
		if rerr := report.Err(); rerr != nil {
			s.logger.Warn("compaction sweep finished with failures", "run", report.RunID, "error", rerr)
		}
		s.publish(report)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *Scheduler) publish(r Report) {
	if s.reports == nil {
		return
	}
	select {
	case s.reports <- r:
	default:
		s.logger.Debug("compaction report dropped", "run", r.RunID)
	}
}

var _ worker.Worker = (*Scheduler)(nil)

// Package compaction collapses note fragment logs into single fragments,
// one note at a time or as a scheduled sweep over every note.
package compaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/quill/pkg/core"
)

// Squasher turns a note's ordered fragments into one equivalent fragment.
type Squasher interface {
	Squash(fragments [][]byte) ([]byte, error)
}

// Result describes the compaction of one note.
type Result struct {
	NoteID core.NoteID `json:"note_id"`
	Before int         `json:"before"`
	After  int         `json:"after"`
}

// Compacted reports whether fragments were actually collapsed.
func (r Result) Compacted() bool { return r.After < r.Before }

// Failure is a note the sweep could not compact.
type Failure struct {
	NoteID core.NoteID
	Err    error
}

// Report summarises one sweep.
type Report struct {
	RunID       string
	Started     time.Time
	Duration    time.Duration
	Candidates  int
	Compacted   []Result
	Failures    []Failure
	ListErr     error // candidate listing failed; nothing was compacted
	Interrupted bool  // the context ended before every candidate was visited
}

// Err joins every failure of the sweep, or returns nil.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Failures)+1)
	if r.ListErr != nil {
		errs = append(errs, fmt.Errorf("list candidates: %w", r.ListErr))
	}
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("note %d: %w", f.NoteID, f.Err))
	}
	return errors.Join(errs...)
}

// Removed is the number of fragments the sweep deleted.
func (r Report) Removed() int {
	n := 0
	for _, c := range r.Compacted {
		n += c.Before - c.After
	}
	return n
}

// String implements lifecycle.Event.
func (r Report) String() string {
	return fmt.Sprintf("compaction %s: %d/%d notes compacted, %d fragments removed, %d failed in %s",
		r.RunID, len(r.Compacted), r.Candidates, r.Removed(), len(r.Failures), r.Duration.Round(time.Millisecond))
}

// Compactor rewrites fragment logs through the store's lock.
type Compactor struct {
	store    core.FragmentStore
	squasher Squasher
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time

	mu     sync.Mutex
	last   *Report
	sweeps uint64
}

// Option configures a Compactor.
type Option func(*Compactor)

// WithLogger sets the logger. Nil keeps the discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compactor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records sweeps on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Compactor) {
		c.metrics = m
	}
}

// WithNow overrides the time source used to stamp reports.
func WithNow(now func() time.Time) Option {
	return func(c *Compactor) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Compactor over store, squashing with squasher.
func New(store core.FragmentStore, squasher Squasher, opts ...Option) *Compactor {
	c := &Compactor{
		store:    store,
		squasher: squasher,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompactOne collapses the note's fragments into one.
// Load, squash and replace run as a single critical section on the store, so no
// append can land between reading the log and swapping it. A note with at most
// one fragment is left untouched. On any error the stored log is unchanged.
func (c *Compactor) CompactOne(ctx context.Context, id core.NoteID) (Result, error) {
	if id <= 0 {
		return Result{}, fmt.Errorf("%w: note id %d", core.ErrInvalidInput, id)
	}

	res := Result{NoteID: id}
	err := c.store.Locked(ctx, func(log core.FragmentLog) error {
		fragments, err := log.LoadOrdered(ctx, id)
		if err != nil {
			return err
		}
		res.Before = len(fragments)
		res.After = len(fragments)
		if len(fragments) <= 1 {
			return nil
		}

		merged, err := c.squasher.Squash(fragments)
		if err != nil {
			return err
		}
		if err := log.ReplaceAll(ctx, id, merged, core.OriginCompaction); err != nil {
			return err
		}
		res.After = 1
		return nil
	})
	if err != nil {
		return Result{NoteID: id}, fmt.Errorf("compact note %d: %w", id, err)
	}

	c.metrics.compacted(res)
	if res.Compacted() {
		c.logger.Debug("note compacted", "note", id, "before", res.Before, "after", res.After)
	}
	return res, nil
}

// CompactAll sweeps every note holding two or more fragments.
// A failing note is recorded and skipped; the sweep never aborts on it.
// A cancelled context stops the sweep before the next note.
func (c *Compactor) CompactAll(ctx context.Context) (report Report) {
	report = Report{
		RunID:     uuid.NewString(),
		Started:   c.now(),
		Compacted: make([]Result, 0),
	}
	logger := c.logger.With("run", report.RunID)
	logger.Info("compaction sweep started")

	defer func() {
		report.Duration = c.now().Sub(report.Started)
		c.metrics.swept(report.Duration)
		c.record(report)
	}()

	ids, err := c.store.ListNoteIDsWithFragments(ctx, 2)
	if err != nil {
		report.ListErr = err
		c.metrics.failed()
		logger.Error("compaction sweep could not list notes", "error", err)
		return report
	}
	report.Candidates = len(ids)

	for i, id := range ids {
		if ctx.Err() != nil {
			report.Interrupted = true
			logger.Warn("compaction sweep interrupted", "remaining", len(ids)-i)
			break
		}

		res, err := c.CompactOne(ctx, id)
		if err != nil {
			report.Failures = append(report.Failures, Failure{NoteID: id, Err: err})
			c.metrics.failed()
			logger.Warn("note compaction failed", "note", id, "error", err)
			continue
		}
		if res.Compacted() {
			report.Compacted = append(report.Compacted, res)
		}
	}

	logger.Info("compaction sweep finished",
		"candidates", report.Candidates,
		"compacted", len(report.Compacted),
		"removed", report.Removed(),
		"failed", len(report.Failures))
	return report
}

func (c *Compactor) record(r Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &r
	c.sweeps++
}

// LastReport returns the most recent sweep report, if any.
func (c *Compactor) LastReport() (Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Report{}, false
	}
	return *c.last, true
}

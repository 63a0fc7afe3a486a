// Package runner drives one eta.Tracker from a stream of readings and
// publishes a run event for every report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antekone/gaeta/internal/feed"
	"github.com/antekone/gaeta/internal/progress"
	"github.com/antekone/gaeta/pkg/eta"
)

// ErrIncomplete is returned when the reading stream ends before the
// operation reports completion.
var ErrIncomplete = errors.New("feed ended before completion")

// Config wires a Runner to its collaborators.
type Config struct {
	// RunID identifies the run in events and logs.
	RunID uuid.UUID
	// Unit is the duration of one tracker time unit, used for display.
	Unit time.Duration
	// Emitter receives run events. Nil discards them.
	Emitter progress.Emitter
	// Logger is optional; nil disables logging.
	Logger *zap.Logger
	// Now is the wall clock for event timestamps (defaults to time.Now).
	Now func() time.Time
}

// Summary describes a finished run.
type Summary struct {
	RunID    uuid.UUID
	Updates  int
	Last     feed.Reading
	Final    eta.Snapshot
	Elapsed  time.Duration
	Complete bool
	Err      error
}

// Runner feeds readings into a tracker. It is driven by a single goroutine.
type Runner struct {
	tracker *eta.Tracker
	emitter progress.Emitter
	logger  *zap.Logger
	now     func() time.Time
	runID   uuid.UUID
	unit    time.Duration

	started time.Time
	updates int
	last    feed.Reading
}

// New constructs a Runner around tracker.
func New(tracker *eta.Tracker, cfg Config) *Runner {
	emitter := cfg.Emitter
	if emitter == nil {
		emitter = progress.EmitterFunc(func(progress.Event) {})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		tracker: tracker,
		emitter: emitter,
		logger:  logger.With(zap.String("run_id", cfg.RunID.String())),
		now:     now,
		runID:   cfg.RunID,
		unit:    cfg.Unit,
	}
}

// Run consumes items until the stream closes, a reading reports completion,
// an item carries an error, or ctx is done. The returned Summary is always
// populated; the error mirrors Summary.Err.
func (r *Runner) Run(ctx context.Context, items <-chan feed.Item) (Summary, error) {
	r.start()
	for {
		select {
		case <-ctx.Done():
			return r.fail(fmt.Errorf("run canceled: %w", ctx.Err()))
		case item, ok := <-items:
			if !ok {
				if r.last.Done() {
					return r.finish(), nil
				}
				return r.fail(ErrIncomplete)
			}
			if item.Err != nil {
				return r.fail(fmt.Errorf("read progress: %w", item.Err))
			}
			r.Observe(item.Reading)
			if item.Reading.Done() {
				return r.finish(), nil
			}
		}
	}
}

// Observe applies one reading to the tracker and emits an update event.
func (r *Runner) Observe(reading feed.Reading) eta.Snapshot {
	r.tracker.Update(reading.Current, reading.Max)
	r.updates++
	r.last = reading

	snap := r.tracker.Snapshot()
	r.emit(progress.StageRunUpdate, snap, "")
	return snap
}

func (r *Runner) start() {
	r.started = r.now()
	r.logger.Info("run started", zap.Duration("unit", r.unit))
	r.emit(progress.StageRunStart, r.tracker.Snapshot(), "")
}

func (r *Runner) finish() Summary {
	snap := r.tracker.Snapshot()
	r.emit(progress.StageRunDone, snap, "")
	s := r.summary(snap, nil)
	r.logger.Info("run completed",
		zap.Int("updates", s.Updates),
		zap.Duration("elapsed", s.Elapsed),
	)
	return s
}

func (r *Runner) fail(err error) (Summary, error) {
	snap := r.tracker.Snapshot()
	r.emit(progress.StageRunError, snap, err.Error())
	s := r.summary(snap, err)
	r.logger.Warn("run failed",
		zap.Error(err),
		zap.Int("updates", s.Updates),
		zap.Float64("progress", snap.Progress),
	)
	return s, err
}

func (r *Runner) summary(snap eta.Snapshot, err error) Summary {
	return Summary{
		RunID:    r.runID,
		Updates:  r.updates,
		Last:     r.last,
		Final:    snap,
		Elapsed:  r.now().Sub(r.started),
		Complete: err == nil,
		Err:      err,
	}
}

func (r *Runner) emit(stage progress.Stage, snap eta.Snapshot, note string) {
	now := r.now()
	evt := progress.Event{
		RunID:   progress.UUIDToBytes(r.runID),
		TS:      now.UTC(),
		Stage:   stage,
		Current: r.last.Current,
		Max:     r.last.Max,
		Unit:    r.unit,
		Dur:     now.Sub(r.started),
		Note:    note,
	}
	r.emitter.Emit(progress.FromSnapshot(evt, snap))
}

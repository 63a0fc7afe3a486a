package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antekone/gaeta/internal/progress"
	"github.com/antekone/gaeta/internal/store"
)

// StoreSink records run lifecycles and the latest estimate of each run in a
// store.RunRepository. Consecutive updates within a batch collapse into one
// write per run.
type StoreSink struct {
	repo   store.RunRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided repository.
func NewStoreSink(repo store.RunRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// pendingUpdate is the newest update of a run and how many updates it replaces.
type pendingUpdate struct {
	evt      progress.Event
	readings int64
}

// Consume applies the batch to the repository in order. Pending updates are
// written before any lifecycle event of the same run so a finished run keeps
// its final estimate.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	pending := make(map[uuid.UUID]pendingUpdate)

	for _, evt := range batch {
		runID := evt.RunUUID()
		switch evt.Stage {
		case progress.StageRunUpdate:
			p := pending[runID]
			pending[runID] = pendingUpdate{evt: evt, readings: p.readings + 1}
		case progress.StageRunStart, progress.StageRunDone, progress.StageRunError:
			if p, ok := pending[runID]; ok {
				if err := s.writeEstimate(ctx, runID, p.evt, p.readings); err != nil {
					return err
				}
				delete(pending, runID)
			}
			if err := s.handleRunEvent(ctx, runID, evt); err != nil {
				return err
			}
		}
	}

	for runID, p := range pending {
		if err := s.writeEstimate(ctx, runID, p.evt, p.readings); err != nil {
			return err
		}
	}
	return nil
}

func (s *StoreSink) writeEstimate(ctx context.Context, runID uuid.UUID, evt progress.Event, readings int64) error {
	est := store.Estimate{
		Current:   evt.Current,
		Max:       evt.Max,
		Progress:  evt.Progress,
		Speed:     evt.Speed,
		Remaining: evt.Remaining,
		Samples:   evt.Samples,
	}
	if err := s.repo.RecordEstimate(ctx, runID, evt.TS, est, readings); err != nil {
		return fmt.Errorf("record estimate: %w", err)
	}
	return nil
}

func (s *StoreSink) handleRunEvent(ctx context.Context, runID uuid.UUID, evt progress.Event) error {
	switch evt.Stage {
	case progress.StageRunStart:
		if err := s.repo.StartRun(ctx, runID, evt.TS); err != nil {
			return fmt.Errorf("start run: %w", err)
		}
	case progress.StageRunDone:
		// The final snapshot repeats the last update, so it adds no reading.
		if err := s.writeEstimate(ctx, runID, evt, 0); err != nil {
			return err
		}
		if err := s.repo.FinishRun(ctx, runID, evt.TS, store.RunDone, nil); err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
	case progress.StageRunError:
		note := evt.Note
		if err := s.repo.FinishRun(ctx, runID, finishedAt(evt), store.RunError, &note); err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
		s.logger.Debug("run recorded as failed", zap.String("run_id", runID.String()))
	}
	return nil
}

func finishedAt(evt progress.Event) time.Time {
	if evt.TS.IsZero() {
		return time.Now().UTC()
	}
	return evt.TS
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}

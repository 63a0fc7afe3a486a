// Package memory provides an in-process run repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antekone/gaeta/internal/store"
)

// RunStore keeps run records in memory for the life of the process.
type RunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]store.RunRecord
}

// NewRunStore constructs an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[uuid.UUID]store.RunRecord)}
}

// StartRun inserts a running record unless one already exists.
func (s *RunStore) StartRun(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; ok {
		return nil
	}
	s.runs[id] = store.RunRecord{
		ID:        id,
		StartedAt: startedAt,
		UpdatedAt: startedAt,
		Status:    store.RunRunning,
	}
	return nil
}

// RecordEstimate stores est as the latest estimate for the run and adds
// readings to its update count.
func (s *RunStore) RecordEstimate(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
	est store.Estimate,
	readings int64,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("record estimate: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[id]
	if !ok {
		rec = store.RunRecord{ID: id, StartedAt: at, Status: store.RunRunning}
	}
	rec.UpdatedAt = at
	rec.Updates += readings
	rec.Last = est
	s.runs[id] = rec
	return nil
}

// FinishRun marks the run terminal. Unknown runs return store.ErrNotFound.
func (s *RunStore) FinishRun(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
	status store.RunStatus,
	errMsg *string,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[id]
	if !ok {
		return store.ErrNotFound
	}
	finished := at
	rec.FinishedAt = &finished
	rec.UpdatedAt = at
	rec.Status = status
	if errMsg != nil {
		msg := *errMsg
		rec.ErrorMessage = &msg
	}
	s.runs[id] = rec
	return nil
}

// GetRun returns a copy of the run or store.ErrNotFound.
func (s *RunStore) GetRun(_ context.Context, id uuid.UUID) (store.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[id]
	if !ok {
		return store.RunRecord{}, store.ErrNotFound
	}
	return rec, nil
}

// ListRuns returns runs ordered by start time, newest first. A non-positive
// limit returns every remaining record.
func (s *RunStore) ListRuns(_ context.Context, status *store.RunStatus, limit, offset int) ([]store.RunRecord, error) {
	s.mu.RLock()
	out := make([]store.RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		if status != nil && rec.Status != *status {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []store.RunRecord{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

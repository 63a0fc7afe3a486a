package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested run does not exist.
var ErrNotFound = errors.New("run record not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunError   RunStatus = "error"
)

// Estimate is the tracker output recorded with each update.
type Estimate struct {
	Current   uint64
	Max       uint64
	Progress  float64
	Speed     float64
	Remaining int64
	Samples   int
}

// RunRecord describes one tracked operation.
type RunRecord struct {
	// ID identifies the run.
	ID uuid.UUID
	// StartedAt captures when the run was first seen.
	StartedAt time.Time
	// UpdatedAt is the time of the most recent estimate.
	UpdatedAt time.Time
	// FinishedAt is nil until the run is marked done or error.
	FinishedAt *time.Time
	// Status is running/done/error.
	Status RunStatus
	// Updates counts the progress readings the run has observed.
	Updates int64
	// Last is the most recent estimate.
	Last Estimate
	// ErrorMessage optionally stores the failure reason.
	ErrorMessage *string
}

// RunRepository records run lifecycles and their latest estimates.
type RunRepository interface {
	// StartRun inserts a running record, or leaves an existing one untouched.
	StartRun(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	// RecordEstimate stores the latest estimate, creating the run if needed.
	// readings is the number of progress readings est accounts for.
	RecordEstimate(ctx context.Context, id uuid.UUID, at time.Time, est Estimate, readings int64) error
	// FinishRun marks the run done or error.
	FinishRun(ctx context.Context, id uuid.UUID, at time.Time, status RunStatus, errMsg *string) error
	// GetRun loads a single run or returns ErrNotFound.
	GetRun(ctx context.Context, id uuid.UUID) (RunRecord, error)
	// ListRuns returns runs filtered by optional status, newest first.
	ListRuns(ctx context.Context, status *RunStatus, limit, offset int) ([]RunRecord, error)
}

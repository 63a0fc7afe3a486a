package progress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/antekone/gaeta/pkg/eta"
)

// Stage denotes the point in a run an Event was recorded at.
type Stage string

// Supported run stages.
const (
	StageRunStart  Stage = "RUN_START"
	StageRunUpdate Stage = "RUN_UPDATE"
	StageRunDone   Stage = "RUN_DONE"
	StageRunError  Stage = "RUN_ERROR"
)

// Event is a snapshot of one tracked operation.
type Event struct {
	// RunID identifies the run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the wall-clock time the event was recorded.
	TS time.Time
	// Stage marks the run lifecycle point.
	Stage Stage
	// Current and Max are the raw counters of the latest reading.
	Current uint64
	Max     uint64
	// Progress is the completion percentage computed by the tracker.
	Progress float64
	// Speed is the smoothed speed in percent per time unit.
	Speed float64
	// Remaining is the estimated time left in time source units.
	Remaining int64
	// Unit is the duration of one time source unit, when known.
	Unit time.Duration
	// Samples is the number of samples in the tracker window.
	Samples int
	// Dur is the wall time elapsed since the run started.
	Dur time.Duration
	// Note carries low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads. Numeric tracker
// outputs are not checked; NaN and infinite values are legitimate.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunUpdate, StageRunDone:
	case StageRunError:
		if e.Note == "" {
			return errors.New("run error requires note")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// MaxRemaining is what RemainingDuration reports when the estimate does not
// fit in a time.Duration.
const MaxRemaining = time.Duration(math.MaxInt64)

// RemainingDuration converts Remaining into a time.Duration using Unit. It
// returns 0 when the unit is unknown and saturates at MaxRemaining.
func (e Event) RemainingDuration() time.Duration {
	if e.Unit <= 0 || e.Remaining <= 0 {
		return 0
	}
	if e.Remaining > math.MaxInt64/int64(e.Unit) {
		return MaxRemaining
	}
	return time.Duration(e.Remaining) * e.Unit
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}

// FromSnapshot fills the tracker fields of an Event from snap.
func FromSnapshot(evt Event, snap eta.Snapshot) Event {
	evt.Progress = snap.Progress
	evt.Speed = snap.Speed
	evt.Remaining = snap.Remaining
	evt.Samples = snap.Samples
	return evt
}

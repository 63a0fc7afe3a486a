package progress

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/antekone/gaeta/pkg/eta"
)

// TestEventValidate covers the required fields and stage rules.
func TestEventValidate(t *testing.T) {
	t.Parallel()

	valid := sampleEvent(StageRunUpdate)
	require.NoError(t, valid.Validate())

	noID := valid
	noID.RunID = [16]byte{}
	require.Error(t, noID.Validate())

	noTS := valid
	noTS.TS = time.Time{}
	require.Error(t, noTS.Validate())

	unknown := valid
	unknown.Stage = "RUN_PAUSED"
	require.Error(t, unknown.Validate())

	silentErr := valid
	silentErr.Stage = StageRunError
	require.Error(t, silentErr.Validate())
	silentErr.Note = "feed line 3: bad"
	require.NoError(t, silentErr.Validate())

	negative := valid
	negative.Dur = -time.Second
	require.Error(t, negative.Validate())

	nan := valid
	nan.Progress = math.NaN()
	nan.Speed = math.Inf(1)
	require.NoError(t, nan.Validate())
}

// TestEventUUIDRoundTrip ensures the binary form maps back to the same UUID.
func TestEventUUIDRoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	evt := Event{RunID: UUIDToBytes(id)}
	require.Equal(t, id, evt.RunUUID())
}

// TestRemainingDuration converts units using the event's unit.
func TestRemainingDuration(t *testing.T) {
	t.Parallel()

	evt := Event{Remaining: 1500, Unit: time.Millisecond}
	require.Equal(t, 1500*time.Millisecond, evt.RemainingDuration())

	evt.Unit = 0
	require.Equal(t, time.Duration(0), evt.RemainingDuration())
}

// TestRemainingDurationSaturates keeps huge estimates from wrapping negative.
func TestRemainingDurationSaturates(t *testing.T) {
	t.Parallel()

	evt := Event{Remaining: 1099511627775000, Unit: time.Millisecond}
	require.Equal(t, MaxRemaining, evt.RemainingDuration())

	evt = Event{Remaining: math.MaxInt64 / int64(time.Second), Unit: time.Second}
	require.Equal(t, time.Duration(math.MaxInt64/int64(time.Second))*time.Second, evt.RemainingDuration())

	evt.Remaining++
	require.Equal(t, MaxRemaining, evt.RemainingDuration())
}

// TestFromSnapshot copies tracker outputs without touching identity fields.
func TestFromSnapshot(t *testing.T) {
	t.Parallel()

	base := sampleEvent(StageRunUpdate)
	evt := FromSnapshot(base, eta.Snapshot{Progress: 40, Speed: 2, Remaining: 30, Samples: 4, Started: true})
	require.Equal(t, base.RunID, evt.RunID)
	require.Equal(t, 40.0, evt.Progress)
	require.Equal(t, 2.0, evt.Speed)
	require.Equal(t, int64(30), evt.Remaining)
	require.Equal(t, 4, evt.Samples)
}

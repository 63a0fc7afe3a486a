package eta

import (
	"math"

	"github.com/gammazero/deque"
	"go.uber.org/zap"
)

// WindowSize is the number of recent samples averaged into the speed estimate.
const WindowSize = 10

// maxRemaining is the first float64 that no longer fits in an int64.
const maxRemaining = float64(math.MaxInt64)

// Sample is one recorded progress report.
type Sample struct {
	// Timestamp is the time source reading taken when the sample was recorded.
	Timestamp uint64
	// Progress is the completion percentage at Timestamp.
	Progress float64
}

// Snapshot is a point-in-time copy of a tracker's outputs.
type Snapshot struct {
	Progress  float64
	Speed     float64
	Remaining int64
	Samples   int
	Started   bool
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithLogger attaches a logger used for debug output. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Tracker estimates speed and remaining time for a single operation.
type Tracker struct {
	source TimeSource
	logger *zap.Logger

	started        bool
	firstTimestamp uint64
	firstProgress  float64

	currentProgress float64
	currentSpeed    float64

	samples deque.Deque[Sample]
}

// New returns a Tracker that reads time from source.
func New(source TimeSource, opts ...Option) *Tracker {
	t := &Tracker{
		source: source,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Update records a progress report. cur and total are in caller-defined
// units; the operation is complete when cur equals total. No validation is
// done, so a zero total yields a NaN or infinite percentage.
//
// The first call fixes the reference timestamp and percentage every later
// speed is measured from. A report is not added to the window when the newest
// sample's absolute percentage equals this report's percentage relative to the
// first report. With an empty window the newest percentage counts as 0, so the
// first report itself is never stored.
func (t *Tracker) Update(cur, total uint64) {
	if !t.started {
		t.firstTimestamp = t.source.Timestamp()
	}

	progress := percent(cur, total)
	t.currentProgress = progress

	if !t.started {
		t.firstProgress = progress
		t.started = true
	}

	ts := t.source.Timestamp()

	var last float64
	if t.samples.Len() > 0 {
		last = t.samples.Back().Progress
	}
	if last == progress-t.firstProgress {
		t.logger.Debug("progress sample suppressed",
			zap.Uint64("timestamp", ts),
			zap.Float64("progress", progress),
		)
		return
	}

	if t.samples.Len() >= WindowSize {
		evicted := t.samples.PopFront()
		t.logger.Debug("progress sample evicted",
			zap.Uint64("timestamp", evicted.Timestamp),
			zap.Float64("progress", evicted.Progress),
		)
	}
	t.samples.PushBack(Sample{Timestamp: ts, Progress: progress})

	t.currentSpeed = t.calcSpeed()
}

// calcSpeed averages the speed of every sample in the window, each measured
// from the first report. A zero elapsed time is treated as one unit.
func (t *Tracker) calcSpeed() float64 {
	n := t.samples.Len()
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		s := t.samples.At(i)
		elapsed := s.Timestamp - t.firstTimestamp
		if elapsed == 0 {
			elapsed = 1
		}
		sum += (s.Progress - t.firstProgress) / float64(elapsed)
	}
	return sum / float64(n)
}

// Speed returns the current speed in percent per time unit.
func (t *Tracker) Speed() float64 {
	return t.currentSpeed
}

// Progress returns the percentage computed by the most recent Update.
func (t *Tracker) Progress() float64 {
	return t.currentProgress
}

// Started reports whether Update has been called at least once.
func (t *Tracker) Started() bool {
	return t.started
}

// RemainingTime returns the estimated time left, in time source units. It is
// 0 before the first Update and whenever the estimate is negative, undefined
// or too large to represent.
func (t *Tracker) RemainingTime() int64 {
	if !t.started {
		return 0
	}

	remaining := 100 - (t.currentProgress - t.firstProgress)
	eta := remaining / t.currentSpeed
	if eta >= 0 && eta < maxRemaining {
		return int64(eta)
	}
	return 0
}

// Samples returns a copy of the sample window, oldest first.
func (t *Tracker) Samples() []Sample {
	out := make([]Sample, t.samples.Len())
	for i := range out {
		out[i] = t.samples.At(i)
	}
	return out
}

// Snapshot captures the current outputs in one value.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Progress:  t.currentProgress,
		Speed:     t.currentSpeed,
		Remaining: t.RemainingTime(),
		Samples:   t.samples.Len(),
		Started:   t.started,
	}
}

// TimeSource returns the time source the tracker reads from.
func (t *Tracker) TimeSource() TimeSource {
	return t.source
}

// SetTimeSource replaces the time source. The reference timestamp taken by
// the first Update is kept, so the new source must use the same unit.
func (t *Tracker) SetTimeSource(source TimeSource) {
	t.source = source
}

func percent(cur, total uint64) float64 {
	return float64(cur) * 100 / float64(total)
}

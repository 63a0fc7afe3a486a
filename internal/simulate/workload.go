// Package simulate produces synthetic progress readings for exercising a
// tracker against the real clock.
package simulate

import (
	"context"
	"errors"
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/antekone/gaeta/internal/feed"
)

// Workload describes a synthetic operation that advances by roughly Step
// units every Interval until it reaches Total.
type Workload struct {
	Total    uint64
	Step     uint64
	Interval time.Duration
	// Jitter scales each step by a uniform factor in [1-Jitter, 1+Jitter].
	Jitter float64
	// Seed makes the jitter sequence reproducible.
	Seed uint64
}

// Validate checks the workload parameters.
func (w Workload) Validate() error {
	if w.Total == 0 {
		return errors.New("workload total must be > 0")
	}
	if w.Step == 0 {
		return errors.New("workload step must be > 0")
	}
	if w.Interval <= 0 {
		return errors.New("workload interval must be > 0")
	}
	if w.Jitter < 0 || w.Jitter >= 1 {
		return errors.New("workload jitter must be in [0, 1)")
	}
	return nil
}

// Counters yields the counters the workload reports, starting at 0 and ending
// at Total. Values are produced on demand and never exceed Total.
func (w Workload) Counters() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		rng := rand.New(rand.NewPCG(w.Seed, w.Seed^0x9e3779b97f4a7c15))
		var cur uint64
		if !yield(cur) {
			return
		}
		for cur < w.Total {
			if delta := w.advance(rng); w.Total-cur <= delta {
				cur = w.Total
			} else {
				cur += delta
			}
			if !yield(cur) {
				return
			}
		}
	}
}

// Steps collects Counters into a slice. It does not sleep.
func (w Workload) Steps() []uint64 {
	return slices.Collect(w.Counters())
}

func (w Workload) advance(rng *rand.Rand) uint64 {
	factor := 1.0
	if w.Jitter > 0 {
		factor += w.Jitter * (2*rng.Float64() - 1)
	}
	scaled := float64(w.Step) * factor
	if scaled >= math.MaxUint64 {
		return math.MaxUint64
	}
	if delta := uint64(scaled); delta > 0 {
		return delta
	}
	return 1
}

// Stream emits the workload's readings on the returned channel, one per
// Interval. The first reading is sent immediately. The channel closes after
// the final reading or when ctx is done.
func (w Workload) Stream(ctx context.Context) <-chan feed.Item {
	out := make(chan feed.Item)
	go func() {
		defer close(out)
		if err := w.Validate(); err != nil {
			select {
			case out <- feed.Item{Err: err}:
			case <-ctx.Done():
			}
			return
		}

		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		first := true
		for cur := range w.Counters() {
			if !first {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				}
			}
			first = false
			select {
			case out <- feed.Item{Reading: feed.Reading{Current: cur, Max: w.Total}}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

package eta_test

import (
	"fmt"

	"github.com/antekone/gaeta/pkg/eta"
)

// ExampleTracker feeds evenly spaced reports and prints the estimate.
func ExampleTracker() {
	timer := eta.NewManualTimer()
	tracker := eta.New(timer)

	for step := uint64(0); step < 10; step++ {
		timer.SetTimestamp(step * 10)
		tracker.Update(step*10, 100)
	}

	fmt.Printf("speed: %.1f%%/unit\n", tracker.Speed())
	fmt.Printf("remaining: %d units\n", tracker.RemainingTime())
	// Output:
	// speed: 1.0%/unit
	// remaining: 10 units
}

// ExampleTimeSourceFunc adapts a closure into a time source.
func ExampleTimeSourceFunc() {
	var now uint64
	tracker := eta.New(eta.TimeSourceFunc(func() uint64 { return now }))

	tracker.Update(0, 4)
	now = 100
	tracker.Update(1, 4)

	fmt.Println(tracker.RemainingTime())
	// Output:
	// 300
}

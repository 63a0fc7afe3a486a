// Package eta estimates throughput and remaining time for a long-running
// operation from periodic progress reports.
//
// A Tracker keeps a small window of recent (timestamp, percentage) samples
// and averages the per-sample speed measured from the first report. Time is
// read from a caller-supplied TimeSource, so the unit of every result (speed
// in percent per unit, remaining time in units) is whatever that source
// returns. The package never reads the wall clock itself.
//
// # Usage
//
//	timer := eta.NewManualTimer()
//	tracker := eta.New(timer)
//
//	for done := uint64(0); done < total; done += step {
//	    timer.SetTimestamp(now())
//	    tracker.Update(done, total)
//	    fmt.Println(tracker.Speed(), tracker.RemainingTime())
//	}
//
// A Tracker follows exactly one operation and is not safe for concurrent use.
package eta

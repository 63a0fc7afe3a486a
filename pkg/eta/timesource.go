package eta

// TimeSource supplies the current time to a Tracker. The unit is chosen by
// the implementation and must stay the same for the lifetime of a tracker.
// Values are expected to be non-decreasing; the tracker does not check.
type TimeSource interface {
	Timestamp() uint64
}

// TimeSourceFunc adapts an ordinary function to the TimeSource interface.
type TimeSourceFunc func() uint64

// Timestamp calls f.
func (f TimeSourceFunc) Timestamp() uint64 {
	return f()
}

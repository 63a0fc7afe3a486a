package eta

// ManualTimer is a TimeSource whose value is set explicitly. It lets tests
// simulate the passage of time deterministically.
type ManualTimer struct {
	ts uint64
}

// NewManualTimer returns a ManualTimer starting at zero.
func NewManualTimer() *ManualTimer {
	return &ManualTimer{}
}

// SetTimestamp sets the value returned by Timestamp.
func (m *ManualTimer) SetTimestamp(ts uint64) {
	m.ts = ts
}

// Advance moves the timer forward by delta units.
func (m *ManualTimer) Advance(delta uint64) {
	m.ts += delta
}

// Timestamp returns the value last stored by SetTimestamp or Advance.
func (m *ManualTimer) Timestamp() uint64 {
	return m.ts
}

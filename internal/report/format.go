package report

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration formats a duration as a human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// JSONFloat returns nil for values encoding/json rejects, so undefined
// estimates encode as null.
func JSONFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FormatPercent renders a completion percentage. Undefined values from a zero
// total print as "n/a".
func FormatPercent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", p)
}

// FormatSpeed renders a speed given in percent per time unit. With a known
// unit it is converted to percent per second; otherwise it stays per unit.
func FormatSpeed(speed float64, unit time.Duration) string {
	if unit > 0 {
		speed /= unit.Seconds()
	}
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return "n/a"
	}
	if unit <= 0 {
		return fmt.Sprintf("%.2f%%/unit", speed)
	}
	return fmt.Sprintf("%.2f%%/s", speed)
}

package automation

import "aquastream/internal/models"

// EdgeDetector reports leak and overflow transitions. Both flags start false,
// so a device that boots with a leak reports leak_detected on the first poll.
// It is not safe for concurrent use; the controller calls it under its tick lock.
type EdgeDetector struct {
	leak     bool
	overflow bool
}

// Observe compares a against the last seen flags and returns the transitions,
// leak before overflow. Steady state returns nil.
func (d *EdgeDetector) Observe(a models.ActuatorState) []models.EventType {
	var out []models.EventType
	if a.Leak != d.leak {
		out = append(out, edge(a.Leak, models.EventLeakDetected, models.EventLeakCleared))
		d.leak = a.Leak
	}
	if a.Overflow != d.overflow {
		out = append(out, edge(a.Overflow, models.EventOverflowDetected, models.EventOverflowCleared))
		d.overflow = a.Overflow
	}
	return out
}

func edge(now bool, rising, falling models.EventType) models.EventType {
	if now {
		return rising
	}
	return falling
}

// Package automation runs the aquarium control loop: it polls the device,
// turns leak/overflow flags into edge events, evaluates the water-change and
// feeder rules and dispatches timed actuator commands.
package automation

import (
	"sync"
	"time"

	"aquastream/internal/models"
)

// Tracker holds the shared telemetry snapshot behind an RWMutex.
// Only confirmed device reads (ApplyPoll) and confirmed writes (ApplyCommand) mutate it.
type Tracker struct {
	mu   sync.RWMutex
	snap models.Telemetry
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Snapshot returns a point-in-time copy.
func (t *Tracker) Snapshot() models.Telemetry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// ApplyPoll replaces reading and actuator state with a freshly fetched status.
func (t *Tracker) ApplyPoll(r models.SensorReading, a models.ActuatorState, at time.Time) {
	t.mu.Lock()
	t.snap.Reading = r
	t.snap.Actuators = a
	t.snap.Online = true
	t.snap.LastPollAt = at
	t.snap.LastError = ""
	t.snap.UpdatedAt = at
	t.mu.Unlock()
}

// ApplyCommand records a write the device acknowledged.
func (t *Tracker) ApplyCommand(cmd models.Command, on bool, at time.Time) {
	t.mu.Lock()
	cmd.Apply(&t.snap.Actuators, on)
	t.snap.UpdatedAt = at
	t.mu.Unlock()
}

// MarkPollFailed flags the device offline. Reading and actuators keep their last known values.
func (t *Tracker) MarkPollFailed(err error, at time.Time) {
	t.mu.Lock()
	t.snap.Online = false
	if err != nil {
		t.snap.LastError = err.Error()
	}
	t.snap.UpdatedAt = at
	t.mu.Unlock()
}

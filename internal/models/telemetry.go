package models

import "time"

// SensorReading is one poll's worth of water parameters.
// A metric value of exactly 0 means the device reported no data for it.
type SensorReading struct {
	Temperature float64   `json:"temperature"` // °C
	PH          float64   `json:"ph"`
	TDS         float64   `json:"tds"` // ppm
	Timestamp   time.Time `json:"timestamp"`
}

// HasData reports whether at least one metric carries a real value.
func (r SensorReading) HasData() bool {
	return r.Temperature != 0 || r.PH != 0 || r.TDS != 0
}

// ActuatorState mirrors the last confirmed state of the device outputs and float switches.
type ActuatorState struct {
	PumpIn   bool `json:"pump_in"`
	PumpOut  bool `json:"pump_out"`
	Feeder   bool `json:"feeder"`
	Leak     bool `json:"leak"`
	Overflow bool `json:"overflow"`
}

// PumpsIdle reports whether neither pump is running.
func (a ActuatorState) PumpsIdle() bool {
	return !a.PumpIn && !a.PumpOut
}

// Telemetry is the shared in-memory snapshot served to the dashboard.
type Telemetry struct {
	Reading    SensorReading `json:"reading"`
	Actuators  ActuatorState `json:"actuators"`
	Online     bool          `json:"online"`                 // last poll succeeded
	LastPollAt time.Time     `json:"last_poll_at,omitempty"` // last successful poll
	LastError  string        `json:"last_error,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

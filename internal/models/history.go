package models

import "time"

// EventType tags a HistoryEvent.
type EventType string

const (
	EventAutoWaterChange     EventType = "auto_water_change"
	EventAutoFeederTriggered EventType = "auto_feeder_triggered"

	EventManualPumpInOn      EventType = "manual_pump_in_on"
	EventManualPumpInOff     EventType = "manual_pump_in_off"
	EventManualPumpOutOn     EventType = "manual_pump_out_on"
	EventManualPumpOutOff    EventType = "manual_pump_out_off"
	EventManualMasterPumpOn  EventType = "manual_master_pump_on"
	EventManualMasterPumpOff EventType = "manual_master_pump_off"
	EventManualFeederOn      EventType = "manual_feeder_on"
	EventManualFeederOff     EventType = "manual_feeder_off"

	EventLeakDetected        EventType = "leak_detected"
	EventLeakCleared         EventType = "leak_cleared"
	EventOverflowDetected    EventType = "overflow_detected"
	EventOverflowCleared     EventType = "overflow_cleared"
	EventOverflowPumpStopped EventType = "overflow_pump_stopped"
)

// Metric names a water parameter that can trigger automation.
type Metric string

const (
	MetricTemp Metric = "temp"
	MetricPH   Metric = "ph"
	MetricTDS  Metric = "tds"
)

// Capacity limits of the two history logs.
const (
	MaxAutomationHistory = 100
	MaxSensorHistory     = 20
)

// HistoryEvent is one entry of the automation/manual event log.
type HistoryEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	PH        *float64  `json:"ph,omitempty"`
	Temp      *float64  `json:"temp,omitempty"`
	TDS       *float64  `json:"tds,omitempty"`
	Duration  *int      `json:"duration,omitempty"` // seconds
	Trigger   Metric    `json:"trigger,omitempty"`
}

// SensorHistoryEntry is one throttled snapshot of the water parameters.
type SensorHistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Temp      float64   `json:"temp"`
	PH        float64   `json:"ph"`
	TDS       float64   `json:"tds"`
}

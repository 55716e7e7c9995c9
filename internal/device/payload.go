package device

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"aquastream/internal/models"
)

// parseStatus maps the device JSON onto the domain types. The firmware sends
// every field as a string; numbers and booleans are accepted too. Anything
// missing or unparsable becomes 0 / false rather than failing the poll.
func parseStatus(raw map[string]any) (models.SensorReading, models.ActuatorState) {
	reading := models.SensorReading{
		Temperature: toFloat(raw["temp"]),
		PH:          toFloat(raw["ph"]),
		TDS:         toFloat(raw["tds"]),
	}

	act := models.ActuatorState{
		PumpIn:   toFlag(raw["pump_in"]),
		PumpOut:  toFlag(raw["pump_out"]),
		Feeder:   toFlag(raw["feeder"]),
		Leak:     toFlag(raw["leak"]),
		Overflow: toFlag(raw["overflow"]),
	}

	// older firmware reports a single "pump" flag for both directions
	_, hasIn := raw["pump_in"]
	_, hasOut := raw["pump_out"]
	if legacy, ok := raw["pump"]; ok && !hasIn && !hasOut {
		act.PumpIn = toFlag(legacy)
		act.PumpOut = act.PumpIn
	}
	return reading, act
}

func toFloat(v any) float64 {
	var f float64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0
		}
		f = n
	case float64:
		f = x
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toFlag(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case json.Number:
		return x.String() == "1"
	case float64:
		return x == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		return s == "1" || s == "true"
	}
	return false
}

package models

import "time"

// AutomationSettings configures the rule engine. JSON keys match the persisted blob.
type AutomationSettings struct {
	Enabled             bool    `json:"enabled"`
	PHMin               float64 `json:"phMin"`
	PHMax               float64 `json:"phMax"`
	TempMin             float64 `json:"tempMin"`
	TempMax             float64 `json:"tempMax"`
	TDSMin              float64 `json:"tdsMin"`
	TDSMax              float64 `json:"tdsMax"`
	WaterChangeDuration int     `json:"waterChangeDuration"` // seconds, 30-300
	CooldownPeriod      int     `json:"cooldownPeriod"`      // minutes, 5-1440
	FeederEnabled       bool    `json:"feederEnabled"`
	FeederIntervalHours int     `json:"feederIntervalHours"` // 1-72
}

// DefaultAutomationSettings returns the built-in defaults.
func DefaultAutomationSettings() AutomationSettings {
	return AutomationSettings{
		Enabled:             true,
		PHMin:               6.5,
		PHMax:               7.5,
		TempMin:             24,
		TempMax:             28,
		TDSMin:              150,
		TDSMax:              400,
		WaterChangeDuration: 60,
		CooldownPeriod:      60,
		FeederEnabled:       true,
		FeederIntervalHours: 24,
	}
}

func (s AutomationSettings) WaterChange() time.Duration {
	return time.Duration(s.WaterChangeDuration) * time.Second
}

func (s AutomationSettings) Cooldown() time.Duration {
	return time.Duration(s.CooldownPeriod) * time.Minute
}

func (s AutomationSettings) FeederInterval() time.Duration {
	return time.Duration(s.FeederIntervalHours) * time.Hour
}

// DeviceSettings holds the base URLs of the controller and the camera.
type DeviceSettings struct {
	ESP32URL  string `json:"esp32Url"`
	CameraURL string `json:"cameraUrl"`
}

func DefaultDeviceSettings() DeviceSettings {
	return DeviceSettings{
		ESP32URL:  "http://192.168.1.150",
		CameraURL: "http://192.168.1.151",
	}
}

// AutomationState holds the rule engine's clocks. A zero time means the rule never fired.
type AutomationState struct {
	LastActivation time.Time `json:"last_activation"`
	LastFeeding    time.Time `json:"last_feeding"`
}

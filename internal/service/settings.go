package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"aquastream/internal/logger"
	"aquastream/internal/models"
	"aquastream/internal/repository"
)

// Storage keys of the settings blobs.
const (
	automationSettingsKey = "automation_settings"
	deviceSettingsKey     = "device_settings"
	automationStateKey    = "automation_state"
)

// ErrInvalidSettings wraps every validation failure of a settings update.
var ErrInvalidSettings = errors.New("invalid settings")

type pinger interface {
	Ping(ctx context.Context) error
	PingURL(ctx context.Context, baseURL string) error
}

// SettingsService stores settings as JSON blobs. Loading merges the stored
// blob over the defaults, so fields added later fall back to their default.
type SettingsService struct {
	repo   repository.SettingsRepo
	log    *logger.Logger
	pinger pinger
}

func NewSettingsService(repo repository.SettingsRepo, log *logger.Logger) *SettingsService {
	return &SettingsService{repo: repo, log: log}
}

func (s *SettingsService) GetAutomationSettings(ctx context.Context) (models.AutomationSettings, error) {
	out := models.DefaultAutomationSettings()
	if err := s.load(ctx, automationSettingsKey, &out); err != nil {
		return models.AutomationSettings{}, err
	}
	return out, nil
}

// AutomationSettings lets the controller read settings once per tick.
func (s *SettingsService) AutomationSettings(ctx context.Context) (models.AutomationSettings, error) {
	return s.GetAutomationSettings(ctx)
}

func (s *SettingsService) UpdateAutomationSettings(ctx context.Context, in models.AutomationSettings) (models.AutomationSettings, error) {
	if err := ValidateAutomationSettings(in); err != nil {
		return models.AutomationSettings{}, err
	}
	if err := s.save(ctx, automationSettingsKey, in); err != nil {
		return models.AutomationSettings{}, err
	}
	s.log.Infow("automation_settings_updated", "enabled", in.Enabled, "feeder_enabled", in.FeederEnabled)
	return in, nil
}

func (s *SettingsService) ResetAutomationSettings(ctx context.Context) (models.AutomationSettings, error) {
	if err := s.repo.Delete(ctx, automationSettingsKey); err != nil {
		return models.AutomationSettings{}, err
	}
	s.log.Infow("automation_settings_reset")
	return models.DefaultAutomationSettings(), nil
}

func (s *SettingsService) GetDeviceSettings(ctx context.Context) (models.DeviceSettings, error) {
	out := models.DefaultDeviceSettings()
	if err := s.load(ctx, deviceSettingsKey, &out); err != nil {
		return models.DeviceSettings{}, err
	}
	return out, nil
}

func (s *SettingsService) UpdateDeviceSettings(ctx context.Context, in models.DeviceSettings) (models.DeviceSettings, error) {
	if err := ValidateDeviceSettings(in); err != nil {
		return models.DeviceSettings{}, err
	}
	if err := s.save(ctx, deviceSettingsKey, in); err != nil {
		return models.DeviceSettings{}, err
	}
	s.log.Infow("device_settings_updated", "esp32_url", in.ESP32URL, "camera_url", in.CameraURL)
	return in, nil
}

func (s *SettingsService) ResetDeviceSettings(ctx context.Context) (models.DeviceSettings, error) {
	if err := s.repo.Delete(ctx, deviceSettingsKey); err != nil {
		return models.DeviceSettings{}, err
	}
	s.log.Infow("device_settings_reset")
	return models.DefaultDeviceSettings(), nil
}

// DeviceBaseURL resolves the controller URL for the device client on every request.
func (s *SettingsService) DeviceBaseURL(ctx context.Context) (string, error) {
	ds, err := s.GetDeviceSettings(ctx)
	if err != nil {
		return "", err
	}
	return ds.ESP32URL, nil
}

func (s *SettingsService) TestDeviceConnection(ctx context.Context, baseURL string) error {
	if s.pinger == nil {
		return errors.New("device client not configured")
	}
	if baseURL == "" {
		return s.pinger.Ping(ctx)
	}
	if err := validateURL("esp32Url", baseURL); err != nil {
		return err
	}
	return s.pinger.PingURL(ctx, baseURL)
}

// LoadAutomationState returns the persisted rule clocks, zero when never saved.
func (s *SettingsService) LoadAutomationState(ctx context.Context) (models.AutomationState, error) {
	var st models.AutomationState
	if err := s.load(ctx, automationStateKey, &st); err != nil {
		return models.AutomationState{}, err
	}
	return st, nil
}

func (s *SettingsService) SaveAutomationState(ctx context.Context, st models.AutomationState) error {
	st.LastActivation = toUTC(st.LastActivation)
	st.LastFeeding = toUTC(st.LastFeeding)
	return s.save(ctx, automationStateKey, st)
}

// load decodes the blob under key over dst. A missing key leaves dst as is;
// a corrupt blob is logged and ignored so the defaults stay in effect.
func (s *SettingsService) load(ctx context.Context, key string, dst any) error {
	blob, err := s.repo.Get(ctx, key)
	if err != nil {
		return err
	}
	if blob == nil {
		return nil
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		s.log.Warnw("settings_blob_corrupt", "key", key, "err", err)
	}
	return nil
}

func (s *SettingsService) save(ctx context.Context, key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.repo.Put(ctx, key, blob)
}

// ValidateAutomationSettings reports every out-of-bounds field, each wrapping ErrInvalidSettings.
func ValidateAutomationSettings(s models.AutomationSettings) error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSettings}, args...)...))
		}
	}
	check(s.WaterChangeDuration >= 30 && s.WaterChangeDuration <= 300,
		"waterChangeDuration must be 30-300 seconds, got %d", s.WaterChangeDuration)
	check(s.CooldownPeriod >= 5 && s.CooldownPeriod <= 1440,
		"cooldownPeriod must be 5-1440 minutes, got %d", s.CooldownPeriod)
	check(s.FeederIntervalHours >= 1 && s.FeederIntervalHours <= 72,
		"feederIntervalHours must be 1-72 hours, got %d", s.FeederIntervalHours)
	check(s.PHMin >= 0 && s.PHMax <= 14 && s.PHMin <= s.PHMax,
		"phMin/phMax must satisfy 0 <= phMin <= phMax <= 14, got %g/%g", s.PHMin, s.PHMax)
	check(s.TempMin <= s.TempMax,
		"tempMin must not exceed tempMax, got %g/%g", s.TempMin, s.TempMax)
	check(s.TDSMin >= 0 && s.TDSMin <= s.TDSMax,
		"tdsMin/tdsMax must satisfy 0 <= tdsMin <= tdsMax, got %g/%g", s.TDSMin, s.TDSMax)
	return errors.Join(errs...)
}

// ValidateDeviceSettings requires an absolute http(s) controller URL; the camera URL may be empty.
func ValidateDeviceSettings(s models.DeviceSettings) error {
	var errs []error
	if err := validateURL("esp32Url", s.ESP32URL); err != nil {
		errs = append(errs, err)
	}
	if s.CameraURL != "" {
		if err := validateURL("cameraUrl", s.CameraURL); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", ErrInvalidSettings, field, raw)
	}
	return nil
}

package service

import (
	"context"
	"time"

	"aquastream/internal/automation"
	"aquastream/internal/config"
	"aquastream/internal/device"
	"aquastream/internal/logger"
	"aquastream/internal/models"
	"aquastream/internal/notify"
	"aquastream/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

// Settings reads and writes the automation and device settings.
type Settings interface {
	GetAutomationSettings(ctx context.Context) (models.AutomationSettings, error)
	UpdateAutomationSettings(ctx context.Context, s models.AutomationSettings) (models.AutomationSettings, error)
	ResetAutomationSettings(ctx context.Context) (models.AutomationSettings, error)
	GetDeviceSettings(ctx context.Context) (models.DeviceSettings, error)
	UpdateDeviceSettings(ctx context.Context, s models.DeviceSettings) (models.DeviceSettings, error)
	ResetDeviceSettings(ctx context.Context) (models.DeviceSettings, error)
	// TestDeviceConnection pings baseURL, or the saved device URL when empty.
	TestDeviceConnection(ctx context.Context, baseURL string) error
}

// History exposes the two bounded logs.
type History interface {
	ListEvents(ctx context.Context, f EventFilter) ([]models.HistoryEvent, error)
	ClearEvents(ctx context.Context) error
	ListSensors(ctx context.Context) ([]models.SensorHistoryEntry, error)
	ClearSensors(ctx context.Context) error
}

// Control issues manual actuator commands and on-demand polls.
type Control interface {
	SetActuator(ctx context.Context, cmd models.Command, on bool) (automation.Ack, error)
	Refresh(ctx context.Context) (models.Telemetry, error)
}

// Monitoring exposes the live snapshot and rule engine status.
type Monitoring interface {
	GetState(ctx context.Context) (State, error)
	AutomationStatus(ctx context.Context) (automation.Status, error)
}

// Loop is the background control loop. Stop via Stop() in main() for graceful shutdown.
type Loop interface {
	Start(ctx context.Context) error
	Stop()
}

type Service struct {
	Settings
	History
	Control
	Monitoring
	Loop
	Authorization
}

// Deps carries what NewService needs beyond the repositories.
// Publisher, Observer and Scheduler may be nil.
type Deps struct {
	Config    *config.Config
	Publisher notify.Publisher
	Observer  automation.Observer
	Scheduler automation.Scheduler
	Logger    *logger.Logger
}

// NewService wires the repositories, the device client and the control loop
// into the concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	pub := d.Publisher
	if pub == nil {
		pub = notify.NopPublisher{}
	}
	cfg := d.Config

	settings := NewSettingsService(repos.Settings, log.Named("settings"))
	history := NewHistoryService(repos.Events, repos.Sensors, pub, cfg.Automation.SensorThrottle, log.Named("history"))

	client := device.NewClient(settings, cfg.Device.StatusPath, cfg.Device.Timeout)
	settings.pinger = client

	tracker := automation.NewTracker()
	dispatcher := automation.NewDispatcher(client, tracker, d.Scheduler, d.Observer, log.Named("dispatcher"))
	controller := automation.NewController(automation.Deps{
		Device:      client,
		Settings:    settings,
		Store:       settings,
		Recorder:    history,
		Dispatcher:  dispatcher,
		Tracker:     tracker,
		Observer:    d.Observer,
		Logger:      log.Named("controller"),
		FeederPulse: cfg.Automation.FeederPulse,
	})
	poller := automation.NewPoller(controller, dispatcher, cfg.Automation.PollInterval, log.Named("poller"))

	return &Service{
		Settings:      settings,
		History:       history,
		Control:       NewControlService(dispatcher, poller, tracker, history, log.Named("control")),
		Monitoring:    NewMonitoringService(tracker, dispatcher, controller),
		Loop:          NewLoopService(controller, poller, log.Named("loop")),
		Authorization: NewAuthService(repos.Auth, cfg.Auth.SigningKey, cfg.Auth.TokenTTL),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aquastream/internal/logger"
	"aquastream/internal/models"
)

// ErrTickInFlight is returned when a tick starts while another is still running.
var ErrTickInFlight = errors.New("poll already in flight")

// StatusSource reads device telemetry.
type StatusSource interface {
	FetchStatus(ctx context.Context) (models.SensorReading, models.ActuatorState, error)
}

// SettingsSource provides the automation settings, defaults merged in.
type SettingsSource interface {
	AutomationSettings(ctx context.Context) (models.AutomationSettings, error)
}

// StateStore persists the rule clocks across restarts.
type StateStore interface {
	LoadAutomationState(ctx context.Context) (models.AutomationState, error)
	SaveAutomationState(ctx context.Context, st models.AutomationState) error
}

// Recorder appends to the history logs.
type Recorder interface {
	RecordEvent(ctx context.Context, e models.HistoryEvent) error
	RecordReading(ctx context.Context, r models.SensorReading) error
}

// Deps wires a Controller. Observer, Logger, Now and FeederPulse are optional.
type Deps struct {
	Device      StatusSource
	Settings    SettingsSource
	Store       StateStore
	Recorder    Recorder
	Dispatcher  *Dispatcher
	Tracker     *Tracker
	Observer    Observer
	Logger      *logger.Logger
	Now         func() time.Time
	FeederPulse time.Duration
}

const defaultFeederPulse = 2 * time.Second

// Controller runs one control-loop tick at a time.
type Controller struct {
	device      StatusSource
	settings    SettingsSource
	store       StateStore
	recorder    Recorder
	dispatcher  *Dispatcher
	tracker     *Tracker
	obs         Observer
	log         *logger.Logger
	now         func() time.Time
	feederPulse time.Duration

	tickMu sync.Mutex
	edges  EdgeDetector

	stateMu sync.RWMutex
	state   models.AutomationState
}

func NewController(d Deps) *Controller {
	c := &Controller{
		device:      d.Device,
		settings:    d.Settings,
		store:       d.Store,
		recorder:    d.Recorder,
		dispatcher:  d.Dispatcher,
		tracker:     d.Tracker,
		obs:         d.Observer,
		log:         d.Logger,
		now:         d.Now,
		feederPulse: d.FeederPulse,
	}
	if c.obs == nil {
		c.obs = NopObserver{}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.feederPulse <= 0 {
		c.feederPulse = defaultFeederPulse
	}
	return c
}

// Restore loads the persisted rule clocks. Call once before the first tick.
func (c *Controller) Restore(ctx context.Context) error {
	st, err := c.store.LoadAutomationState(ctx)
	if err != nil {
		return fmt.Errorf("load automation state: %w", err)
	}
	c.stateMu.Lock()
	c.state = st
	c.stateMu.Unlock()
	c.log.Infow("automation_state_restored", "last_activation", st.LastActivation, "last_feeding", st.LastFeeding)
	return nil
}

// State returns a copy of the rule clocks.
func (c *Controller) State() models.AutomationState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Status describes cooldown and feeder timing against the current settings and reading.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	s, err := c.settings.AutomationSettings(ctx)
	if err != nil {
		return Status{}, err
	}
	return BuildStatus(s, c.State(), c.tracker.Snapshot().Reading, c.now()), nil
}

// Tick polls the device once and runs edge detection then the rules.
// A tick that finds another in flight is skipped with ErrTickInFlight.
func (c *Controller) Tick(ctx context.Context) error {
	if !c.tickMu.TryLock() {
		c.obs.ObserveTickSkipped()
		return ErrTickInFlight
	}
	defer c.tickMu.Unlock()

	started := c.now()
	prev := c.tracker.Snapshot().Actuators

	reading, cur, err := c.device.FetchStatus(ctx)
	if err != nil {
		c.tracker.MarkPollFailed(err, c.now())
		c.obs.ObservePoll(err, c.now().Sub(started))
		c.log.Warnw("poll_failed", "err", err)
		return fmt.Errorf("poll device: %w", err)
	}

	now := c.now()
	reading.Timestamp = now
	c.tracker.ApplyPoll(reading, cur, now)
	c.obs.ObservePoll(nil, now.Sub(started))
	c.obs.ObserveReading(reading)

	c.handleEdges(ctx, cur, now)

	if err := c.recorder.RecordReading(ctx, reading); err != nil {
		c.log.Warnw("sensor_history_append_failed", "err", err)
	}

	settings, err := c.settings.AutomationSettings(ctx)
	if err != nil {
		c.log.Errorw("automation_settings_load_failed", "err", err)
		return fmt.Errorf("load automation settings: %w", err)
	}

	dec := Evaluate(Input{
		Reading:  reading,
		Previous: prev,
		Current:  cur,
		Settings: settings,
		State:    c.State(),
		Now:      now,
	})
	if dec.WaterChange {
		c.startWaterChange(ctx, reading, dec.Cause, settings, now)
	}
	if dec.Feed {
		c.feed(ctx, now)
	}
	return nil
}

func (c *Controller) handleEdges(ctx context.Context, cur models.ActuatorState, now time.Time) {
	for _, typ := range c.edges.Observe(cur) {
		c.log.Infow("edge_event", "type", typ)
		c.record(ctx, models.HistoryEvent{Timestamp: now, Type: typ})

		if typ == models.EventOverflowDetected && cur.PumpIn {
			if _, err := c.dispatcher.Send(ctx, models.CommandPumpIn, false); err != nil {
				c.log.Errorw("overflow_pump_stop_failed", "err", err)
				continue
			}
			c.record(ctx, models.HistoryEvent{Timestamp: now, Type: models.EventOverflowPumpStopped})
		}
	}
}

// startWaterChange commits the cooldown clock before dispatching, so a failed
// dispatch is not retried until the next window.
func (c *Controller) startWaterChange(ctx context.Context, r models.SensorReading, cause models.Metric, s models.AutomationSettings, now time.Time) {
	c.commit(ctx, func(st *models.AutomationState) { st.LastActivation = now })

	dur := s.WaterChange()
	if _, err := c.dispatcher.SendTimed(ctx, models.CommandMasterPump, dur); err != nil {
		c.log.Errorw("auto_water_change_failed", "trigger", cause, "err", err)
		return
	}
	c.log.Infow("auto_water_change", "trigger", cause, "duration_s", s.WaterChangeDuration,
		"temp", r.Temperature, "ph", r.PH, "tds", r.TDS)

	secs := s.WaterChangeDuration
	c.record(ctx, models.HistoryEvent{
		Timestamp: now,
		Type:      models.EventAutoWaterChange,
		Temp:      ptr(r.Temperature),
		PH:        ptr(r.PH),
		TDS:       ptr(r.TDS),
		Duration:  &secs,
		Trigger:   cause,
	})
}

func (c *Controller) feed(ctx context.Context, now time.Time) {
	c.commit(ctx, func(st *models.AutomationState) { st.LastFeeding = now })

	if _, err := c.dispatcher.SendTimed(ctx, models.CommandFeeder, c.feederPulse); err != nil {
		c.log.Errorw("auto_feeder_failed", "err", err)
		return
	}
	c.log.Infow("auto_feeder_triggered", "pulse", c.feederPulse)
	c.record(ctx, models.HistoryEvent{Timestamp: now, Type: models.EventAutoFeederTriggered})
}

func (c *Controller) commit(ctx context.Context, mutate func(*models.AutomationState)) {
	c.stateMu.Lock()
	mutate(&c.state)
	st := c.state
	c.stateMu.Unlock()

	if err := c.store.SaveAutomationState(ctx, st); err != nil {
		c.log.Warnw("automation_state_save_failed", "err", err)
	}
}

func (c *Controller) record(ctx context.Context, e models.HistoryEvent) {
	c.obs.ObserveEvent(e.Type)
	if err := c.recorder.RecordEvent(ctx, e); err != nil {
		c.log.Warnw("history_append_failed", "type", e.Type, "err", err)
	}
}

func ptr(v float64) *float64 { return &v }

package automation

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"aquastream/internal/models"
)

type harness struct {
	dev      *fakeDevice
	sched    *fakeScheduler
	settings *fakeSettings
	store    *fakeStore
	rec      *fakeRecorder
	clock    *fakeClock
	obs      *countingObserver
	tracker  *Tracker
	disp     *Dispatcher
	ctrl     *Controller
}

func newHarness(s models.AutomationSettings) *harness {
	h := &harness{
		dev:      &fakeDevice{},
		sched:    &fakeScheduler{},
		settings: &fakeSettings{s: s},
		store:    &fakeStore{},
		rec:      &fakeRecorder{},
		clock:    &fakeClock{t: t0},
		obs:      &countingObserver{},
		tracker:  NewTracker(),
	}
	h.disp = NewDispatcher(h.dev, h.tracker, h.sched, h.obs, nil)
	h.disp.now = h.clock.Now
	h.ctrl = NewController(Deps{
		Device:      h.dev,
		Settings:    h.settings,
		Store:       h.store,
		Recorder:    h.rec,
		Dispatcher:  h.disp,
		Tracker:     h.tracker,
		Observer:    h.obs,
		Now:         h.clock.Now,
		FeederPulse: 3 * time.Second,
	})
	return h
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	if err := h.ctrl.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

var phHigh = models.SensorReading{Temperature: 26, PH: 8.0, TDS: 200}

func TestController_PHOutOfRangeTriggersWaterChange(t *testing.T) {
	h := newHarness(waterOnly())
	h.dev.set(phHigh, models.ActuatorState{})

	h.tick(t)

	if got := h.rec.types(); !reflect.DeepEqual(got, []models.EventType{models.EventAutoWaterChange}) {
		t.Fatalf("events: %v", got)
	}
	ev := h.rec.events[0]
	if ev.Trigger != models.MetricPH || ev.Duration == nil || *ev.Duration != 60 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.PH == nil || *ev.PH != 8.0 || ev.Temp == nil || *ev.Temp != 26 || ev.TDS == nil || *ev.TDS != 200 {
		t.Fatalf("event metrics missing: %+v", ev)
	}

	if got := h.dev.sends(); len(got) != 1 || got[0] != (sentCommand{models.CommandMasterPump, true}) {
		t.Fatalf("sends: %v", got)
	}
	timers := h.sched.active()
	if len(timers) != 1 || timers[0].d != 60*time.Second {
		t.Fatalf("expected one 60s shutoff, got %+v", timers)
	}
	timers[0].fire()
	if got := h.dev.sends(); got[len(got)-1] != (sentCommand{models.CommandMasterPump, false}) {
		t.Fatalf("expected master_pump=0 after duration, got %v", got)
	}

	if st := h.ctrl.State(); !st.LastActivation.Equal(t0) {
		t.Fatalf("last activation %v", st.LastActivation)
	}
	if len(h.store.saved) != 1 || !h.store.saved[0].LastActivation.Equal(t0) {
		t.Fatalf("activation not persisted: %+v", h.store.saved)
	}
}

func TestController_BusyPumpBlocksTrigger(t *testing.T) {
	h := newHarness(waterOnly())
	h.dev.set(phHigh, models.ActuatorState{PumpIn: true})

	h.tick(t)

	if len(h.rec.events) != 0 || len(h.dev.sends()) != 0 {
		t.Fatalf("no trigger expected, events %v sends %v", h.rec.types(), h.dev.sends())
	}
	if !h.ctrl.State().LastActivation.IsZero() {
		t.Fatalf("cooldown must not be committed without a trigger")
	}
}

func TestController_CooldownWindow(t *testing.T) {
	h := newHarness(waterOnly())
	h.dev.set(phHigh, models.ActuatorState{})

	h.tick(t) // t0: trigger
	h.sched.active()[0].fire()

	h.clock.Advance(30 * time.Minute)
	h.tick(t)
	h.clock.Advance(29*time.Minute + 59*time.Second)
	h.tick(t)
	if n := len(h.rec.events); n != 1 {
		t.Fatalf("expected no trigger inside the window, got %d events", n)
	}

	h.clock.Advance(time.Second) // exactly t0+60min
	h.tick(t)
	if n := len(h.rec.events); n != 2 {
		t.Fatalf("expected second trigger at window boundary, got %d events", n)
	}
}

func TestController_DispatchFailureCommitsCooldownWithoutRetry(t *testing.T) {
	h := newHarness(waterOnly())
	h.dev.set(phHigh, models.ActuatorState{})
	h.dev.sendErr = errors.New("device offline")

	h.tick(t)

	if len(h.rec.events) != 0 {
		t.Fatalf("no history on failed dispatch, got %v", h.rec.types())
	}
	if len(h.sched.timers) != 0 {
		t.Fatalf("no shutoff on failed dispatch")
	}
	if a := h.tracker.Snapshot().Actuators; !a.PumpsIdle() {
		t.Fatalf("state mutated on failed dispatch: %+v", a)
	}
	if !h.ctrl.State().LastActivation.Equal(t0) {
		t.Fatalf("cooldown should be committed before dispatch")
	}

	h.dev.mu.Lock()
	h.dev.sendErr = nil
	h.dev.mu.Unlock()
	h.clock.Advance(10 * time.Second)
	h.tick(t)
	if len(h.dev.sends()) != 0 {
		t.Fatalf("must not retry within the cooldown window: %v", h.dev.sends())
	}
}

func TestController_LeakEdgesAcrossTicks(t *testing.T) {
	h := newHarness(waterOnly())
	for _, leak := range []bool{false, false, true, true, false} {
		h.dev.set(models.SensorReading{Temperature: 26, PH: 7, TDS: 200}, models.ActuatorState{Leak: leak})
		h.tick(t)
	}
	want := []models.EventType{models.EventLeakDetected, models.EventLeakCleared}
	if got := h.rec.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestController_OverflowStopsInletPump(t *testing.T) {
	h := newHarness(waterOnly())
	h.dev.set(phHigh, models.ActuatorState{PumpIn: true, Overflow: true})

	h.tick(t)

	want := []models.EventType{models.EventOverflowDetected, models.EventOverflowPumpStopped}
	if got := h.rec.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := h.dev.sends(); len(got) != 1 || got[0] != (sentCommand{models.CommandPumpIn, false}) {
		t.Fatalf("sends: %v", got)
	}
	if h.tracker.Snapshot().Actuators.PumpIn {
		t.Fatalf("pump_in should be off in snapshot")
	}
}

func TestController_PollFailureLeavesSnapshot(t *testing.T) {
	h := newHarness(waterOnly())
	good := models.SensorReading{Temperature: 25, PH: 7, TDS: 180}
	h.dev.set(good, models.ActuatorState{Feeder: true})
	h.tick(t)

	h.dev.mu.Lock()
	h.dev.fetchErr = errors.New("timeout")
	h.dev.mu.Unlock()
	h.clock.Advance(10 * time.Second)

	if err := h.ctrl.Tick(context.Background()); err == nil {
		t.Fatalf("expected poll error")
	}
	snap := h.tracker.Snapshot()
	if snap.Reading.PH != 7 || !snap.Actuators.Feeder {
		t.Fatalf("snapshot changed on failed poll: %+v", snap)
	}
	if snap.Online || snap.LastError == "" {
		t.Fatalf("expected offline flag with error: %+v", snap)
	}
	if len(h.rec.readings) != 1 {
		t.Fatalf("failed poll must not record a reading")
	}
	if h.obs.pollErrs != 1 {
		t.Fatalf("poll error not observed")
	}
}

func TestController_SkipsOverlappingTick(t *testing.T) {
	h := newHarness(waterOnly())
	h.dev.block = make(chan struct{})
	h.dev.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Tick(context.Background()) }()
	<-h.dev.entered

	if err := h.ctrl.Tick(context.Background()); !errors.Is(err, ErrTickInFlight) {
		t.Fatalf("expected ErrTickInFlight, got %v", err)
	}
	close(h.dev.block)
	if err := <-done; err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if h.obs.skipped != 1 {
		t.Fatalf("skip not observed")
	}
	if h.dev.fetches != 1 {
		t.Fatalf("skipped tick must not fetch, got %d fetches", h.dev.fetches)
	}
}

func TestController_FeederRule(t *testing.T) {
	s := models.DefaultAutomationSettings()
	s.Enabled = false
	s.FeederIntervalHours = 12
	h := newHarness(s)
	h.dev.set(models.SensorReading{Temperature: 26, PH: 7, TDS: 200}, models.ActuatorState{})

	h.tick(t)
	if got := h.rec.types(); !reflect.DeepEqual(got, []models.EventType{models.EventAutoFeederTriggered}) {
		t.Fatalf("events %v", got)
	}
	timers := h.sched.active()
	if len(timers) != 1 || timers[0].d != 3*time.Second {
		t.Fatalf("expected 3s feeder pulse, got %+v", timers)
	}
	timers[0].fire()

	h.clock.Advance(12 * time.Hour)
	h.tick(t)
	if len(h.rec.events) != 1 {
		t.Fatalf("feeding at exactly the interval is not due")
	}
	h.clock.Advance(time.Second)
	h.tick(t)
	if len(h.rec.events) != 2 {
		t.Fatalf("expected second feeding past the interval")
	}
}

func TestController_RestoreSuppressesTriggerInWindow(t *testing.T) {
	h := newHarness(waterOnly())
	h.store.loaded = models.AutomationState{LastActivation: t0.Add(-10 * time.Minute)}
	if err := h.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	h.dev.set(phHigh, models.ActuatorState{})
	h.tick(t)
	if len(h.rec.events) != 0 {
		t.Fatalf("restored cooldown ignored: %v", h.rec.types())
	}

	st, err := h.ctrl.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.CooldownActive || st.RemainingMinutes != 50 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestController_SettingsErrorSkipsRules(t *testing.T) {
	h := newHarness(waterOnly())
	h.settings.err = errors.New("db locked")
	h.dev.set(phHigh, models.ActuatorState{})

	if err := h.ctrl.Tick(context.Background()); err == nil {
		t.Fatalf("expected settings error")
	}
	if len(h.dev.sends()) != 0 {
		t.Fatalf("no dispatch without settings")
	}
	if len(h.rec.readings) != 1 {
		t.Fatalf("reading should still be recorded")
	}
	if !h.tracker.Snapshot().Online {
		t.Fatalf("poll itself succeeded")
	}
}

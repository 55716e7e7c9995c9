package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aquastream/internal/models"
)

type sentCommand struct {
	cmd models.Command
	on  bool
}

// fakeDevice serves a settable status and records writes.
type fakeDevice struct {
	mu       sync.Mutex
	reading  models.SensorReading
	act      models.ActuatorState
	fetchErr error
	sendErr  error
	sent     []sentCommand
	fetches  int
	// block, when set, is waited on inside FetchStatus.
	block chan struct{}
	// entered receives once per FetchStatus call when non-nil.
	entered chan struct{}
}

func (f *fakeDevice) FetchStatus(ctx context.Context) (models.SensorReading, models.ActuatorState, error) {
	f.mu.Lock()
	f.fetches++
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return models.SensorReading{}, models.ActuatorState{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reading, f.act, f.fetchErr
}

func (f *fakeDevice) Send(_ context.Context, cmd models.Command, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentCommand{cmd, on})
	return nil
}

func (f *fakeDevice) set(r models.SensorReading, a models.ActuatorState) {
	f.mu.Lock()
	f.reading, f.act = r, a
	f.mu.Unlock()
}

func (f *fakeDevice) sends() []sentCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCommand(nil), f.sent...)
}

// fakeScheduler captures deferred callbacks so tests fire them explicitly.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) active() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the callback as the runtime would, even for a stopped timer whose
// callback already started, which is what Stop cannot prevent.
func (t *fakeTimer) fire() {
	t.fired = true
	t.f()
}

type fakeSettings struct {
	mu  sync.Mutex
	s   models.AutomationSettings
	err error
}

func (f *fakeSettings) AutomationSettings(context.Context) (models.AutomationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	loaded  models.AutomationState
	loadErr error
	saved   []models.AutomationState
}

func (f *fakeStore) LoadAutomationState(context.Context) (models.AutomationState, error) {
	return f.loaded, f.loadErr
}

func (f *fakeStore) SaveAutomationState(_ context.Context, st models.AutomationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, st)
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	events   []models.HistoryEvent
	readings []models.SensorReading
}

func (f *fakeRecorder) RecordEvent(_ context.Context, e models.HistoryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeRecorder) RecordReading(_ context.Context, r models.SensorReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, r)
	return nil
}

func (f *fakeRecorder) types() []models.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// countingObserver counts observer callbacks.
type countingObserver struct {
	mu         sync.Mutex
	polls      int
	pollErrs   int
	skipped    int
	dispatches int
}

func (o *countingObserver) ObservePoll(err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.polls++
	if err != nil {
		o.pollErrs++
	}
}

func (o *countingObserver) ObserveTickSkipped() {
	o.mu.Lock()
	o.skipped++
	o.mu.Unlock()
}

func (o *countingObserver) ObserveReading(models.SensorReading) {}

func (o *countingObserver) ObserveEvent(models.EventType) {}

func (o *countingObserver) ObserveDispatch(models.Command, bool, error) {
	o.mu.Lock()
	o.dispatches++
	o.mu.Unlock()
}

func (s sentCommand) String() string { return fmt.Sprintf("%s=%v", s.cmd, s.on) }

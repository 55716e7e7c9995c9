package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"aquastream/internal/automation"
	"aquastream/internal/models"
)

var errBoom = errors.New("boom")

// memSettingsRepo is an in-memory repository.SettingsRepo.
type memSettingsRepo struct {
	data   map[string][]byte
	getErr error
	putErr error
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{data: map[string][]byte{}}
}

func (m *memSettingsRepo) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.data[key], nil
}

func (m *memSettingsRepo) Put(_ context.Context, key string, value []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func (m *memSettingsRepo) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// memEventRepo keeps events newest first, like the SQL store.
type memEventRepo struct {
	events    []models.HistoryEvent
	appendErr error
	keeps     []int
}

func (m *memEventRepo) Append(_ context.Context, e models.HistoryEvent, keep int) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.keeps = append(m.keeps, keep)
	m.events = append([]models.HistoryEvent{e}, m.events...)
	if len(m.events) > keep {
		m.events = m.events[:keep]
	}
	return nil
}

func (m *memEventRepo) List(context.Context) ([]models.HistoryEvent, error) {
	return append([]models.HistoryEvent(nil), m.events...), nil
}

func (m *memEventRepo) Clear(context.Context) error {
	m.events = nil
	return nil
}

type memSensorRepo struct {
	entries []models.SensorHistoryEntry
	listErr error
	lists   int
}

func (m *memSensorRepo) Append(_ context.Context, e models.SensorHistoryEntry, keep int) error {
	m.entries = append([]models.SensorHistoryEntry{e}, m.entries...)
	if len(m.entries) > keep {
		m.entries = m.entries[:keep]
	}
	return nil
}

func (m *memSensorRepo) List(context.Context) ([]models.SensorHistoryEntry, error) {
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.SensorHistoryEntry(nil), m.entries...), nil
}

func (m *memSensorRepo) Clear(context.Context) error {
	m.entries = nil
	return nil
}

type fakePinger struct {
	pinged  int
	pingURL string
	err     error
}

func (f *fakePinger) Ping(context.Context) error {
	f.pinged++
	return f.err
}

func (f *fakePinger) PingURL(_ context.Context, base string) error {
	f.pingURL = base
	return f.err
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []models.Command
}

func (f *fakeSender) Send(_ context.Context, cmd models.Command, on bool) (automation.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return automation.Ack{}, f.err
	}
	f.sent = append(f.sent, cmd)
	return automation.Ack{Command: cmd, On: on, Message: "ok"}, nil
}

type fakeRefresher struct {
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls++
	return f.err
}

type fakeRecorder struct {
	events []models.HistoryEvent
	err    error
}

func (f *fakeRecorder) RecordEvent(_ context.Context, e models.HistoryEvent) error {
	f.events = append(f.events, e)
	return f.err
}

type staticSnapshot models.Telemetry

func (s staticSnapshot) Snapshot() models.Telemetry { return models.Telemetry(s) }

type staticPending map[models.Command]time.Time

func (p staticPending) Pending() map[models.Command]time.Time { return p }

type fakeAutomationView struct {
	state  models.AutomationState
	status automation.Status
	err    error
}

func (f fakeAutomationView) State() models.AutomationState { return f.state }

func (f fakeAutomationView) Status(context.Context) (automation.Status, error) {
	return f.status, f.err
}

type fakeLoop struct {
	restoreErr error
	restored   bool
	started    bool
	stopped    bool
}

func (f *fakeLoop) Restore(context.Context) error {
	f.restored = true
	return f.restoreErr
}

func (f *fakeLoop) Start(context.Context) error {
	f.started = true
	return nil
}

func (f *fakeLoop) Stop() { f.stopped = true }

package notify

import (
	"sync"

	"aquastream/internal/models"
)

// FakePublisher records published events for tests.
type FakePublisher struct {
	mu sync.Mutex

	Events   []models.HistoryEvent
	Payloads [][]byte

	// PublishError, if set, is returned by Publish.
	PublishError error
	Closed       bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) Publish(e models.HistoryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(e)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, e)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Published returns a copy of the recorded events.
func (f *FakePublisher) Published() []models.HistoryEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.HistoryEvent(nil), f.Events...)
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"aquastream/internal/logger"
	"aquastream/internal/models"
	"aquastream/internal/notify"
	"aquastream/internal/repository"
)

var ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")

// EventFilter narrows ListEvents. Zero fields do not filter.
type EventFilter struct {
	From time.Time
	To   time.Time
	Type string
}

// normalize trims and lowercases the type and converts the bounds to UTC.
func (f EventFilter) normalize() (EventFilter, error) {
	f.From = toUTC(f.From)
	f.To = toUTC(f.To)
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return EventFilter{}, ErrInvalidTimeRange
	}
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	return f, nil
}

func (f EventFilter) match(e models.HistoryEvent) bool {
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return f.Type == "" || string(e.Type) == f.Type
}

// HistoryService records automation events and throttled sensor snapshots.
// Recorded events are also published; publish failures are only logged.
type HistoryService struct {
	events   repository.EventRepo
	sensors  repository.SensorRepo
	pub      notify.Publisher
	throttle time.Duration
	log      *logger.Logger
	now      func() time.Time

	mu           sync.Mutex
	lastSensorAt time.Time
	sensorInit   bool
}

func NewHistoryService(events repository.EventRepo, sensors repository.SensorRepo, pub notify.Publisher, throttle time.Duration, log *logger.Logger) *HistoryService {
	if pub == nil {
		pub = notify.NopPublisher{}
	}
	return &HistoryService{
		events:   events,
		sensors:  sensors,
		pub:      pub,
		throttle: throttle,
		log:      log,
		now:      time.Now,
	}
}

func (s *HistoryService) RecordEvent(ctx context.Context, e models.HistoryEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	e.Timestamp = e.Timestamp.UTC()
	if err := s.events.Append(ctx, e, models.MaxAutomationHistory); err != nil {
		return err
	}
	if err := s.pub.Publish(e); err != nil {
		s.log.Warnw("event_publish_failed", "type", e.Type, "err", err)
	}
	return nil
}

// RecordReading stores r at most once per throttle window. Readings without
// any non-zero metric are skipped.
func (s *HistoryService) RecordReading(ctx context.Context, r models.SensorReading) error {
	if !r.HasData() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sensorInit {
		list, err := s.sensors.List(ctx)
		if err != nil {
			return err
		}
		if len(list) > 0 {
			s.lastSensorAt = list[0].Timestamp
		}
		s.sensorInit = true
	}

	now := s.now()
	// A negative elapsed time means the clock stepped back; the window counts as passed.
	if elapsed := now.Sub(s.lastSensorAt); !s.lastSensorAt.IsZero() && elapsed >= 0 && elapsed < s.throttle {
		return nil
	}
	entry := models.SensorHistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Temp:      r.Temperature,
		PH:        r.PH,
		TDS:       r.TDS,
	}
	if err := s.sensors.Append(ctx, entry, models.MaxSensorHistory); err != nil {
		return err
	}
	s.lastSensorAt = now
	return nil
}

func (s *HistoryService) ListEvents(ctx context.Context, f EventFilter) ([]models.HistoryEvent, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	all, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.HistoryEvent, 0, len(all))
	for _, e := range all {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *HistoryService) ClearEvents(ctx context.Context) error {
	if err := s.events.Clear(ctx); err != nil {
		return err
	}
	s.log.Infow("automation_history_cleared")
	return nil
}

func (s *HistoryService) ListSensors(ctx context.Context) ([]models.SensorHistoryEntry, error) {
	return s.sensors.List(ctx)
}

func (s *HistoryService) ClearSensors(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sensors.Clear(ctx); err != nil {
		return err
	}
	s.lastSensorAt = time.Time{}
	s.sensorInit = true
	s.log.Infow("sensor_history_cleared")
	return nil
}

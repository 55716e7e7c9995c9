package service

import (
	"context"
	"time"

	"aquastream/internal/automation"
	"aquastream/internal/logger"
	"aquastream/internal/models"
)

type actuatorSender interface {
	Send(ctx context.Context, cmd models.Command, on bool) (automation.Ack, error)
}

type refresher interface {
	Refresh(ctx context.Context) error
}

type snapshotter interface {
	Snapshot() models.Telemetry
}

type eventRecorder interface {
	RecordEvent(ctx context.Context, e models.HistoryEvent) error
}

// ControlService handles manual commands. A manual command supersedes any
// pending deferred off of an overlapping actuator and schedules none of its own.
type ControlService struct {
	sender   actuatorSender
	poller   refresher
	snapshot snapshotter
	history  eventRecorder
	log      *logger.Logger
	now      func() time.Time
}

func NewControlService(sender actuatorSender, poller refresher, snapshot snapshotter, history eventRecorder, log *logger.Logger) *ControlService {
	return &ControlService{
		sender:   sender,
		poller:   poller,
		snapshot: snapshot,
		history:  history,
		log:      log,
		now:      time.Now,
	}
}

func (s *ControlService) SetActuator(ctx context.Context, cmd models.Command, on bool) (automation.Ack, error) {
	if !cmd.Valid() {
		return automation.Ack{}, models.ErrUnknownCommand
	}
	ack, err := s.sender.Send(ctx, cmd, on)
	if err != nil {
		s.log.Warnw("manual_command_failed", "command", cmd, "on", on, "err", err)
		return automation.Ack{}, err
	}
	ev := models.HistoryEvent{Timestamp: s.now(), Type: cmd.ManualEventType(on)}
	if err := s.history.RecordEvent(ctx, ev); err != nil {
		s.log.Errorw("manual_event_record_failed", "type", ev.Type, "err", err)
	}
	s.log.Infow("manual_command", "command", cmd, "on", on)
	return ack, nil
}

// Refresh polls the device now and returns the updated snapshot.
func (s *ControlService) Refresh(ctx context.Context) (models.Telemetry, error) {
	if err := s.poller.Refresh(ctx); err != nil {
		return models.Telemetry{}, err
	}
	return s.snapshot.Snapshot(), nil
}

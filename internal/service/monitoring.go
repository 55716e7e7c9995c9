package service

import (
	"context"
	"time"

	"aquastream/internal/automation"
	"aquastream/internal/models"
)

// State is the live dashboard payload: the telemetry snapshot plus the
// pending deferred offs and the rule clocks.
type State struct {
	models.Telemetry
	PendingOffs map[models.Command]time.Time `json:"pending_offs"`
	Automation  models.AutomationState        `json:"automation"`
}

type pendingSource interface {
	Pending() map[models.Command]time.Time
}

type automationView interface {
	State() models.AutomationState
	Status(ctx context.Context) (automation.Status, error)
}

type MonitoringService struct {
	snapshot snapshotter
	pending  pendingSource
	ctrl     automationView
}

func NewMonitoringService(snapshot snapshotter, pending pendingSource, ctrl automationView) *MonitoringService {
	return &MonitoringService{snapshot: snapshot, pending: pending, ctrl: ctrl}
}

// GetState never touches the device; it serves the last polled snapshot.
func (s *MonitoringService) GetState(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	return State{
		Telemetry:   s.snapshot.Snapshot(),
		PendingOffs: s.pending.Pending(),
		Automation:  s.ctrl.State(),
	}, nil
}

func (s *MonitoringService) AutomationStatus(ctx context.Context) (automation.Status, error) {
	return s.ctrl.Status(ctx)
}

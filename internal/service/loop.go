package service

import (
	"context"

	"aquastream/internal/logger"
)

type restorer interface {
	Restore(ctx context.Context) error
}

type loopRunner interface {
	Start(ctx context.Context) error
	Stop()
}

// LoopService restores the persisted rule clocks and runs the poller.
type LoopService struct {
	ctrl   restorer
	poller loopRunner
	log    *logger.Logger
}

func NewLoopService(ctrl restorer, poller loopRunner, log *logger.Logger) *LoopService {
	return &LoopService{ctrl: ctrl, poller: poller, log: log}
}

// Start never fails on a restore error; the loop then starts with zero clocks.
func (s *LoopService) Start(ctx context.Context) error {
	if err := s.ctrl.Restore(ctx); err != nil {
		s.log.Warnw("automation_state_restore_failed", "err", err)
	}
	return s.poller.Start(ctx)
}

func (s *LoopService) Stop() {
	s.poller.Stop()
}

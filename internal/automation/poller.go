package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aquastream/internal/logger"

	"github.com/robfig/cron/v3"
)

// ErrPollerStopped is returned by Refresh once Stop has been called.
var ErrPollerStopped = errors.New("poller stopped")

// Poller drives Controller.Tick on a fixed cadence. Overlapping runs,
// scheduled or manual, are skipped and counted by the controller's try-lock.
type Poller struct {
	ctrl       *Controller
	dispatcher *Dispatcher
	interval   time.Duration
	log        *logger.Logger
	cron       *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	wg      sync.WaitGroup
}

func NewPoller(ctrl *Controller, dispatcher *Dispatcher, interval time.Duration, log *logger.Logger) *Poller {
	if log == nil {
		log = logger.Nop()
	}
	cl := cronLogger{log: log}
	return &Poller{
		ctrl:       ctrl,
		dispatcher: dispatcher,
		interval:   interval,
		log:        log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
	}
}

// Start schedules "@every interval" and runs the first poll right away.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("poller already started")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.interval), p.poll); err != nil {
		p.cancel()
		return fmt.Errorf("schedule poll: %w", err)
	}
	p.started = true
	p.cron.Start()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.poll()
	}()
	p.log.Infow("poller_started", "interval", p.interval)
	return nil
}

// Stop halts scheduling, waits for a running poll or refresh to return and
// cancels every pending deferred shutoff. No tick starts after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	done := p.cron.Stop()
	p.cancel()
	<-done.Done()
	p.wg.Wait()

	p.dispatcher.CancelAll()
	p.log.Infow("poller_stopped")
}

// Refresh runs an out-of-band tick, e.g. from the API. It returns
// ErrTickInFlight instead of waiting for a running poll, and
// ErrPollerStopped after Stop.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrPollerStopped
	}
	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()

	return p.ctrl.Tick(ctx)
}

func (p *Poller) poll() {
	if p.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(p.ctx, p.interval)
	defer cancel()

	err := p.ctrl.Tick(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrTickInFlight):
		p.log.Debugw("poll_skipped_in_flight")
	default:
		// already logged by the controller; nothing is retried before the next tick
		p.log.Debugw("poll_tick_failed", "err", err)
	}
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron_"+msg, append([]interface{}{"err", err}, keysAndValues...)...)
}

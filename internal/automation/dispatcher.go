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

// offTimeout bounds a deferred shutoff write, which runs without a caller context.
const offTimeout = 10 * time.Second

// ErrDispatcherClosed is returned once CancelAll has run.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Commander performs one device write.
type Commander interface {
	Send(ctx context.Context, cmd models.Command, on bool) error
}

// Timer is the cancellable handle of a deferred shutoff.
type Timer interface {
	Stop() bool
}

// Scheduler creates deferred callbacks. RealScheduler uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealScheduler returns the wall-clock scheduler.
func RealScheduler() Scheduler { return realScheduler{} }

// Ack is the user-visible acknowledgement of a confirmed write.
type Ack struct {
	Command models.Command `json:"command"`
	On      bool           `json:"on"`
	Message string         `json:"message"`
	OffAt   *time.Time     `json:"off_at,omitempty"`
}

func newAck(cmd models.Command, on bool) Ack {
	verb := "deactivated"
	if on {
		verb = "activated"
	}
	return Ack{Command: cmd, On: on, Message: fmt.Sprintf("%s %s", cmd, verb)}
}

type pendingOff struct {
	id    uint64
	timer Timer
	at    time.Time
}

// Dispatcher serializes device writes, mirrors confirmed writes into the
// Tracker and owns the deferred shutoff timers.
type Dispatcher struct {
	dev     Commander
	tracker *Tracker
	sched   Scheduler
	obs     Observer
	log     *logger.Logger
	now     func() time.Time

	// writeMu orders device writes, including deferred shutoffs.
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[models.Command]*pendingOff
	seq     uint64
	closed  bool
}

func NewDispatcher(dev Commander, tracker *Tracker, sched Scheduler, obs Observer, log *logger.Logger) *Dispatcher {
	if sched == nil {
		sched = RealScheduler()
	}
	if obs == nil {
		obs = NopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		dev:     dev,
		tracker: tracker,
		sched:   sched,
		obs:     obs,
		log:     log,
		now:     time.Now,
		pending: make(map[models.Command]*pendingOff),
	}
}

// Send writes cmd=on. Only after the device confirms does it update the
// snapshot and supersede pending shutoffs that drive the same outputs.
// A failed write changes nothing.
func (d *Dispatcher) Send(ctx context.Context, cmd models.Command, on bool) (Ack, error) {
	if !cmd.Valid() {
		return Ack{}, fmt.Errorf("%w: %q", models.ErrUnknownCommand, cmd)
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if err := d.write(ctx, cmd, on); err != nil {
		return Ack{}, err
	}
	d.mu.Lock()
	d.supersedeLocked(cmd)
	d.mu.Unlock()
	return newAck(cmd, on), nil
}

// SendTimed writes cmd=1 and, once confirmed, schedules cmd=0 after dur.
// dur is captured here; later settings changes do not move the shutoff.
func (d *Dispatcher) SendTimed(ctx context.Context, cmd models.Command, dur time.Duration) (Ack, error) {
	if !cmd.Valid() {
		return Ack{}, fmt.Errorf("%w: %q", models.ErrUnknownCommand, cmd)
	}
	if dur <= 0 {
		return Ack{}, fmt.Errorf("timed %s: non-positive duration %s", cmd, dur)
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return Ack{}, ErrDispatcherClosed
	}

	if err := d.write(ctx, cmd, true); err != nil {
		return Ack{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.supersedeLocked(cmd)
	at := d.scheduleLocked(cmd, dur)

	ack := newAck(cmd, true)
	ack.OffAt = &at
	return ack, nil
}

// Pending returns the firing time of every scheduled shutoff.
func (d *Dispatcher) Pending() map[models.Command]time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[models.Command]time.Time, len(d.pending))
	for cmd, p := range d.pending {
		out[cmd] = p.at
	}
	return out
}

// CancelAll stops every pending shutoff and refuses new timed commands.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for cmd, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, cmd)
	}
}

// write must be called with writeMu held.
func (d *Dispatcher) write(ctx context.Context, cmd models.Command, on bool) error {
	err := d.dev.Send(ctx, cmd, on)
	d.obs.ObserveDispatch(cmd, on, err)
	if err != nil {
		d.log.Warnw("dispatch_failed", "command", cmd, "on", on, "err", err)
		return fmt.Errorf("dispatch %s: %w", cmd, err)
	}
	d.tracker.ApplyCommand(cmd, on, d.now())
	return nil
}

// supersedeLocked cancels shutoffs overlapping cmd. The part of a cancelled
// shutoff that cmd does not drive is rescheduled for its original time, so a
// manual pump_in command does not leave pump_out running past a water change.
func (d *Dispatcher) supersedeLocked(cmd models.Command) {
	now := d.now()
	for pc, p := range d.pending {
		if !pc.Overlaps(cmd) {
			continue
		}
		p.timer.Stop()
		delete(d.pending, pc)
		d.log.Infow("deferred_off_superseded", "pending", pc, "by", cmd)

		rest, ok := pc.Without(cmd)
		if !ok {
			continue
		}
		if _, exists := d.pending[rest]; exists {
			continue
		}
		remaining := p.at.Sub(now)
		if remaining <= 0 {
			remaining = time.Millisecond
		}
		d.scheduleLocked(rest, remaining)
	}
}

func (d *Dispatcher) scheduleLocked(cmd models.Command, dur time.Duration) time.Time {
	if old, ok := d.pending[cmd]; ok {
		old.timer.Stop()
	}
	d.seq++
	id := d.seq
	at := d.now().Add(dur)
	d.pending[cmd] = &pendingOff{
		id:    id,
		at:    at,
		timer: d.sched.AfterFunc(dur, func() { d.fireOff(cmd, id) }),
	}
	return at
}

func (d *Dispatcher) fireOff(cmd models.Command, id uint64) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.mu.Lock()
	p, ok := d.pending[cmd]
	if d.closed || !ok || p.id != id {
		d.mu.Unlock()
		return
	}
	delete(d.pending, cmd)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), offTimeout)
	defer cancel()
	if err := d.write(ctx, cmd, false); err != nil {
		d.log.Errorw("deferred_off_failed", "command", cmd, "err", err)
		return
	}
	d.log.Infow("deferred_off_sent", "command", cmd)
}

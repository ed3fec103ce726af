package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"go.uber.org/zap"
)

const DefaultQueueSize = 256

type job struct {
	ctx context.Context
	n   model.Notification
}

// Dispatcher hands notifications to a background worker so the caller never
// waits on delivery. When the queue is full the notification is dropped.
type Dispatcher struct {
	next     Notifier
	queue    chan job
	logger   *zap.Logger
	onDrop   func()
	started  atomic.Bool
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewDispatcher(next Notifier, size int, logger *zap.Logger) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		next:     next,
		queue:    make(chan job, size),
		logger:   logger,
		onDrop:   func() {},
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// OnDrop registers a hook called for every dropped notification.
func (d *Dispatcher) OnDrop(fn func()) {
	if fn != nil {
		d.onDrop = fn
	}
}

func (d *Dispatcher) Notify(ctx context.Context, n model.Notification) {
	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), n: n}:
	default:
		d.logger.Warn("Notification queue full, dropping",
			zap.String("user_id", n.UserID),
			zap.String("booking_id", n.BookingID),
		)
		d.onDrop()
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	d.logger.Info("Starting notification dispatcher", zap.Int("queue_size", cap(d.queue)))
	go d.run(ctx)
}

// Stop delivers what is already queued and waits for the worker to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("Stopping notification dispatcher")
		close(d.stopChan)
	})
	if d.started.Load() {
		<-d.done
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case j := <-d.queue:
			d.next.Notify(j.ctx, j.n)
		case <-d.stopChan:
			d.drain()
			d.logger.Info("Notification dispatcher stopped")
			return
		case <-ctx.Done():
			d.drain()
			d.logger.Info("Notification dispatcher cancelled")
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case j := <-d.queue:
			d.next.Notify(j.ctx, j.n)
		default:
			return
		}
	}
}

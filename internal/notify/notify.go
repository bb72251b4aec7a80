// Package notify delivers transactional mail and push notices in the
// background. Delivery is best-effort: Dispatch never blocks the caller and
// failures are logged, never returned, so a slow or broken provider cannot
// fail the business operation that triggered the notice.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Notification is one best-effort notice. Email and PushToken select the
// channels; either may be empty.
type Notification struct {
	Email     string
	PushToken string
	Subject   string
	Body      string
}

// Sender delivers a notification over one channel.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

const (
	defaultQueueSize = 256
	defaultWorkers   = 2
	sendTimeout      = 10 * time.Second
)

// Dispatcher fans notifications out to its senders from a fixed worker pool.
type Dispatcher struct {
	log     *slog.Logger
	senders []Sender
	queue   chan Notification

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool
}

func NewDispatcher(log *slog.Logger, senders ...Sender) *Dispatcher {
	return &Dispatcher{
		log:     log,
		senders: senders,
		queue:   make(chan Notification, defaultQueueSize),
	}
}

// Start launches the worker goroutines. Safe to call once.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for range defaultWorkers {
		d.wg.Add(1)
		go d.worker()
	}
}

// Dispatch enqueues a notification. It never blocks: when the queue is full
// the notification is dropped and logged. The lock is held across the send
// so a concurrent Close cannot close the queue underneath it.
func (d *Dispatcher) Dispatch(n Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- n:
	default:
		d.log.Warn("notification queue full, dropping", "subject", n.Subject)
	}
}

// Close stops accepting notifications, drains the queue and waits for
// in-flight sends to finish. The queue is closed under the same lock
// Dispatch sends under; workers only receive, so they never race the close.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if started {
		d.wg.Wait()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	for _, s := range d.senders {
		if err := s.Send(ctx, n); err != nil {
			d.log.Error("notification delivery failed", "subject", n.Subject, "err", err)
		}
	}
}

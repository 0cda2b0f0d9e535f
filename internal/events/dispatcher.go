package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"carkeeper/internal/metrics"
)

// ErrQueueFull is reported when a side effect is dropped because the queue
// is saturated.
var ErrQueueFull = errors.New("dispatch queue full")

// ErrClosed is reported for side effects submitted after Close.
var ErrClosed = errors.New("dispatcher closed")

// SideEffectError carries the kind of the failed side effect.
type SideEffectError struct {
	Kind string
	Err  error
}

func (e *SideEffectError) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }

func (e *SideEffectError) Unwrap() error { return e.Err }

type task struct {
	kind string
	fn   func(ctx context.Context) error
}

// Dispatcher runs side effects on a fixed worker pool. Submitting never
// blocks the caller and a failing side effect never reaches it: failures are
// logged, counted and sent to Errors.
type Dispatcher struct {
	publisher Publisher
	queue     chan task
	errs      chan error
	timeout   time.Duration
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
}

// NewDispatcher starts workers goroutines. A nil publisher drops audit events.
func NewDispatcher(publisher Publisher, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := &Dispatcher{
		publisher: publisher,
		queue:     make(chan task, queueSize),
		errs:      make(chan error, queueSize),
		timeout:   timeout,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Errors exposes side-effect failures. It is closed by Close.
func (d *Dispatcher) Errors() <-chan error {
	return d.errs
}

// Go schedules fn. It reports false when the side effect was dropped.
func (d *Dispatcher) Go(kind string, fn func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.SideEffects.WithLabelValues(kind, "dropped").Inc()
		log.Printf("[warn] side effect %s dropped: %v", kind, ErrClosed)
		return false
	}
	select {
	case d.queue <- task{kind: kind, fn: fn}:
		return true
	default:
		d.report(kind, ErrQueueFull)
		return false
	}
}

// Publish schedules delivery of an audit event.
func (d *Dispatcher) Publish(evt Event) {
	if d.publisher == nil {
		return
	}
	d.Go("audit", func(ctx context.Context) error {
		return d.publisher.Publish(ctx, evt)
	})
}

// Close stops accepting work, drains the queue and closes Errors.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	close(d.errs)
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for t := range d.queue {
		d.exec(t)
	}
}

func (d *Dispatcher) exec(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.report(t.kind, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := t.fn(ctx); err != nil {
		d.report(t.kind, err)
		return
	}
	metrics.SideEffects.WithLabelValues(t.kind, "ok").Inc()
}

func (d *Dispatcher) report(kind string, err error) {
	metrics.SideEffects.WithLabelValues(kind, "failed").Inc()
	log.Printf("[warn] side effect %s failed: %v", kind, err)
	select {
	case d.errs <- &SideEffectError{Kind: kind, Err: err}:
	default:
	}
}

package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events when the queue is full instead of blocking
	// the caller until the sink catches up.
	DropIfFull bool
}

// Stats counts events by outcome since the dispatcher was created.
type Stats struct {
	Delivered uint64
	Dropped   uint64
}

// Dispatcher relays audit events to a sink from a single goroutine, so a
// slow sink never runs on the request path. Events reach the sink in the
// order they were queued.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// mu serializes Close against in-flight sends on queue.
	mu     sync.RWMutex
	closed bool
	queue  chan Event
	// drained is closed once the consumer has handed every queued event to
	// the sink.
	drained chan struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher starts a dispatcher feeding sink. It returns nil when cfg is
// disabled; every method is a no-op on a nil Dispatcher.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, max(cfg.BufferSize, 1)),
		drained:    make(chan struct{}),
	}
	go d.consume()

	return d
}

func (d *Dispatcher) consume() {
	defer close(d.drained)

	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
		d.delivered.Add(1)
	}
}

// Emit queues event for delivery. With DropIfFull a full queue drops the
// event; otherwise Emit waits for room until ctx is done, and an event given
// up that way also counts as dropped. Events emitted after Close are
// ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close stops accepting events and returns once every queued event has
// reached the sink. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.drained
}

// Stats reports delivered and dropped event counts.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
	}
}

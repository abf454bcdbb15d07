package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"go.uber.org/zap"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("notify: bus closed")

// Sink consumes events. Handle is called from the Bus goroutine, one event
// at a time, in publish order.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, ev Event)
}

// Name implements Sink.
func (f SinkFunc) Name() string { return f.SinkName }

// Handle implements Sink.
func (f SinkFunc) Handle(ctx context.Context, ev Event) { f.Fn(ctx, ev) }

// Bus is a buffered FIFO queue drained by a single goroutine that fans each
// event out to every sink.
type Bus struct {
	queue  chan Event
	sinks  []Sink
	logger *zap.Logger

	mu     sync.RWMutex // guards closed against concurrent Publish/Close
	closed bool
	done   chan struct{}
}

// NewBus creates a Bus with room for buffer pending events and starts its
// dispatch goroutine. Sinks are fixed at construction.
func NewBus(buffer int, logger *zap.Logger, sinks ...Sink) *Bus {
	if buffer <= 0 {
		buffer = 1024
	}
	b := &Bus{
		queue:  make(chan Event, buffer),
		sinks:  sinks,
		logger: logger,
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

// NotifyAnchored implements service.Notifier.
func (b *Bus) NotifyAnchored(ctx context.Context, rec model.Record) error {
	return b.Publish(ctx, NewAnchoredEvent(rec))
}

// Publish enqueues ev. It blocks while the buffer is full, until ctx is done.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued, undelivered events.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Close stops accepting events, delivers everything already queued and
// waits for the dispatch goroutine to exit or ctx to expire.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) run() {
	defer close(b.done)
	ctx := context.Background()
	for ev := range b.queue {
		for _, s := range b.sinks {
			b.dispatch(ctx, s, ev)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, s Sink, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("notify: sink panicked",
				zap.String("sink", s.Name()),
				zap.String("event_id", ev.ID.String()),
				zap.Any("panic", r),
			)
		}
	}()
	s.Handle(ctx, ev)
}

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/logger"
)

// ErrNoReceiver is returned by Publish when neither a subscriber nor a sink took the event
var ErrNoReceiver = perr.New(perr.ErrorCodeUnavailable, "events: no subscriber or sink for event")

// Handler reacts to one delivered event
type Handler func(ctx context.Context, e Event) error

// Publisher is the producer side of the bus
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Sink forwards published events to an external transport
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}

// PublisherFunc adapts a func to Publisher
type PublisherFunc func(ctx context.Context, e Event) error

// Publish implements Publisher
func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

type subscription struct {
	id int
	h  Handler
}

// Bus is an in-process dispatcher keyed by event name
// Publish delivers to local subscribers and then to every sink
type Bus struct {
	mu    sync.RWMutex
	next  int
	subs  map[string][]subscription
	sinks []Sink
	log   logger.Logger
}

// Option configures a Bus
type Option func(*Bus)

// WithSink adds an external transport
func WithSink(s Sink) Option {
	return func(b *Bus) {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
}

// WithLogger sets the bus logger
func WithLogger(l logger.Logger) Option { return func(b *Bus) { b.log = l } }

// NewBus builds an empty bus
func NewBus(opts ...Option) *Bus {
	b := &Bus{subs: map[string][]subscription{}, log: *logger.Named("events")}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Subscribe registers h for name and returns a func that removes it
func (b *Bus) Subscribe(name string, h Handler) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[name] = append(b.subs[name], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			cur := b.subs[name]
			for i, s := range cur {
				if s.id == id {
					b.subs[name] = append(cur[:i:i], cur[i+1:]...)
					break
				}
			}
			if len(b.subs[name]) == 0 {
				delete(b.subs, name)
			}
		})
	}
}

// Publish delivers e locally and forwards it to the sinks
// an event nobody receives is an ErrNoReceiver error, never a silent drop
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e == nil {
		return errors.New("events: nil event")
	}
	n, err := b.deliver(ctx, e)
	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()
	if n == 0 && len(sinks) == 0 {
		return perr.Tag(ErrNoReceiver, fmt.Errorf("events: %s has no receiver", e.EventName()))
	}
	errs := []error{err}
	for _, s := range sinks {
		if err := s.Send(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("events: sink %s: %w", e.EventName(), err))
		}
	}
	return errors.Join(errs...)
}

// Deliver runs the local subscribers of e in registration order
// transports use it so consumed events are not forwarded again
func (b *Bus) Deliver(ctx context.Context, e Event) error {
	_, err := b.deliver(ctx, e)
	return err
}

func (b *Bus) deliver(ctx context.Context, e Event) (int, error) {
	name := e.EventName()
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.subs[name]))
	for _, s := range b.subs[name] {
		hs = append(hs, s.h)
	}
	b.mu.RUnlock()

	if len(hs) == 0 {
		b.log.Debug().Str("event", name).Msg("no subscribers")
		return 0, nil
	}
	var errs []error
	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("events: handler %s: %w", name, err))
		}
	}
	return len(hs), errors.Join(errs...)
}

// Close closes every sink
func (b *Bus) Close() error {
	var errs []error
	for _, s := range b.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

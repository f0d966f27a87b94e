// Package event is a synchronous topic bus. Every subscription is owned by
// a generation so that a reload can drop all of one generation's handlers
// in one call.
package event

import (
	"context"
	"log/slog"
	"slices"

	scripthost "github.com/reglet-dev/reglet-scripthost"
)

// Well-known topics.
const (
	TopicUpdate      = "update"
	TopicSceneLoaded = "sceneLoaded"
	TopicOutput      = "output"
)

// Event is one published message.
type Event struct {
	Topic   string
	Payload any
}

// Handler receives published events. A returned error or a panic is
// contained by the bus's Boundary and does not stop delivery to the others.
type Handler func(ev Event) error

// Subscription identifies one registered handler.
type Subscription struct {
	ID    uint64
	Topic string
	Owner scripthost.Generation
	bus   *Bus
}

// Unsubscribe removes the handler. It is safe to call more than once.
func (s Subscription) Unsubscribe() bool {
	if s.bus == nil {
		return false
	}
	return s.bus.Unsubscribe(s.ID)
}

type entry struct {
	id      uint64
	owner   scripthost.Generation
	handler Handler
}

// Bus is not safe for concurrent use; it belongs to the owning goroutine
// like the rest of the host.
type Bus struct {
	topics   map[string][]*entry
	nextID   uint64
	boundary *scripthost.Boundary
	logger   *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithBoundary sets the boundary handlers run inside.
func WithBoundary(b *scripthost.Boundary) Option {
	return func(bus *Bus) { bus.boundary = b }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(bus *Bus) {
		if logger != nil {
			bus.logger = logger
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		topics: make(map[string][]*entry),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.boundary == nil {
		b.boundary = scripthost.NewBoundary(scripthost.WithBoundaryLogger(b.logger))
	}
	return b
}

// Subscribe registers fn for topic on behalf of owner.
func (b *Bus) Subscribe(topic string, owner scripthost.Generation, fn Handler) Subscription {
	b.nextID++
	b.topics[topic] = append(b.topics[topic], &entry{id: b.nextID, owner: owner, handler: fn})
	return Subscription{ID: b.nextID, Topic: topic, Owner: owner, bus: b}
}

// Unsubscribe removes the handler with the given id.
func (b *Bus) Unsubscribe(id uint64) bool {
	for topic, entries := range b.topics {
		for i, e := range entries {
			if e.id == id {
				b.topics[topic] = slices.Delete(entries, i, i+1)
				return true
			}
		}
	}
	return false
}

// Publish delivers payload to every handler of topic in subscription order.
// Handlers added during delivery receive the next publish, not this one.
// It returns the number of handlers that faulted.
func (b *Bus) Publish(topic string, payload any) int {
	snapshot := slices.Clone(b.topics[topic])
	ev := Event{Topic: topic, Payload: payload}

	faults := 0
	for _, e := range snapshot {
		if !b.live(topic, e) {
			continue
		}
		h := e.handler
		err := b.boundary.Run("event:"+topic, func(context.Context) error { return h(ev) })
		if err != nil {
			faults++
		}
	}
	return faults
}

// live reports whether e is still subscribed; a handler may remove a later one.
func (b *Bus) live(topic string, e *entry) bool {
	return slices.Contains(b.topics[topic], e)
}

// DetachOwner removes every handler owned by g and returns how many there were.
func (b *Bus) DetachOwner(g scripthost.Generation) int {
	removed := 0
	for topic, entries := range b.topics {
		kept := entries[:0]
		for _, e := range entries {
			if e.owner == g {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(b.topics, topic)
		} else {
			b.topics[topic] = kept
		}
	}
	if removed > 0 {
		b.logger.Debug("detached event handlers", "generation", g, "count", removed)
	}
	return removed
}

// Count returns the number of handlers on topic, or on every topic when
// topic is empty.
func (b *Bus) Count(topic string) int {
	if topic != "" {
		return len(b.topics[topic])
	}
	n := 0
	for _, entries := range b.topics {
		n += len(entries)
	}
	return n
}

// Package events is a synchronous in-process publish/subscribe bus carrying
// typed domain events between the finance store, the planner store and any
// external listener.
//
// Publish delivers to every subscriber before returning. Handlers may call
// back into the stores, which may publish again; the nesting depth is bounded
// per call chain by MaxDepth, but cycles are normally broken by the
// models.Origin skip flag long before that. The depth travels in the context
// handed to handlers, so concurrent top-level publications do not add up.
package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/metrics"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// DefaultMaxDepth bounds nested publications.
const DefaultMaxDepth = 8

// Event is one published domain event.
type Event struct {
	Name    Name
	Origin  models.Origin
	Payload any
	At      time.Time
}

// Handler receives events.
type Handler func(ctx context.Context, e Event)

type subscription struct {
	id int
	fn Handler
}

// Bus is a typed, synchronous dispatcher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]subscription
	all      []subscription
	nextID   int

	maxSeen  atomic.Int32
	maxDepth int32

	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithMetrics records publications.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// WithLogger sets the logger used for dropped events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(b *Bus) { b.maxDepth = int32(n) }
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[Name][]subscription),
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for one event name. The returned func unsubscribes.
func (b *Bus) Subscribe(name Name, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, fn: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[name] = remove(b.handlers[name], id)
	}
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, fn: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, id)
	}
}

type depthKey struct{}

// Depth returns how many publications ctx is nested in. A context that did not
// come from a handler is at depth 0.
func Depth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int32)
	return int(d)
}

// Publish delivers the event to every subscriber, in subscription order.
// Handlers receive a context one level deeper than ctx and must pass it on to
// anything that publishes again.
func (b *Bus) Publish(ctx context.Context, name Name, origin models.Origin, payload any) {
	depth := int32(Depth(ctx)) + 1
	if depth > b.maxDepth {
		b.logger.Error("Event dropped, propagation too deep", "event", name, "depth", depth)
		b.metrics.EventDropped(string(name))
		return
	}
	for {
		seen := b.maxSeen.Load()
		if depth <= seen || b.maxSeen.CompareAndSwap(seen, depth) {
			break
		}
	}

	b.mu.RLock()
	subs := make([]subscription, 0, len(b.handlers[name])+len(b.all))
	subs = append(subs, b.handlers[name]...)
	subs = append(subs, b.all...)
	b.mu.RUnlock()

	ctx = context.WithValue(ctx, depthKey{}, depth)
	e := Event{Name: name, Origin: origin, Payload: payload, At: b.now()}
	for _, s := range subs {
		s.fn(ctx, e)
	}
	b.metrics.EventPublished(string(name))
}

// MaxDepthSeen returns the deepest nesting of publications observed so far.
func (b *Bus) MaxDepthSeen() int {
	return int(b.maxSeen.Load())
}

// ResetDepthStats clears MaxDepthSeen.
func (b *Bus) ResetDepthStats() {
	b.maxSeen.Store(0)
}

// On subscribes a handler that receives the payload already asserted to T.
// Events carrying a different payload type are ignored.
func On[T any](b *Bus, name Name, fn func(ctx context.Context, origin models.Origin, payload T)) func() {
	return b.Subscribe(name, func(ctx context.Context, e Event) {
		p, ok := e.Payload.(T)
		if !ok {
			b.logger.Warn("Unexpected event payload", "event", e.Name)
			return
		}
		fn(ctx, e.Origin, p)
	})
}

func remove(subs []subscription, id int) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

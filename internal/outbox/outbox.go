// Package outbox is the write-behind queue between the domain stores and the
// persistence DAO.
//
// Stores update their in-memory collections first and enqueue the matching
// DAO write here; the in-memory state stays authoritative for the session
// whatever happens to the write. Writes are replayed in enqueue order.
// While offline, or when the DAO reports storage.ErrUnavailable, operations
// stay queued for a later Drain. Any other failure is logged and the
// operation dropped. Replays are last-write-wins.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/metrics"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/storage"
)

// WriteFunc performs one persistence write.
type WriteFunc func(ctx context.Context, s storage.Store) error

// Op is a queued write.
type Op struct {
	Seq        uint64
	Name       string
	EnqueuedAt time.Time
	Attempts   int
	write      WriteFunc
}

// Outbox queues writes for a storage.Store.
type Outbox struct {
	mu      sync.Mutex
	drainMu sync.Mutex

	store  storage.Store
	queue  []Op
	seq    uint64
	online bool

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures an Outbox.
type Option func(*Outbox)

// WithLogger sets the logger used for failed writes.
func WithLogger(l *slog.Logger) Option {
	return func(o *Outbox) { o.logger = l }
}

// WithMetrics records queue depth and failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Outbox) { o.metrics = m }
}

// Offline starts the outbox in offline mode.
func Offline() Option {
	return func(o *Outbox) { o.online = false }
}

// New creates an outbox writing to store.
func New(store storage.Store, opts ...Option) *Outbox {
	o := &Outbox{
		store:  store,
		online: true,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue adds a write to the end of the queue. It never blocks on I/O.
func (o *Outbox) Enqueue(name string, fn WriteFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	o.queue = append(o.queue, Op{
		Seq:        o.seq,
		Name:       name,
		EnqueuedAt: o.now(),
		write:      fn,
	})
	o.metrics.SetOutboxDepth(len(o.queue))
}

// SetOnline switches between online and offline mode.
func (o *Outbox) SetOnline(online bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.online = online
}

// Online reports whether queued writes are currently being replayed.
func (o *Outbox) Online() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

// Len returns the number of queued writes.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Pending returns a copy of the queued operations, oldest first.
func (o *Outbox) Pending() []Op {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Op, len(o.queue))
	copy(out, o.queue)
	return out
}

// Drain replays queued writes in order until the queue is empty, the outbox
// goes offline, or the store reports storage.ErrUnavailable. It returns the
// number of writes that succeeded.
func (o *Outbox) Drain(ctx context.Context) int {
	o.drainMu.Lock()
	defer o.drainMu.Unlock()

	written := 0
	for {
		if ctx.Err() != nil {
			return written
		}

		o.mu.Lock()
		if !o.online || len(o.queue) == 0 {
			o.mu.Unlock()
			return written
		}
		op := o.queue[0]
		o.mu.Unlock()

		err := op.write(ctx, o.store)

		o.mu.Lock()
		if errors.Is(err, storage.ErrUnavailable) {
			o.queue[0].Attempts++
			o.mu.Unlock()
			o.logger.Warn("Storage unavailable, keeping write queued", "op", op.Name, "seq", op.Seq)
			return written
		}
		o.queue = o.queue[1:]
		o.metrics.SetOutboxDepth(len(o.queue))
		o.mu.Unlock()

		if err != nil {
			o.logger.Warn("Persistence write failed", "op", op.Name, "seq", op.Seq, "error", err)
			o.metrics.PersistFailed(op.Name)
			continue
		}
		written++
		o.metrics.Replayed()
	}
}

// Run drains the queue every interval until ctx is done, then drains once more.
func (o *Outbox) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			o.Drain(context.Background())
			return
		case <-ticker.C:
			o.Drain(ctx)
		}
	}
}

// Discard is a persister that drops every write. Useful for tests that only
// care about in-memory state.
type Discard struct{}

func (Discard) Enqueue(string, WriteFunc) {}

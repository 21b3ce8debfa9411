package activity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"placement-portal/internal/logger"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Subscriber represents a connection that receives every published event
type Subscriber struct {
	Ch   chan Event
	Done chan struct{}
}

// ConnInfo holds connection metadata
type ConnInfo struct {
	ID          ulid.ULID
	ConnectedAt time.Time
	Subscriber  *Subscriber
}

// Hub fans out account events to admin dashboards. Slow consumers lose
// events instead of blocking publishers.
type Hub struct {
	mu         sync.RWMutex
	conns      map[ulid.ULID]ConnInfo
	bufferSize int
	dropped    uint64

	published *prometheus.CounterVec
	drops     prometheus.Counter
}

// NewHub creates a new event hub with configurable buffer size
func NewHub(bufferSize int) *Hub {
	return &Hub{
		conns:      make(map[ulid.ULID]ConnInfo),
		bufferSize: bufferSize,
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_events_total",
			Help: "Account lifecycle events published, by type",
		}, []string{"type"}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "account_events_dropped_total",
			Help: "Events dropped because a subscriber outbox was full",
		}),
	}
}

// Collectors exposes the hub metrics for registration.
func (h *Hub) Collectors() []prometheus.Collector {
	return []prometheus.Collector{h.published, h.drops}
}

// Subscribe adds a new subscriber to the hub
func (h *Hub) Subscribe(connULID ulid.ULID) (*Subscriber, func()) {
	debugf("subscribing connection", "conn_id", connULID.String())

	sub := &Subscriber{
		Ch:   make(chan Event, h.bufferSize),
		Done: make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[connULID] = ConnInfo{
		ID:          connULID,
		ConnectedAt: time.Now(),
		Subscriber:  sub,
	}
	h.mu.Unlock()

	return sub, func() { h.Unsubscribe(connULID) }
}

// Unsubscribe removes a subscriber and closes its channels. Unknown ids are ignored.
func (h *Hub) Unsubscribe(connULID ulid.ULID) {
	debugf("unsubscribing connection", "conn_id", connULID.String())

	h.mu.Lock()
	info, ok := h.conns[connULID]
	if ok {
		delete(h.conns, connULID)
	}
	h.mu.Unlock()

	if ok {
		close(info.Subscriber.Ch)
		close(info.Subscriber.Done)
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.published.WithLabelValues(ev.Type).Inc()
	debugf("publishing event", "event_type", ev.Type, "event_id", ev.ID.String())

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, info := range h.conns {
		sendOrDrop(info.Subscriber.Ch, ev, func() {
			atomic.AddUint64(&h.dropped, 1)
			h.drops.Inc()
			if log := logger.L(); log != nil {
				log.Warn("outbox full, dropping event", "conn_id", info.ID.String(), "event_type", ev.Type)
			}
		})
	}
}

// SubscriberCount returns the current number of subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Stats returns current counters for observability / tests.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	return h.SubscriberCount(), atomic.LoadUint64(&h.dropped)
}

// sendOrDrop is the only place that can decide to drop an event.
func sendOrDrop(ch chan Event, ev Event, onDrop func()) {
	select {
	case ch <- ev:
	default:
		onDrop()
	}
}

func debugf(msg string, args ...any) {
	log := logger.L()
	if log != nil && log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug(msg, args...)
	}
}

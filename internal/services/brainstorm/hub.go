package brainstorm

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"traveler/internal/logger"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscriber represents a connection that can receive board events
type Subscriber struct {
	TripID bson.ObjectID
	Ch     chan Event
	Done   chan struct{}
}

// ConnInfo holds connection metadata
type ConnInfo struct {
	ID          ulid.ULID
	ConnectedAt time.Time
	Subscriber  *Subscriber
}

// tripSubs holds subscribers for a specific trip
type tripSubs struct {
	mu sync.RWMutex
	m  map[ulid.ULID]ConnInfo
}

// Hub manages WebSocket connections and broadcasts board events to every
// collaborator on a trip except the one who caused the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[bson.ObjectID]*tripSubs
	connIndex   map[ulid.ULID]bson.ObjectID
	bufferSize  int
	dropped     uint64
}

// NewHub creates a new event hub with configurable buffer size
func NewHub(bufferSize int) *Hub {
	return &Hub{
		subscribers: make(map[bson.ObjectID]*tripSubs),
		connIndex:   make(map[ulid.ULID]bson.ObjectID),
		bufferSize:  bufferSize,
	}
}

// Subscribe adds a new subscriber to the hub
func (h *Hub) Subscribe(connULID ulid.ULID, tripID bson.ObjectID) (*Subscriber, func()) {
	log := logger.L()
	if log != nil && log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("subscribing connection", "conn_id", connULID.String(), "trip_id", tripID.Hex())
	}

	h.mu.Lock()
	tripBucket, exists := h.subscribers[tripID]
	if !exists {
		tripBucket = &tripSubs{
			m: make(map[ulid.ULID]ConnInfo),
		}
		h.subscribers[tripID] = tripBucket
	}
	h.mu.Unlock()

	tripBucket.mu.Lock()
	defer tripBucket.mu.Unlock()

	sub := &Subscriber{
		TripID: tripID,
		Ch:     make(chan Event, h.bufferSize),
		Done:   make(chan struct{}),
	}

	connInfo := ConnInfo{
		ID:          connULID,
		ConnectedAt: time.Now(),
		Subscriber:  sub,
	}

	tripBucket.m[connULID] = connInfo

	h.mu.Lock()
	h.connIndex[connULID] = tripID
	h.mu.Unlock()

	cancel := func() {
		h.Unsubscribe(connULID)
	}
	return sub, cancel
}

// Unsubscribe removes a subscriber from the hub
func (h *Hub) Unsubscribe(connULID ulid.ULID) {
	log := logger.L()
	if log != nil && log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("unsubscribing connection", "conn_id", connULID.String())
	}

	h.mu.RLock()
	tid, ok := h.connIndex[connULID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	h.mu.RLock()
	bucket := h.subscribers[tid]
	h.mu.RUnlock()
	if bucket == nil {
		h.mu.Lock()
		delete(h.connIndex, connULID)
		h.mu.Unlock()
		return
	}

	bucket.mu.Lock()
	connInfo, exists := bucket.m[connULID]
	if exists {
		delete(bucket.m, connULID)
	}
	empty := len(bucket.m) == 0
	bucket.mu.Unlock()

	if exists {
		close(connInfo.Subscriber.Ch)
		close(connInfo.Subscriber.Done)
	}

	h.mu.Lock()
	delete(h.connIndex, connULID)
	if empty {
		delete(h.subscribers, tid)
	}
	h.mu.Unlock()
}

// Broadcast delivers ev to every subscriber of ev.TripID except origin.
// Self-exclusion is the hub's job: the originating client already
// applied its change optimistically and must not receive an echo.
func (h *Hub) Broadcast(_ context.Context, ev Event, origin ulid.ULID) {
	log := logger.L()
	if log != nil && log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("broadcasting event", "trip_id", ev.TripID.Hex(), "event_type", ev.Type)
	}

	bucket := h.bucket(ev.TripID)
	if bucket == nil {
		return
	}

	bucket.mu.RLock()
	for _, connInfo := range bucket.m {
		if connInfo.ID == origin {
			continue
		}
		sendOrDrop(connInfo.Subscriber.Ch, ev, func() {
			atomic.AddUint64(&h.dropped, 1)
			if log != nil {
				log.Warn("outbox full — dropping event", "conn_id", connInfo.ID.String(), "trip_id", connInfo.Subscriber.TripID.Hex(), "event_type", ev.Type)
			}
		})
	}
	bucket.mu.RUnlock()
}

// GetSubscriberCount returns the current number of subscribers (for testing)
func (h *Hub) GetSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	totalCount := 0
	for _, tripBucket := range h.subscribers {
		tripBucket.mu.RLock()
		totalCount += len(tripBucket.m)
		tripBucket.mu.RUnlock()
	}
	return totalCount
}

// sendOrDrop is the only place that can decide to drop an event.
func sendOrDrop(ch chan Event, ev Event, onDrop func()) {
	select {
	case ch <- ev: // hot path, no nesting
	default:
		onDrop()
	}
}

// Stats returns current pointers for observability / tests.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	return h.GetSubscriberCount(), atomic.LoadUint64(&h.dropped)
}

// helper: returns bucket or nil (tiny wrapper keeps Broadcast tidy)
func (h *Hub) bucket(tid bson.ObjectID) *tripSubs {
	h.mu.RLock()
	b := h.subscribers[tid]
	h.mu.RUnlock()
	return b
}

package brainstorm

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"traveler/internal/config"
	"traveler/internal/logger"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newConnULID(t *testing.T) ulid.ULID {
	t.Helper()
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
}

func initQuietLogger(t *testing.T) {
	t.Helper()
	cfg := config.Config{LogLevel: "error", LogFormat: "text"}
	_, err := logger.Init(cfg)
	require.NoError(t, err)
}

func TestHub_ChannelClosedAfterUnsubscribe(t *testing.T) {
	initQuietLogger(t)
	hub := NewHub(256)
	tripID := bson.NewObjectID()
	connULID := newConnULID(t)

	sub, cancel := hub.Subscribe(connULID, tripID)
	require.NotNil(t, sub)
	require.NotNil(t, cancel)

	hub.Unsubscribe(connULID)

	// Verify that sending on the channel panics (channel closed)
	assert.Panics(t, func() {
		sub.Ch <- Event{Type: EventItemCreated}
	}, "should panic when sending to closed channel")

	select {
	case <-sub.Done:
		// Expected - channel should be closed
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Done channel should be closed")
	}
}

func TestHub_BroadcastReachesTripSubscribers(t *testing.T) {
	initQuietLogger(t)
	hub := NewHub(16)
	tripID := bson.NewObjectID()
	otherTrip := bson.NewObjectID()

	subA, cancelA := hub.Subscribe(newConnULID(t), tripID)
	defer cancelA()
	subB, cancelB := hub.Subscribe(newConnULID(t), tripID)
	defer cancelB()
	subOther, cancelOther := hub.Subscribe(newConnULID(t), otherTrip)
	defer cancelOther()

	ev := Event{Type: EventItemCreated, TripID: tripID, Item: &Item{ID: bson.NewObjectID(), TripID: tripID}}
	hub.Broadcast(context.Background(), ev, ulid.ULID{})

	for _, sub := range []*Subscriber{subA, subB} {
		select {
		case got := <-sub.Ch:
			assert.Equal(t, EventItemCreated, got.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber on the trip should receive the event")
		}
	}

	select {
	case <-subOther.Ch:
		t.Fatal("subscriber on a different trip must not receive the event")
	default:
	}
}

func TestHub_BroadcastSkipsOriginConnection(t *testing.T) {
	initQuietLogger(t)
	hub := NewHub(16)
	tripID := bson.NewObjectID()

	originConn := newConnULID(t)
	subOrigin, cancelOrigin := hub.Subscribe(originConn, tripID)
	defer cancelOrigin()
	subPeer, cancelPeer := hub.Subscribe(newConnULID(t), tripID)
	defer cancelPeer()

	ev := Event{Type: EventItemMoved, TripID: tripID, Item: &Item{ID: bson.NewObjectID(), TripID: tripID}}
	hub.Broadcast(context.Background(), ev, originConn)

	select {
	case got := <-subPeer.Ch:
		assert.Equal(t, EventItemMoved, got.Type)
	case <-time.After(time.Second):
		t.Fatal("peer should receive the event")
	}

	select {
	case <-subOrigin.Ch:
		t.Fatal("originating connection must not receive its own broadcast")
	default:
	}
}

func TestHub_BroadcastToEmptyTripIsNoOp(t *testing.T) {
	initQuietLogger(t)
	hub := NewHub(16)

	ev := Event{Type: EventItemDeleted, TripID: bson.NewObjectID()}
	hub.Broadcast(context.Background(), ev, ulid.ULID{}) // must not panic

	subs, dropped := hub.Stats()
	assert.Equal(t, 0, subs)
	assert.Equal(t, uint64(0), dropped)
}

func TestHub_DropsWhenOutboxFull(t *testing.T) {
	initQuietLogger(t)
	hub := NewHub(1)
	tripID := bson.NewObjectID()

	sub, cancel := hub.Subscribe(newConnULID(t), tripID)
	defer cancel()

	ev := Event{Type: EventItemCreated, TripID: tripID, Item: &Item{TripID: tripID}}
	hub.Broadcast(context.Background(), ev, ulid.ULID{})
	hub.Broadcast(context.Background(), ev, ulid.ULID{}) // overflows the 1-slot buffer

	_, dropped := hub.Stats()
	assert.Equal(t, uint64(1), dropped)

	// The first event is still deliverable.
	select {
	case <-sub.Ch:
	case <-time.After(time.Second):
		t.Fatal("buffered event should be deliverable")
	}
}

func TestHub_SubscriberCount(t *testing.T) {
	initQuietLogger(t)
	hub := NewHub(4)
	tripID := bson.NewObjectID()

	_, cancelA := hub.Subscribe(newConnULID(t), tripID)
	_, cancelB := hub.Subscribe(newConnULID(t), bson.NewObjectID())
	assert.Equal(t, 2, hub.GetSubscriberCount())

	cancelA()
	assert.Equal(t, 1, hub.GetSubscriberCount())
	cancelB()
	assert.Equal(t, 0, hub.GetSubscriberCount())
}

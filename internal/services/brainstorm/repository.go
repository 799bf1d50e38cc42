package brainstorm

import (
	"context"

	"traveler/internal/canvas"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ItemsRepository defines the interface for item persistence.
type ItemsRepository interface {
	Create(ctx context.Context, item *Item) error
	ListByTrip(ctx context.Context, tripID bson.ObjectID) ([]*Item, error)
	// Positions returns only the canvas coordinates of a trip's items,
	// for collision checks during placement.
	Positions(ctx context.Context, tripID bson.ObjectID) ([]canvas.Point, error)
	Update(ctx context.Context, itemID bson.ObjectID, patch UpdateItem) (*Item, error)
	// UpdatePosition patches just the two position fields and returns
	// the updated item.
	UpdatePosition(ctx context.Context, itemID bson.ObjectID, x, y float64) (*Item, error)
	// Delete removes the item and returns the deleted document so the
	// caller knows which trip to broadcast on.
	Delete(ctx context.Context, itemID bson.ObjectID) (*Item, error)
}

// GroupsRepository defines the interface for group persistence.
type GroupsRepository interface {
	Create(ctx context.Context, group *Group) error
	ListByTrip(ctx context.Context, tripID bson.ObjectID) ([]*Group, error)
	Update(ctx context.Context, groupID bson.ObjectID, patch UpdateGroup) (*Group, error)
	Delete(ctx context.Context, groupID bson.ObjectID) (*Group, error)
}

// Bus defines the interface for event broadcasting. origin is the
// WebSocket connection ULID of the client that caused the event; that
// connection is skipped so clients never receive their own broadcasts.
// A zero origin excludes nobody.
type Bus interface {
	Broadcast(ctx context.Context, ev Event, origin ulid.ULID)
}

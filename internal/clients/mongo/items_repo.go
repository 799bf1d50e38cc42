package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"traveler/internal/canvas"
	"traveler/internal/logger"
	"traveler/internal/services/brainstorm"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ItemsRepo implements the brainstorm.ItemsRepository interface for MongoDB
type ItemsRepo struct {
	collection *mongo.Collection
}

func repoCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return WithRepoTimeout(parent, OpTimeout)
}

// translateItemNotFound maps the driver ErrNoDocuments to the domain-level ErrItemNotFound.
func translateItemNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return brainstorm.ErrItemNotFound
	}
	return err
}

// NewItemsRepo creates a new brainstorm items repository
func NewItemsRepo(parentCtx context.Context, db *mongo.Database) (*ItemsRepo, error) {
	collection := db.Collection("brainstorm_items")

	// Boards load a trip's full item set at mount, newest first.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "trip_id", Value: 1},
				{Key: "_id", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "trip_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	for _, indexModel := range indexes {
		_, err := collection.Indexes().CreateOne(ctx, indexModel)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				logger.L().Debug("index already exists, continuing", "collection", "brainstorm_items")
			} else {
				logger.L().Error("failed to create index", "collection", "brainstorm_items", "error", err)
				return nil, fmt.Errorf("failed to create brainstorm_items collection index: %w", err)
			}
		}
	}

	return &ItemsRepo{
		collection: collection,
	}, nil
}

// Create inserts a new item
func (r *ItemsRepo) Create(ctx context.Context, item *brainstorm.Item) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		item.ID = oid
	}
	return nil
}

// ListByTrip retrieves a trip's full item set, newest first
func (r *ItemsRepo) ListByTrip(ctx context.Context, tripID bson.ObjectID) ([]*brainstorm.Item, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"trip_id": tripID}, opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	items := []*brainstorm.Item{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Positions projects just the canvas coordinates of a trip's items, for
// collision checks during placement.
func (r *ItemsRepo) Positions(ctx context.Context, tripID bson.ObjectID) ([]canvas.Point, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"position_x": 1, "position_y": 1})

	cursor, err := r.collection.Find(ctx, bson.M{"trip_id": tripID}, opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	var docs []struct {
		PositionX float64 `bson:"position_x"`
		PositionY float64 `bson:"position_y"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	points := make([]canvas.Point, 0, len(docs))
	for _, d := range docs {
		points = append(points, canvas.Point{X: d.PositionX, Y: d.PositionY})
	}
	return points, nil
}

// Update patches the provided item fields
func (r *ItemsRepo) Update(ctx context.Context, itemID bson.ObjectID, patch brainstorm.UpdateItem) (*brainstorm.Item, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	filter := bson.M{"_id": itemID}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.URL != nil {
		set["url"] = *patch.URL
	}
	if patch.LocationName != nil {
		set["location_name"] = *patch.LocationName
	}
	if patch.Latitude != nil {
		set["latitude"] = *patch.Latitude
	}
	if patch.Longitude != nil {
		set["longitude"] = *patch.Longitude
	}
	if patch.ImagePath != nil {
		set["image_path"] = *patch.ImagePath
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}

	// Skip the write if only updated_at would be set
	if len(set) == 1 {
		var existing brainstorm.Item
		err := r.collection.FindOne(ctx, filter).Decode(&existing)
		if err != nil {
			return nil, translateItemNotFound(err)
		}
		return &existing, nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated brainstorm.Item
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, translateItemNotFound(err)
	}
	return &updated, nil
}

// UpdatePosition writes only the canvas coordinates, so a concurrent
// field edit is never clobbered by a drag.
func (r *ItemsRepo) UpdatePosition(ctx context.Context, itemID bson.ObjectID, x, y float64) (*brainstorm.Item, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"position_x": x,
			"position_y": y,
			"updated_at": time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated brainstorm.Item
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": itemID}, update, opts).Decode(&updated)
	if err != nil {
		return nil, translateItemNotFound(err)
	}
	return &updated, nil
}

// Delete removes an item and returns the deleted document
func (r *ItemsRepo) Delete(ctx context.Context, itemID bson.ObjectID) (*brainstorm.Item, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var deleted brainstorm.Item
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": itemID}).Decode(&deleted)
	if err != nil {
		return nil, translateItemNotFound(err)
	}
	return &deleted, nil
}

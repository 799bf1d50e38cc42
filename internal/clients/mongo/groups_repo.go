package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"traveler/internal/logger"
	"traveler/internal/services/brainstorm"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GroupsRepo implements the brainstorm.GroupsRepository interface for MongoDB
type GroupsRepo struct {
	collection *mongo.Collection
}

// translateGroupNotFound maps the driver ErrNoDocuments to the domain-level ErrGroupNotFound.
func translateGroupNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return brainstorm.ErrGroupNotFound
	}
	return err
}

// NewGroupsRepo creates a new brainstorm groups repository
func NewGroupsRepo(parentCtx context.Context, db *mongo.Database) (*GroupsRepo, error) {
	collection := db.Collection("brainstorm_groups")

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "trip_id", Value: 1},
			{Key: "_id", Value: 1},
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.L().Debug("index already exists, continuing", "collection", "brainstorm_groups")
		} else {
			logger.L().Error("failed to create index", "collection", "brainstorm_groups", "error", err)
			return nil, fmt.Errorf("failed to create brainstorm_groups collection index: %w", err)
		}
	}

	return &GroupsRepo{
		collection: collection,
	}, nil
}

// Create inserts a new group
func (r *GroupsRepo) Create(ctx context.Context, group *brainstorm.Group) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		group.ID = oid
	}
	return nil
}

// ListByTrip retrieves a trip's full group set in creation order
func (r *GroupsRepo) ListByTrip(ctx context.Context, tripID bson.ObjectID) ([]*brainstorm.Group, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"trip_id": tripID}, opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	groups := []*brainstorm.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Update patches the provided group fields
func (r *GroupsRepo) Update(ctx context.Context, groupID bson.ObjectID, patch brainstorm.UpdateGroup) (*brainstorm.Group, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	filter := bson.M{"_id": groupID}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.PositionX != nil {
		set["position_x"] = *patch.PositionX
	}
	if patch.PositionY != nil {
		set["position_y"] = *patch.PositionY
	}
	if patch.Width != nil {
		set["width"] = *patch.Width
	}
	if patch.Height != nil {
		set["height"] = *patch.Height
	}
	if patch.Color != nil {
		set["color"] = *patch.Color
	}

	if len(set) == 1 {
		var existing brainstorm.Group
		err := r.collection.FindOne(ctx, filter).Decode(&existing)
		if err != nil {
			return nil, translateGroupNotFound(err)
		}
		return &existing, nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated brainstorm.Group
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, translateGroupNotFound(err)
	}
	return &updated, nil
}

// Delete removes a group and returns the deleted document
func (r *GroupsRepo) Delete(ctx context.Context, groupID bson.ObjectID) (*brainstorm.Group, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var deleted brainstorm.Group
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": groupID}).Decode(&deleted)
	if err != nil {
		return nil, translateGroupNotFound(err)
	}
	return &deleted, nil
}

package brainstorm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"traveler/internal/canvas"
	"traveler/internal/utils/sanitize"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Default geometry for new groups, created near the caller's viewport
// center when no explicit rectangle is given.
const (
	DefaultGroupWidth  = 320.0
	DefaultGroupHeight = 240.0
	DefaultGroupColor  = "#93C5FD"
)

// Creator is the denormalized attribution stamped onto new items, taken
// from the authenticated caller's claims.
type Creator struct {
	ID    bson.ObjectID
	Name  string
	Image string
}

// Service handles brainstorm board business logic
type Service struct {
	items  ItemsRepository
	groups GroupsRepository
	bus    Bus
	placer *canvas.Placer
	log    *slog.Logger
}

// NewService creates a new brainstorm service
func NewService(items ItemsRepository, groups GroupsRepository, bus Bus, log *slog.Logger) *Service {
	return &Service{
		items:  items,
		groups: groups,
		bus:    bus,
		placer: canvas.NewPlacer(),
		log:    log,
	}
}

// CreateItemRequest represents an item creation request. Position is
// optional: omitted positions are assigned by the spiral placer so new
// cards never land on existing ones.
type CreateItemRequest struct {
	Type         ItemType `json:"type" validate:"required,oneof=place note image link idea" example:"place"`
	Title        string   `json:"title" validate:"omitempty,max=200" example:"Senso-ji Temple"`
	Content      string   `json:"content" validate:"omitempty,max=4000"`
	URL          string   `json:"url" validate:"omitempty,max=2048"`
	LocationName string   `json:"location_name" validate:"omitempty,max=300"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude,required_with=Longitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude,required_with=Latitude"`
	ImagePath    string   `json:"image_path"`
	PositionX    *float64 `json:"position_x"`
	PositionY    *float64 `json:"position_y"`
	Priority     int      `json:"priority" validate:"min=0" example:"0"`
}

// MoveItemRequest carries just the drag-end coordinates. Kept separate
// from full updates so a drag can never clobber a concurrent field edit.
type MoveItemRequest struct {
	PositionX float64 `json:"position_x" example:"360"`
	PositionY float64 `json:"position_y" example:"100"`
}

// CreateGroupRequest represents a group creation request.
type CreateGroupRequest struct {
	Title     string   `json:"title" validate:"omitempty,max=200"`
	PositionX float64  `json:"position_x"`
	PositionY float64  `json:"position_y"`
	Width     *float64 `json:"width" validate:"omitempty,gt=0"`
	Height    *float64 `json:"height" validate:"omitempty,gt=0"`
	Color     string   `json:"color" validate:"omitempty,hexcolor"`
}

// ItemResponse represents a single item response
type ItemResponse struct {
	Item *Item `json:"item"`
}

// ListItemsResponse represents a trip's full item set. Boards load the
// whole set at mount; there is no pagination.
type ListItemsResponse struct {
	Items []*Item `json:"items"`
}

// GroupResponse represents a single group response
type GroupResponse struct {
	Group *Group `json:"group"`
}

// ListGroupsResponse represents a trip's full group set.
type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// CreateItem creates a new item on a trip's board. Items created
// without an explicit position get a non-overlapping one from the
// spiral placer, computed over the trip's current item positions.
func (s *Service) CreateItem(ctx context.Context, tripID bson.ObjectID, creator Creator, req CreateItemRequest, origin ulid.ULID) (*ItemResponse, error) {
	now := time.Now()
	item := &Item{
		ID:           bson.NewObjectID(),
		TripID:       tripID,
		Type:         req.Type,
		Title:        sanitize.Clean(req.Title),
		Content:      sanitize.Clean(req.Content),
		URL:          req.URL,
		LocationName: sanitize.Clean(req.LocationName),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		ImagePath:    req.ImagePath,
		Priority:     req.Priority,
		CreatorID:    creator.ID,
		CreatorName:  creator.Name,
		CreatorImage: creator.Image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.PositionX != nil && req.PositionY != nil {
		pos := canvas.Point{X: *req.PositionX, Y: *req.PositionY}.ClampNonNegative()
		item.PositionX = pos.X
		item.PositionY = pos.Y
	} else {
		occupied, err := s.items.Positions(ctx, tripID)
		if err != nil {
			s.log.Error(ErrCreateItem.Error(), "error", err, "trip_id", tripID.Hex())
			return nil, ErrCreateItem
		}
		pos := s.placer.Place(occupied)
		item.PositionX = pos.X
		item.PositionY = pos.Y
	}

	if err := s.items.Create(ctx, item); err != nil {
		s.log.Error(ErrCreateItem.Error(), "error", err, "trip_id", tripID.Hex())
		return nil, ErrCreateItem
	}

	s.bus.Broadcast(ctx, Event{
		Type:   EventItemCreated,
		TripID: tripID,
		Item:   item,
	}, origin)

	return &ItemResponse{Item: item}, nil
}

// ListItems retrieves a trip's full item set, newest first.
func (s *Service) ListItems(ctx context.Context, tripID bson.ObjectID) (*ListItemsResponse, error) {
	items, err := s.items.ListByTrip(ctx, tripID)
	if err != nil {
		s.log.Error(ErrListItems.Error(), "error", err, "trip_id", tripID.Hex())
		return nil, ErrListItems
	}
	return &ListItemsResponse{Items: items}, nil
}

// sanitizedUpdateItem cleans the text fields of an item patch.
func sanitizedUpdateItem(patch UpdateItem) UpdateItem {
	if patch.Title != nil {
		cleaned := sanitize.Clean(*patch.Title)
		patch.Title = &cleaned
	}
	if patch.Content != nil {
		cleaned := sanitize.Clean(*patch.Content)
		patch.Content = &cleaned
	}
	if patch.LocationName != nil {
		cleaned := sanitize.Clean(*patch.LocationName)
		patch.LocationName = &cleaned
	}
	return patch
}

// UpdateItem applies a full-field patch to an item.
func (s *Service) UpdateItem(ctx context.Context, itemID bson.ObjectID, req UpdateItem, origin ulid.ULID) (*ItemResponse, error) {
	patch := sanitizedUpdateItem(req)

	updated, err := s.items.Update(ctx, itemID, patch)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			s.log.Info("item not found for update", "item_id", itemID.Hex())
			return nil, ErrItemNotFound
		}
		s.log.Error(ErrUpdateItem.Error(), "error", err, "item_id", itemID.Hex())
		return nil, ErrUpdateItem
	}

	s.bus.Broadcast(ctx, Event{
		Type:   EventItemUpdated,
		TripID: updated.TripID,
		Item:   updated,
	}, origin)

	return &ItemResponse{Item: updated}, nil
}

// MoveItem patches just the position fields from a completed drag.
// Coordinates are clamped to >= 0 on both axes before persisting.
func (s *Service) MoveItem(ctx context.Context, itemID bson.ObjectID, req MoveItemRequest, origin ulid.ULID) (*ItemResponse, error) {
	pos := canvas.Point{X: req.PositionX, Y: req.PositionY}.ClampNonNegative()

	updated, err := s.items.UpdatePosition(ctx, itemID, pos.X, pos.Y)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			s.log.Info("item not found for move", "item_id", itemID.Hex())
			return nil, ErrItemNotFound
		}
		s.log.Error(ErrMoveItem.Error(), "error", err, "item_id", itemID.Hex())
		return nil, ErrMoveItem
	}

	// Move events carry the minimal payload: id plus the two coordinates.
	s.bus.Broadcast(ctx, Event{
		Type:   EventItemMoved,
		TripID: updated.TripID,
		Item: &Item{
			ID:        updated.ID,
			TripID:    updated.TripID,
			PositionX: updated.PositionX,
			PositionY: updated.PositionY,
		},
	}, origin)

	return &ItemResponse{Item: updated}, nil
}

// DeleteItem removes an item from the board.
func (s *Service) DeleteItem(ctx context.Context, itemID bson.ObjectID, origin ulid.ULID) error {
	deleted, err := s.items.Delete(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			s.log.Info("item not found for delete", "item_id", itemID.Hex())
			return ErrItemNotFound
		}
		s.log.Error(ErrDeleteItem.Error(), "error", err, "item_id", itemID.Hex())
		return ErrDeleteItem
	}

	s.bus.Broadcast(ctx, Event{
		Type:   EventItemDeleted,
		TripID: deleted.TripID,
		Item: &Item{
			ID:     deleted.ID,
			TripID: deleted.TripID,
		},
	}, origin)

	return nil
}

// CreateGroup creates a visual group rectangle with defaulted geometry.
func (s *Service) CreateGroup(ctx context.Context, tripID bson.ObjectID, req CreateGroupRequest, origin ulid.ULID) (*GroupResponse, error) {
	now := time.Now()
	group := &Group{
		ID:        bson.NewObjectID(),
		TripID:    tripID,
		Title:     sanitize.Clean(req.Title),
		PositionX: req.PositionX,
		PositionY: req.PositionY,
		Width:     DefaultGroupWidth,
		Height:    DefaultGroupHeight,
		Color:     req.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Width != nil {
		group.Width = *req.Width
	}
	if req.Height != nil {
		group.Height = *req.Height
	}
	if group.Color == "" {
		group.Color = DefaultGroupColor
	}

	if err := s.groups.Create(ctx, group); err != nil {
		s.log.Error(ErrCreateGroup.Error(), "error", err, "trip_id", tripID.Hex())
		return nil, ErrCreateGroup
	}

	s.bus.Broadcast(ctx, Event{
		Type:   EventGroupCreated,
		TripID: tripID,
		Group:  group,
	}, origin)

	return &GroupResponse{Group: group}, nil
}

// ListGroups retrieves a trip's full group set.
func (s *Service) ListGroups(ctx context.Context, tripID bson.ObjectID) (*ListGroupsResponse, error) {
	groups, err := s.groups.ListByTrip(ctx, tripID)
	if err != nil {
		s.log.Error(ErrListGroups.Error(), "error", err, "trip_id", tripID.Hex())
		return nil, ErrListGroups
	}
	return &ListGroupsResponse{Groups: groups}, nil
}

// UpdateGroup applies a move/resize/retitle patch to a group.
func (s *Service) UpdateGroup(ctx context.Context, groupID bson.ObjectID, req UpdateGroup, origin ulid.ULID) (*GroupResponse, error) {
	if req.Title != nil {
		cleaned := sanitize.Clean(*req.Title)
		req.Title = &cleaned
	}

	updated, err := s.groups.Update(ctx, groupID, req)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			s.log.Info("group not found for update", "group_id", groupID.Hex())
			return nil, ErrGroupNotFound
		}
		s.log.Error(ErrUpdateGroup.Error(), "error", err, "group_id", groupID.Hex())
		return nil, ErrUpdateGroup
	}

	s.bus.Broadcast(ctx, Event{
		Type:   EventGroupUpdated,
		TripID: updated.TripID,
		Group:  updated,
	}, origin)

	return &GroupResponse{Group: updated}, nil
}

// DeleteGroup removes a group rectangle. Items are never touched;
// groups do not own them.
func (s *Service) DeleteGroup(ctx context.Context, groupID bson.ObjectID, origin ulid.ULID) error {
	deleted, err := s.groups.Delete(ctx, groupID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			s.log.Info("group not found for delete", "group_id", groupID.Hex())
			return ErrGroupNotFound
		}
		s.log.Error(ErrDeleteGroup.Error(), "error", err, "group_id", groupID.Hex())
		return ErrDeleteGroup
	}

	s.bus.Broadcast(ctx, Event{
		Type:   EventGroupDeleted,
		TripID: deleted.TripID,
		Group: &Group{
			ID:     deleted.ID,
			TripID: deleted.TripID,
		},
	}, origin)

	return nil
}

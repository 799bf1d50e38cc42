package brainstorm

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ItemType is the closed set of brainstorm item kinds. The type decides
// which fields are meaningful and which icon/color scheme clients use.
type ItemType string

const (
	ItemTypePlace ItemType = "place"
	ItemTypeNote  ItemType = "note"
	ItemTypeImage ItemType = "image"
	ItemTypeLink  ItemType = "link"
	ItemTypeIdea  ItemType = "idea"
)

// Item is one card on a trip's brainstorm board. PositionX/PositionY are
// canvas-space coordinates (kept >= 0 by convention); Latitude/Longitude
// are an independent coordinate system; an item with both set is
// geo-anchored and also shows on the map companion view.
type Item struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075bd1"`
	TripID       bson.ObjectID `bson:"trip_id" json:"trip_id" example:"683cdb8aa96ad71e8e075bd0"`
	Type         ItemType      `bson:"type" json:"type" validate:"required,oneof=place note image link idea" example:"place"`
	Title        string        `bson:"title" json:"title" example:"Senso-ji Temple"`
	Content      string        `bson:"content,omitempty" json:"content,omitempty" example:"Oldest temple in Tokyo, go early"`
	URL          string        `bson:"url,omitempty" json:"url,omitempty" example:"https://example.com/senso-ji"`
	LocationName string        `bson:"location_name,omitempty" json:"location_name,omitempty" example:"Asakusa, Tokyo"`
	Latitude     *float64      `bson:"latitude,omitempty" json:"latitude,omitempty" example:"35.7148"`
	Longitude    *float64      `bson:"longitude,omitempty" json:"longitude,omitempty" example:"139.7967"`
	ImagePath    string        `bson:"image_path,omitempty" json:"image_path,omitempty" example:"uploads/4f2a.jpg"`
	PositionX    float64       `bson:"position_x" json:"position_x" example:"100"`
	PositionY    float64       `bson:"position_y" json:"position_y" example:"100"`
	Priority     int           `bson:"priority" json:"priority" example:"2"` // 0 means no badge
	CreatorID    bson.ObjectID `bson:"creator_id" json:"creator_id"`
	CreatorName  string        `bson:"creator_name" json:"creator_name" example:"Maya"`
	CreatorImage string        `bson:"creator_image,omitempty" json:"creator_image,omitempty"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// GeoAnchored reports whether the item has both coordinates and thus
// appears on the map companion view.
func (i *Item) GeoAnchored() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// UpdateItem represents the fields that can be updated on an item.
// Position changes from drags go through the dedicated move path
// instead, so full edits and moves never clobber each other.
type UpdateItem struct {
	Type         *ItemType `json:"type,omitempty" validate:"omitempty,oneof=place note image link idea"`
	Title        *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Content      *string   `json:"content,omitempty" validate:"omitempty,max=4000"`
	URL          *string   `json:"url,omitempty" validate:"omitempty,max=2048"`
	LocationName *string   `json:"location_name,omitempty" validate:"omitempty,max=300"`
	Latitude     *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
	ImagePath    *string   `json:"image_path,omitempty"`
	Priority     *int      `json:"priority,omitempty" validate:"omitempty,min=0"`
}

// Group is a visual container rectangle on the canvas. Groups do not own
// items: moving a group moves nothing else.
type Group struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TripID    bson.ObjectID `bson:"trip_id" json:"trip_id"`
	Title     string        `bson:"title" json:"title" example:"Day 2: Asakusa"`
	PositionX float64       `bson:"position_x" json:"position_x"`
	PositionY float64       `bson:"position_y" json:"position_y"`
	Width     float64       `bson:"width" json:"width"`
	Height    float64       `bson:"height" json:"height"`
	Color     string        `bson:"color" json:"color" validate:"omitempty,hexcolor" example:"#93C5FD"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}

// UpdateGroup represents the fields that can be updated on a group.
type UpdateGroup struct {
	Title     *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	PositionX *float64 `json:"position_x,omitempty"`
	PositionY *float64 `json:"position_y,omitempty"`
	Width     *float64 `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height    *float64 `json:"height,omitempty" validate:"omitempty,gt=0"`
	Color     *string  `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// EventType identifies a realtime board event.
type EventType string

const (
	EventItemCreated  EventType = "item.created"
	EventItemUpdated  EventType = "item.updated"
	EventItemMoved    EventType = "item.moved"
	EventItemDeleted  EventType = "item.deleted"
	EventGroupCreated EventType = "group.created"
	EventGroupUpdated EventType = "group.updated"
	EventGroupDeleted EventType = "group.deleted"
)

// Event is one realtime broadcast on a trip's board. Moved events carry
// only id and position; deleted events only the id.
type Event struct {
	Type   EventType     `json:"type"`
	TripID bson.ObjectID `json:"trip_id"`
	Item   *Item         `json:"item,omitempty"`
	Group  *Group        `json:"group,omitempty"`
}

// Package board is the client-side core of a brainstorm session: the
// single source of truth for the item/group collections, reconciling
// local user actions, server confirmations and remote realtime events.
//
// State lives in two tiers. The reconciled store changes only through
// confirmed mutations and remote events; the live overlay carries the
// per-frame position of an in-flight drag and never touches the store.
// Dependencies (API client, map widget, geocoder, notifier) are injected
// and scoped to one trip session: created at view mount, dropped at
// unmount.
package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"traveler/internal/canvas"
	"traveler/internal/services/brainstorm"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrUnconfirmedPaste is returned when pasted text needs explicit user
// confirmation before anything is persisted.
var ErrUnconfirmedPaste = errors.New("paste requires confirmation")

// Client is the REST surface the board session calls. Implementations
// are expected to send the session's connection id with every mutation
// so the server's broadcast skips this client.
type Client interface {
	ListItems(ctx context.Context, tripID bson.ObjectID) ([]*brainstorm.Item, error)
	ListGroups(ctx context.Context, tripID bson.ObjectID) ([]*brainstorm.Group, error)
	CreateItem(ctx context.Context, tripID bson.ObjectID, req brainstorm.CreateItemRequest) (*brainstorm.Item, error)
	UpdateItem(ctx context.Context, itemID bson.ObjectID, patch brainstorm.UpdateItem) (*brainstorm.Item, error)
	MoveItem(ctx context.Context, itemID bson.ObjectID, x, y float64) error
	DeleteItem(ctx context.Context, itemID bson.ObjectID) error
	CreateGroup(ctx context.Context, tripID bson.ObjectID, req brainstorm.CreateGroupRequest) (*brainstorm.Group, error)
	UpdateGroup(ctx context.Context, groupID bson.ObjectID, patch brainstorm.UpdateGroup) (*brainstorm.Group, error)
	DeleteGroup(ctx context.Context, groupID bson.ObjectID) error
}

// Store holds a trip's reconciled item/group collections.
type Store struct {
	mu     sync.RWMutex
	tripID bson.ObjectID
	client Client
	placer *canvas.Placer
	log    *slog.Logger

	items  []*brainstorm.Item // newest first
	groups []*brainstorm.Group
}

// NewStore creates a store for one trip session.
func NewStore(tripID bson.ObjectID, client Client, log *slog.Logger) *Store {
	return &Store{
		tripID: tripID,
		client: client,
		placer: canvas.NewPlacer(),
		log:    log,
	}
}

// Load fetches the trip's full item and group sets.
func (s *Store) Load(ctx context.Context) error {
	items, err := s.client.ListItems(ctx, s.tripID)
	if err != nil {
		s.log.Error("failed to load items", "error", err, "trip_id", s.tripID.Hex())
		return err
	}
	groups, err := s.client.ListGroups(ctx, s.tripID)
	if err != nil {
		s.log.Error("failed to load groups", "error", err, "trip_id", s.tripID.Hex())
		return err
	}

	s.mu.Lock()
	s.items = items
	s.groups = groups
	s.mu.Unlock()
	return nil
}

// Items returns a snapshot of the item collection.
func (s *Store) Items() []*brainstorm.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*brainstorm.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Groups returns a snapshot of the group collection.
func (s *Store) Groups() []*brainstorm.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*brainstorm.Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// ItemPosition resolves an item's canvas position by id. It implements
// canvas.Locator so the gesture tracker can start drags from the store.
func (s *Store) ItemPosition(id string) (canvas.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID.Hex() == id {
			return canvas.Point{X: it.PositionX, Y: it.PositionY}, true
		}
	}
	return canvas.Point{}, false
}

// positionsLocked lists every item position for collision checks.
func (s *Store) positionsLocked() []canvas.Point {
	out := make([]canvas.Point, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, canvas.Point{X: it.PositionX, Y: it.PositionY})
	}
	return out
}

// CreateItem persists a new item and inserts it once the server
// confirms. Requests without a position are placed by the spiral placer
// over the live item list, so new cards never cover existing ones.
// There is no optimistic insert: creation is synchronous with the
// server round trip and the caller shows a saving indicator meanwhile.
func (s *Store) CreateItem(ctx context.Context, req brainstorm.CreateItemRequest) (*brainstorm.Item, error) {
	if req.PositionX == nil || req.PositionY == nil {
		s.mu.RLock()
		pos := s.placer.Place(s.positionsLocked())
		s.mu.RUnlock()
		req.PositionX = &pos.X
		req.PositionY = &pos.Y
	}

	item, err := s.client.CreateItem(ctx, s.tripID, req)
	if err != nil {
		s.log.Error("failed to create item", "error", err, "trip_id", s.tripID.Hex())
		return nil, err
	}

	s.mu.Lock()
	s.items = append([]*brainstorm.Item{item}, s.items...)
	s.mu.Unlock()
	return item, nil
}

// LinkDraft is a prefilled, unconfirmed link item proposal from a URL
// paste. Nothing is persisted until the user confirms it.
type LinkDraft struct {
	Type brainstorm.ItemType
	URL  string
}

// PasteText handles a clipboard paste. Short plain text auto-creates an
// idea card; URL-shaped text returns a LinkDraft with
// ErrUnconfirmedPaste instead of persisting anything.
func (s *Store) PasteText(ctx context.Context, text string) (*brainstorm.Item, *LinkDraft, error) {
	action, cleaned := canvas.ClassifyPaste(text)
	switch action {
	case canvas.PasteCreateIdea:
		item, err := s.CreateItem(ctx, brainstorm.CreateItemRequest{
			Type:    brainstorm.ItemTypeIdea,
			Content: cleaned,
		})
		return item, nil, err
	case canvas.PastePrefillLink:
		return nil, &LinkDraft{Type: brainstorm.ItemTypeLink, URL: cleaned}, ErrUnconfirmedPaste
	default:
		return nil, nil, nil
	}
}

// UpdateItem applies a full edit after server confirmation.
func (s *Store) UpdateItem(ctx context.Context, itemID bson.ObjectID, patch brainstorm.UpdateItem) (*brainstorm.Item, error) {
	updated, err := s.client.UpdateItem(ctx, itemID, patch)
	if err != nil {
		s.log.Error("failed to update item", "error", err, "item_id", itemID.Hex())
		return nil, err
	}

	s.mu.Lock()
	s.replaceItemLocked(updated)
	s.mu.Unlock()
	return updated, nil
}

// MoveItem persists a drag-end position and patches only the two
// position fields locally, leaving every other field untouched so a
// concurrent remote edit is never clobbered.
func (s *Store) MoveItem(ctx context.Context, itemID bson.ObjectID, pos canvas.Point) error {
	pos = pos.ClampNonNegative()
	if err := s.client.MoveItem(ctx, itemID, pos.X, pos.Y); err != nil {
		s.log.Error("failed to move item", "error", err, "item_id", itemID.Hex())
		return err
	}

	s.mu.Lock()
	s.patchPositionLocked(itemID, pos.X, pos.Y)
	s.mu.Unlock()
	return nil
}

// DeleteItem removes an item after server confirmation. The explicit
// yes/no prompt is the caller's responsibility.
func (s *Store) DeleteItem(ctx context.Context, itemID bson.ObjectID) error {
	if err := s.client.DeleteItem(ctx, itemID); err != nil {
		s.log.Error("failed to delete item", "error", err, "item_id", itemID.Hex())
		return err
	}

	s.mu.Lock()
	s.removeItemLocked(itemID)
	s.mu.Unlock()
	return nil
}

// CreateGroup persists a group and inserts it on confirmation.
func (s *Store) CreateGroup(ctx context.Context, req brainstorm.CreateGroupRequest) (*brainstorm.Group, error) {
	group, err := s.client.CreateGroup(ctx, s.tripID, req)
	if err != nil {
		s.log.Error("failed to create group", "error", err, "trip_id", s.tripID.Hex())
		return nil, err
	}

	s.mu.Lock()
	s.groups = append(s.groups, group)
	s.mu.Unlock()
	return group, nil
}

// UpdateGroup applies a group patch optimistically: local state changes
// first, and a failed persistence call restores the snapshot. Groups
// are low-stakes visual aids, so the snappier path is worth it.
func (s *Store) UpdateGroup(ctx context.Context, groupID bson.ObjectID, patch brainstorm.UpdateGroup) error {
	s.mu.Lock()
	var snapshot *brainstorm.Group
	for i, g := range s.groups {
		if g.ID == groupID {
			copied := *g
			snapshot = &copied
			s.groups[i] = patchedGroup(g, patch)
			break
		}
	}
	s.mu.Unlock()

	if snapshot == nil {
		return brainstorm.ErrGroupNotFound
	}

	if _, err := s.client.UpdateGroup(ctx, groupID, patch); err != nil {
		s.log.Error("failed to update group, rolling back", "error", err, "group_id", groupID.Hex())
		s.mu.Lock()
		s.replaceGroupLocked(snapshot)
		s.mu.Unlock()
		return err
	}
	return nil
}

// DeleteGroup removes a group optimistically and reinserts the snapshot
// if the server rejects the delete.
func (s *Store) DeleteGroup(ctx context.Context, groupID bson.ObjectID) error {
	s.mu.Lock()
	var snapshot *brainstorm.Group
	at := -1
	for i, g := range s.groups {
		if g.ID == groupID {
			snapshot = g
			at = i
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if snapshot == nil {
		return brainstorm.ErrGroupNotFound
	}

	if err := s.client.DeleteGroup(ctx, groupID); err != nil {
		s.log.Error("failed to delete group, rolling back", "error", err, "group_id", groupID.Hex())
		s.mu.Lock()
		if at > len(s.groups) {
			at = len(s.groups)
		}
		s.groups = append(s.groups[:at], append([]*brainstorm.Group{snapshot}, s.groups[at:]...)...)
		s.mu.Unlock()
		return err
	}
	return nil
}

// ApplyRemote merges a realtime event from another collaborator into
// local state. Every branch is idempotent by id and last-write-wins:
// applying the same event twice converges to the same state.
func (s *Store) ApplyRemote(ev brainstorm.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case brainstorm.EventItemCreated:
		if ev.Item == nil {
			return
		}
		if s.hasItemLocked(ev.Item.ID) {
			s.replaceItemLocked(ev.Item)
			return
		}
		s.items = append([]*brainstorm.Item{ev.Item}, s.items...)
	case brainstorm.EventItemUpdated:
		if ev.Item != nil {
			s.replaceItemLocked(ev.Item)
		}
	case brainstorm.EventItemMoved:
		if ev.Item != nil {
			s.patchPositionLocked(ev.Item.ID, ev.Item.PositionX, ev.Item.PositionY)
		}
	case brainstorm.EventItemDeleted:
		if ev.Item != nil {
			s.removeItemLocked(ev.Item.ID)
		}
	case brainstorm.EventGroupCreated:
		if ev.Group == nil {
			return
		}
		if s.replaceGroupLocked(ev.Group) {
			return
		}
		s.groups = append(s.groups, ev.Group)
	case brainstorm.EventGroupUpdated:
		if ev.Group != nil {
			s.replaceGroupLocked(ev.Group)
		}
	case brainstorm.EventGroupDeleted:
		if ev.Group == nil {
			return
		}
		for i, g := range s.groups {
			if g.ID == ev.Group.ID {
				s.groups = append(s.groups[:i], s.groups[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) hasItemLocked(id bson.ObjectID) bool {
	for _, it := range s.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) replaceItemLocked(item *brainstorm.Item) {
	for i, it := range s.items {
		if it.ID == item.ID {
			s.items[i] = item
			return
		}
	}
}

func (s *Store) patchPositionLocked(id bson.ObjectID, x, y float64) {
	for i, it := range s.items {
		if it.ID == id {
			copied := *it
			copied.PositionX = x
			copied.PositionY = y
			s.items[i] = &copied
			return
		}
	}
}

func (s *Store) removeItemLocked(id bson.ObjectID) {
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// replaceGroupLocked swaps in group by id, reporting whether it existed.
func (s *Store) replaceGroupLocked(group *brainstorm.Group) bool {
	for i, g := range s.groups {
		if g.ID == group.ID {
			s.groups[i] = group
			return true
		}
	}
	return false
}

// patchedGroup applies an UpdateGroup patch to a copy of g.
func patchedGroup(g *brainstorm.Group, patch brainstorm.UpdateGroup) *brainstorm.Group {
	copied := *g
	if patch.Title != nil {
		copied.Title = *patch.Title
	}
	if patch.PositionX != nil {
		copied.PositionX = *patch.PositionX
	}
	if patch.PositionY != nil {
		copied.PositionY = *patch.PositionY
	}
	if patch.Width != nil {
		copied.Width = *patch.Width
	}
	if patch.Height != nil {
		copied.Height = *patch.Height
	}
	if patch.Color != nil {
		copied.Color = *patch.Color
	}
	return &copied
}

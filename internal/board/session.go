package board

import (
	"context"
	"log/slog"

	"traveler/internal/canvas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Notifier surfaces user-visible failure notices. Persistence errors on
// gestures are reported here instead of interrupting interaction.
type Notifier interface {
	Notify(message string)
}

// Session wires one trip's store, viewport and gesture tracker into a
// renderable whole. It implements canvas.Sink: drag moves land in the
// ephemeral live overlay and only drag end touches the store.
type Session struct {
	store    *Store
	viewport *canvas.Viewport
	tracker  *canvas.Tracker
	notifier Notifier
	log      *slog.Logger

	live liveOverlay
}

// NewSession assembles a session for one trip. haptics and notifier may
// be nil when the platform has neither.
func NewSession(tripID bson.ObjectID, client Client, haptics canvas.Haptics, notifier Notifier, log *slog.Logger) *Session {
	s := &Session{
		store:    NewStore(tripID, client, log),
		viewport: canvas.NewViewport(),
		notifier: notifier,
		log:      log,
	}
	s.tracker = canvas.NewTracker(s.viewport, s.store, s, haptics)
	return s
}

// Store exposes the reconciled collections.
func (s *Session) Store() *Store { return s.store }

// Viewport exposes the pan/zoom state.
func (s *Session) Viewport() *canvas.Viewport { return s.viewport }

// Tracker exposes the gesture input surface.
func (s *Session) Tracker() *canvas.Tracker { return s.tracker }

// DragMove records the live drag position. It never writes the store.
func (s *Session) DragMove(itemID string, pos canvas.Point) {
	s.live.set(itemID, pos)
}

// DragEnd clears the live overlay and persists the final position. A
// failed persist leaves the store at the server's truth and notifies the
// user rather than stranding a phantom position.
//
// The persist runs off the gesture path. DragEnd is called from the
// tracker and must return immediately so the next touch is handled
// without waiting on the network round trip.
func (s *Session) DragEnd(itemID string, pos canvas.Point) {
	s.live.clear(itemID)

	id, err := bson.ObjectIDFromHex(itemID)
	if err != nil {
		s.log.Warn("drag ended on malformed item id", "item_id", itemID)
		return
	}
	go func() {
		if err := s.store.MoveItem(context.Background(), id, pos); err != nil {
			s.notify("Couldn't save the new position. Please try again.")
		}
	}()
}

// Frame builds the current paint state. The dragged item, if any, takes
// its position from the live overlay instead of the store.
func (s *Session) Frame() canvas.Frame {
	draggingID, _ := s.tracker.Dragging()

	items := s.store.Items()
	sprites := make([]canvas.ItemSprite, 0, len(items))
	for _, it := range items {
		pos := canvas.Point{X: it.PositionX, Y: it.PositionY}
		if live, ok := s.live.get(it.ID.Hex()); ok {
			pos = live
		}
		sprites = append(sprites, canvas.ItemSprite{ID: it.ID.Hex(), Position: pos})
	}

	groups := s.store.Groups()
	groupSprites := make([]canvas.GroupSprite, 0, len(groups))
	for _, g := range groups {
		groupSprites = append(groupSprites, canvas.GroupSprite{
			ID: g.ID.Hex(),
			Bounds: canvas.Rect{
				X:      g.PositionX,
				Y:      g.PositionY,
				Width:  g.Width,
				Height: g.Height,
			},
			Color: g.Color,
		})
	}

	return canvas.BuildFrame(sprites, groupSprites, s.viewport, draggingID)
}

// Close tears down gesture state on view unmount.
func (s *Session) Close() {
	s.tracker.Cancel()
	s.live.reset()
}

func (s *Session) notify(message string) {
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
}

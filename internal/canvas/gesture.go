package canvas

import (
	"math"
	"sync"
	"time"
)

const (
	// LongPressDelay is how long a touch must hold still before an item
	// drag activates on touch devices.
	LongPressDelay = 500 * time.Millisecond

	// MoveCancelThreshold is the movement (in screen px) that cancels a
	// pending long-press.
	MoveCancelThreshold = 5.0
)

// PressPhase is the explicit long-press state machine for one touch.
type PressPhase int

const (
	PressIdle PressPhase = iota
	PressPending
	PressDragging
	PressCancelledByMovement
	PressReleasedBeforeTimer
)

// Sink receives gesture output. DragMove fires on every move event with
// the live visual position and bypasses the reconciled store; DragEnd
// fires exactly once per drag with the clamped authoritative position.
type Sink interface {
	DragMove(itemID string, pos Point)
	DragEnd(itemID string, pos Point)
}

// Locator resolves an item id to its current canvas position. A lookup
// miss means the drag target no longer exists and the gesture silently
// does not start.
type Locator interface {
	ItemPosition(id string) (Point, bool)
}

// Haptics provides tactile feedback on long-press activation. May be nil
// when the platform has none.
type Haptics interface {
	Vibrate()
}

// stopTimer is the subset of *time.Timer the tracker needs; injectable
// so tests can fire long-presses without sleeping.
type stopTimer interface {
	Stop() bool
}

type panSession struct {
	originScreen Point
	originOffset Point
}

type dragSession struct {
	itemID       string
	originScreen Point
	originItem   Point
	// zoom captured at drag start; deltas divide by this, not the live
	// zoom, so a mid-drag zoom change cannot skew the result.
	zoom float64
}

type pendingPress struct {
	itemID       string
	originScreen Point
	phase        PressPhase
	timer        stopTimer
}

// Tracker normalizes mouse and touch input into a single pan/drag
// gesture stream. At most one session (pan or drag) is active at a time;
// starting one cancels the other.
type Tracker struct {
	mu       sync.Mutex
	vp       *Viewport
	sink     Sink
	locator  Locator
	haptics  Haptics
	newTimer func(d time.Duration, fn func()) stopTimer

	pan   *panSession
	drag  *dragSession
	press *pendingPress
}

// NewTracker wires a tracker to a viewport, item locator and output sink.
func NewTracker(vp *Viewport, locator Locator, sink Sink, haptics Haptics) *Tracker {
	return &Tracker{
		vp:      vp,
		sink:    sink,
		locator: locator,
		haptics: haptics,
		newTimer: func(d time.Duration, fn func()) stopTimer {
			return time.AfterFunc(d, fn)
		},
	}
}

// PanStart begins a background pan from the given screen point. It
// cancels any in-progress drag or pending long-press.
func (t *Tracker) PanStart(screen Point) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.drag = nil
	t.stopPressLocked(PressCancelledByMovement)
	t.pan = &panSession{
		originScreen: screen,
		originOffset: t.vp.Offset(),
	}
}

// DragStart begins a desktop item drag from a grab handle. If the item
// cannot be located the gesture silently does not start.
func (t *Tracker) DragStart(itemID string, screen Point) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startDragLocked(itemID, screen)
}

// TouchPress begins the long-press detection for a touch landing on an
// item. The drag activates after LongPressDelay unless the touch moves
// more than MoveCancelThreshold or ends first.
func (t *Tracker) TouchPress(itemID string, screen Point) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A new press supersedes any earlier pending one.
	t.stopPressLocked(PressCancelledByMovement)

	press := &pendingPress{
		itemID:       itemID,
		originScreen: screen,
		phase:        PressPending,
	}
	press.timer = t.newTimer(LongPressDelay, func() { t.firePress(press) })
	t.press = press
}

// firePress promotes a pending long-press into an item drag. Drag
// tracking starts from the press-origin coordinates, not wherever the
// finger is when the timer fires.
func (t *Tracker) firePress(press *pendingPress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.press != press || press.phase != PressPending {
		return // cancelled or superseded before the timer fired
	}
	press.phase = PressDragging
	t.press = nil

	if t.haptics != nil {
		t.haptics.Vibrate()
	}
	t.pan = nil
	t.startDragLocked(press.itemID, press.originScreen)
}

// startDragLocked resolves the item and opens a drag session, capturing
// the zoom in effect at drag start. Caller holds t.mu.
func (t *Tracker) startDragLocked(itemID string, screen Point) {
	origin, ok := t.locator.ItemPosition(itemID)
	if !ok {
		return
	}
	t.pan = nil
	t.drag = &dragSession{
		itemID:       itemID,
		originScreen: screen,
		originItem:   origin,
		zoom:         t.vp.Zoom(),
	}
}

// Move is the single global move handler serving both pan and drag.
func (t *Tracker) Move(screen Point) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Significant movement cancels a pending long-press for a different
	// potential drag, preventing accidental double-activation.
	if p := t.press; p != nil && p.phase == PressPending {
		if dist(screen, p.originScreen) > MoveCancelThreshold {
			t.stopPressLocked(PressCancelledByMovement)
		}
	}

	switch {
	case t.drag != nil:
		d := t.drag
		delta := screen.Sub(d.originScreen).Scale(1 / d.zoom)
		t.sink.DragMove(d.itemID, d.originItem.Add(delta))
	case t.pan != nil:
		p := t.pan
		t.vp.SetOffset(p.originOffset.Add(screen.Sub(p.originScreen)))
	}
}

// End finalizes the active session. For drags it emits the clamped
// authoritative position exactly once; for pans it just clears the
// session. Without an active session it is a no-op. Any pending
// long-press timer is always cleared.
//
// The DragEnd emit happens after the lock is released. The sink may do
// slow work (the session persists the position) and the next gesture
// must not wait on it. Exactly-once still holds: t.drag is cleared
// while the lock is held, so no second End can observe the session.
func (t *Tracker) End(screen Point) {
	t.mu.Lock()
	t.stopPressLocked(PressReleasedBeforeTimer)

	d := t.drag
	t.drag = nil
	t.pan = nil
	t.mu.Unlock()

	if d != nil {
		delta := screen.Sub(d.originScreen).Scale(1 / d.zoom)
		t.sink.DragEnd(d.itemID, d.originItem.Add(delta).ClampNonNegative())
	}
}

// Wheel handles wheel events. Zooming requires the Ctrl/Cmd modifier;
// unmodified wheel input is not intercepted. deltaY > 0 zooms out.
func (t *Tracker) Wheel(deltaY float64, modifier bool) {
	if !modifier {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if deltaY > 0 {
		t.vp.ZoomBy(-ZoomStep)
	} else if deltaY < 0 {
		t.vp.ZoomBy(ZoomStep)
	}
}

// Cancel tears down every session and timer, for view unmount.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopPressLocked(PressCancelledByMovement)
	t.pan = nil
	t.drag = nil
}

// Dragging returns the id of the item currently being dragged, if any.
func (t *Tracker) Dragging() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drag == nil {
		return "", false
	}
	return t.drag.itemID, true
}

// Panning reports whether a pan session is active.
func (t *Tracker) Panning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pan != nil
}

// stopPressLocked clears a pending long-press, recording why. Caller
// holds t.mu.
func (t *Tracker) stopPressLocked(phase PressPhase) {
	if t.press == nil {
		return
	}
	if t.press.timer != nil {
		t.press.timer.Stop()
	}
	t.press.phase = phase
	t.press = nil
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

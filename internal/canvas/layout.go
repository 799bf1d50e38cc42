package canvas

import "math/rand"

// Card footprint used for collision checks. Items render at roughly this
// size regardless of content, so placement treats every item as one
// card-sized box plus a margin.
const (
	CardWidth   = 240.0
	CardHeight  = 150.0
	CardPadding = 20.0

	// DefaultAnchorX / DefaultAnchorY is where placement starts looking.
	DefaultAnchorX = 100.0
	DefaultAnchorY = 100.0

	// DefaultMaxAttempts bounds the spiral walk so placement always
	// terminates even on a pathologically crowded board.
	DefaultMaxAttempts = 50
)

// Placer finds canvas positions for newly created items that do not
// overlap any existing item's card box. It walks an expanding square
// spiral around an anchor point and falls back to a randomized offset
// when the search budget is exhausted.
type Placer struct {
	CardW       float64
	CardH       float64
	Padding     float64
	Anchor      Point
	MaxAttempts int
}

// NewPlacer returns a Placer with the standard card geometry.
func NewPlacer() *Placer {
	return &Placer{
		CardW:       CardWidth,
		CardH:       CardHeight,
		Padding:     CardPadding,
		Anchor:      Point{X: DefaultAnchorX, Y: DefaultAnchorY},
		MaxAttempts: DefaultMaxAttempts,
	}
}

// stepX / stepY is the distance between neighbouring spiral candidates:
// one full card plus its margin.
func (p *Placer) stepX() float64 { return p.CardW + p.Padding }
func (p *Placer) stepY() float64 { return p.CardH + p.Padding }

// box is the occupied rectangle for an item at pos.
func (p *Placer) box(pos Point) Rect {
	return Rect{X: pos.X, Y: pos.Y, Width: p.stepX(), Height: p.stepY()}
}

// free reports whether a card at pos would clear every existing item.
func (p *Placer) free(pos Point, existing []Point) bool {
	candidate := p.box(pos)
	for _, e := range existing {
		if candidate.Intersects(p.box(e)) {
			return false
		}
	}
	return true
}

// Place returns a non-overlapping position for a new item given the
// positions of all existing items. The anchor is tried first, then an
// expanding square spiral (right n, down n, n++, left n, up n, n++, ...)
// where each step is one card-plus-margin. After MaxAttempts candidates
// it gives up and returns a randomized offset near the anchor, accepting
// possible overlap so the operation always terminates.
func (p *Placer) Place(existing []Point) Point {
	if p.free(p.Anchor, existing) {
		return p.Anchor
	}

	pos := p.Anchor
	attempts := 0
	arm := 1 // steps per spiral arm, grows every two arms

	// direction cycle: right, down, left, up
	dirs := []Point{
		{X: p.stepX(), Y: 0},
		{X: 0, Y: p.stepY()},
		{X: -p.stepX(), Y: 0},
		{X: 0, Y: -p.stepY()},
	}

	for {
		for d, dir := range dirs {
			for s := 0; s < arm; s++ {
				pos = pos.Add(dir)
				attempts++
				if p.free(pos, existing) {
					return pos
				}
				if attempts >= p.MaxAttempts {
					return p.fallback()
				}
			}
			if d == 1 || d == 3 { // after down and after up
				arm++
			}
		}
	}
}

// fallback places near the anchor with a random jitter of up to one step
// on each axis. The top-level rand source is locked internally, so one
// Placer is safe to share across concurrent requests.
func (p *Placer) fallback() Point {
	return Point{
		X: p.Anchor.X + rand.Float64()*p.stepX(),
		Y: p.Anchor.Y + rand.Float64()*p.stepY(),
	}
}

// Package canvas implements the brainstorm board interaction core: the
// coordinate spaces, viewport transform, pointer gesture tracking,
// non-overlapping placement and frame building that both the server and
// embedding clients share.
//
// Canvas space is the unbounded logical plane item positions live in;
// screen space is device pixels. The two are related only through the
// viewport transform (translate by offset, then scale by zoom).
package canvas

// Point is a position in either canvas or screen space; which one is
// determined by context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the delta from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p with both axes multiplied by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// ClampNonNegative clamps both axes to >= 0. Item positions are kept
// non-negative by convention; the clamp runs once at drag end and on
// every server-side position write.
func (p Point) ClampNonNegative() Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	return p
}

// Rect is an axis-aligned rectangle with its origin at the top-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Intersects reports whether r and o overlap on both axes.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width &&
		r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height &&
		r.Y+r.Height > o.Y
}

// Inflate grows the rectangle by m on every side.
func (r Rect) Inflate(m float64) Rect {
	return Rect{
		X:      r.X - m,
		Y:      r.Y - m,
		Width:  r.Width + 2*m,
		Height: r.Height + 2*m,
	}
}

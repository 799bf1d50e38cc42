package canvas

// Zoom limits for the infinite canvas. Every zoom write clamps into this
// range; the offset is unconstrained.
const (
	MinZoom = 0.25
	MaxZoom = 2.0

	// ZoomStep is applied per wheel tick when the zoom modifier is held.
	ZoomStep = 0.1
)

// Viewport holds the pan offset and zoom scale for one canvas session.
// It is ephemeral, per-session state and is never persisted. Setters are
// the only mutation path.
type Viewport struct {
	offset Point
	zoom   float64
}

// NewViewport returns a viewport at the origin with zoom 1.0.
func NewViewport() *Viewport {
	return &Viewport{zoom: 1.0}
}

// Offset returns the current pan offset in canvas units.
func (v *Viewport) Offset() Point { return v.offset }

// Zoom returns the current zoom scale.
func (v *Viewport) Zoom() float64 { return v.zoom }

// SetOffset replaces the pan offset. The offset is unconstrained.
func (v *Viewport) SetOffset(o Point) { v.offset = o }

// SetZoom replaces the zoom scale, clamped to [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(z float64) {
	v.zoom = ClampZoom(z)
}

// ZoomBy adjusts zoom by delta (typically ±ZoomStep per wheel tick).
func (v *Viewport) ZoomBy(delta float64) {
	v.SetZoom(v.zoom + delta)
}

// Reset returns the viewport to {0,0} / 1.0.
func (v *Viewport) Reset() {
	v.offset = Point{}
	v.zoom = 1.0
}

// ScreenDeltaToCanvas converts a screen-space movement into canvas units
// by dividing out the zoom.
func (v *Viewport) ScreenDeltaToCanvas(d Point) Point {
	return d.Scale(1 / v.zoom)
}

// Transform is the single container transform applied when rendering:
// translate by Offset, then scale by Zoom, origin at the top-left.
// Individual items keep their raw canvas coordinates.
type Transform struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Scale      float64 `json:"scale"`
}

// RenderTransform returns the container transform for the current state.
func (v *Viewport) RenderTransform() Transform {
	return Transform{
		TranslateX: v.offset.X,
		TranslateY: v.offset.Y,
		Scale:      v.zoom,
	}
}

// ClampZoom clamps z into [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

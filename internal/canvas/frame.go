package canvas

// ItemSprite is the minimal spatial projection of a brainstorm item the
// frame builder needs.
type ItemSprite struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
}

// GroupSprite is the spatial projection of a visual group rectangle.
type GroupSprite struct {
	ID     string `json:"id"`
	Bounds Rect   `json:"bounds"`
	Color  string `json:"color"`
}

// ItemBox is one positioned item in a rendered frame. Coordinates are
// raw canvas units; the container Transform does all the screen math, so
// items never need per-item transforms.
type ItemBox struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
	Elevated bool   `json:"elevated"`
}

// GroupBox is one positioned group rectangle in a rendered frame.
type GroupBox struct {
	ID     string `json:"id"`
	Bounds Rect   `json:"bounds"`
	Color  string `json:"color"`
}

// Frame is everything a renderer needs for one paint: the single
// container transform plus every box at its raw canvas coordinates.
// It is a pure function of (items, groups, viewport, dragging state).
type Frame struct {
	Transform Transform  `json:"transform"`
	Items     []ItemBox  `json:"items"`
	Groups    []GroupBox `json:"groups"`
	// Empty signals the zero-items placeholder / call-to-action.
	Empty bool `json:"empty"`
}

// BuildFrame assembles a frame. The item matching draggingID renders
// elevated, ephemeral drag feedback that is never part of the data model.
func BuildFrame(items []ItemSprite, groups []GroupSprite, vp *Viewport, draggingID string) Frame {
	f := Frame{
		Transform: vp.RenderTransform(),
		Items:     make([]ItemBox, 0, len(items)),
		Groups:    make([]GroupBox, 0, len(groups)),
		Empty:     len(items) == 0,
	}

	for _, g := range groups {
		f.Groups = append(f.Groups, GroupBox{ID: g.ID, Bounds: g.Bounds, Color: g.Color})
	}
	for _, it := range items {
		f.Items = append(f.Items, ItemBox{
			ID:       it.ID,
			Position: it.Position,
			Elevated: draggingID != "" && it.ID == draggingID,
		})
	}
	return f
}

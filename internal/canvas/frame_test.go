package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFrameAppliesSingleTransform(t *testing.T) {
	vp := NewViewport()
	vp.SetOffset(Point{X: 30, Y: -10})
	vp.SetZoom(0.5)

	items := []ItemSprite{
		{ID: "a", Position: Point{X: 100, Y: 100}},
		{ID: "b", Position: Point{X: 360, Y: 100}},
	}
	groups := []GroupSprite{
		{ID: "g", Bounds: Rect{X: 50, Y: 50, Width: 400, Height: 300}, Color: "#AEDFF7"},
	}

	f := BuildFrame(items, groups, vp, "")

	assert.Equal(t, Transform{TranslateX: 30, TranslateY: -10, Scale: 0.5}, f.Transform)
	require.Len(t, f.Items, 2)
	require.Len(t, f.Groups, 1)
	// Boxes keep raw canvas coordinates; only the container transforms.
	assert.Equal(t, Point{X: 100, Y: 100}, f.Items[0].Position)
	assert.Equal(t, Point{X: 360, Y: 100}, f.Items[1].Position)
	assert.False(t, f.Empty)
}

func TestBuildFrameElevatesDraggedItem(t *testing.T) {
	vp := NewViewport()
	items := []ItemSprite{
		{ID: "a", Position: Point{X: 1, Y: 1}},
		{ID: "b", Position: Point{X: 2, Y: 2}},
	}

	f := BuildFrame(items, nil, vp, "b")

	assert.False(t, f.Items[0].Elevated)
	assert.True(t, f.Items[1].Elevated)
}

func TestBuildFrameEmptyState(t *testing.T) {
	vp := NewViewport()

	f := BuildFrame(nil, nil, vp, "")
	assert.True(t, f.Empty)

	// Groups alone do not clear the empty-items placeholder.
	f = BuildFrame(nil, []GroupSprite{{ID: "g"}}, vp, "")
	assert.True(t, f.Empty)
}

package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-marker/internal/annotation"
	"pdf-marker/pkg/geometry"
)

func TestHitTestTopmostWins(t *testing.T) {
	bottom := annotation.New(annotation.KindRectangle, 1, geometry.NewRect(0, 0, 100, 100))
	top := annotation.New(annotation.KindHighlight, 1, geometry.NewRect(50, 50, 100, 100))
	c := annotation.Collection{}.Append(bottom).Append(top)

	hit := HitTest(c, 1, pt(75, 75))
	require.NotNil(t, hit)
	assert.Equal(t, top.ID, hit.ID, "later entries draw on top and win")

	hit = HitTest(c, 1, pt(25, 25))
	require.NotNil(t, hit)
	assert.Equal(t, bottom.ID, hit.ID)

	assert.Nil(t, HitTest(c, 1, pt(500, 500)))
	assert.Nil(t, HitTest(c, 2, pt(75, 75)), "wrong page never hits")
}

func TestHandleAtCorners(t *testing.T) {
	a := annotation.New(annotation.KindRectangle, 1, geometry.NewRect(10, 10, 100, 50))

	assert.Equal(t, HandleNW, HandleAt(&a, pt(10, 10)))
	assert.Equal(t, HandleNE, HandleAt(&a, pt(110, 10)))
	assert.Equal(t, HandleSW, HandleAt(&a, pt(10, 60)))
	assert.Equal(t, HandleSE, HandleAt(&a, pt(110, 60)))
	assert.Equal(t, HandleNone, HandleAt(&a, pt(60, 35)), "center is not a handle")
	assert.Equal(t, HandleNone, HandleAt(nil, pt(0, 0)))
}

func TestHandleAtIncludesSlop(t *testing.T) {
	a := annotation.New(annotation.KindRectangle, 1, geometry.NewRect(10, 10, 100, 50))
	slop := HandleSize/2 + HandleSlop

	assert.Equal(t, HandleSE, HandleAt(&a, pt(110+slop, 60+slop)))
	assert.Equal(t, HandleNone, HandleAt(&a, pt(110+slop+1, 60)))
}

func TestResizeToEachHandle(t *testing.T) {
	bounds := geometry.NewRect(10, 10, 100, 50)

	tests := []struct {
		name string
		h    Handle
		p    geometry.Point2D
		want geometry.Rect
	}{
		{"SE grows", HandleSE, pt(160, 110), geometry.Rect{X: 10, Y: 10, Width: 150, Height: 100}},
		{"NW grows", HandleNW, pt(0, 0), geometry.Rect{X: 0, Y: 0, Width: 110, Height: 60}},
		{"NE grows", HandleNE, pt(140, 0), geometry.Rect{X: 10, Y: 0, Width: 130, Height: 60}},
		{"SW grows", HandleSW, pt(0, 100), geometry.Rect{X: 0, Y: 10, Width: 110, Height: 90}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResizeTo(bounds, tt.h, tt.p, MinAnnotationSize))
		})
	}
}

func TestResizeToClampKeepsAnchor(t *testing.T) {
	bounds := geometry.NewRect(10, 10, 100, 50)

	// Dragging NW past the SE corner: size clamps, SE corner stays.
	got := ResizeTo(bounds, HandleNW, pt(500, 500), MinAnnotationSize)
	assert.Equal(t, MinAnnotationSize, got.Width)
	assert.Equal(t, MinAnnotationSize, got.Height)
	assert.Equal(t, 110.0, got.X+got.Width)
	assert.Equal(t, 60.0, got.Y+got.Height)
}

package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectFromCorners(t *testing.T) {
	tests := []struct {
		name string
		a, b Point2D
		want Rect
	}{
		{"top-left to bottom-right", Point2D{10, 20}, Point2D{110, 70}, Rect{10, 20, 100, 50}},
		{"bottom-right to top-left", Point2D{110, 70}, Point2D{10, 20}, Rect{10, 20, 100, 50}},
		{"crossed corners", Point2D{110, 20}, Point2D{10, 70}, Rect{10, 20, 100, 50}},
		{"degenerate", Point2D{5, 5}, Point2D{5, 5}, Rect{5, 5, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RectFromCorners(tt.a, tt.b))
		})
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 100, 50)

	assert.True(t, r.Contains(Point2D{50, 30}))
	assert.True(t, r.Contains(Point2D{10, 10}), "edges are inclusive")
	assert.True(t, r.Contains(Point2D{110, 60}))
	assert.False(t, r.Contains(Point2D{9.9, 30}))
	assert.False(t, r.Contains(Point2D{50, 60.1}))
}

func TestRectExpand(t *testing.T) {
	r := NewRect(10, 10, 20, 20).Expand(5)
	assert.Equal(t, Rect{5, 5, 30, 30}, r)
}

func TestRectIntersectsAndUnion(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(5, 5, 10, 10)
	c := NewRect(20, 20, 5, 5)

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
	assert.Equal(t, Rect{0, 0, 15, 15}, a.Union(b))
	assert.Equal(t, Rect{0, 0, 25, 25}, a.Union(c))
}

func TestPointDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Point2D{0, 0}.Distance(Point2D{3, 4}), 1e-12)
	assert.Zero(t, Point2D{7, 7}.Distance(Point2D{7, 7}))
}

func TestAffineIdentity(t *testing.T) {
	p := Point2D{12.5, -3}
	assert.Equal(t, p, Identity().Apply(p))
}

func TestAffineCompose(t *testing.T) {
	// Scale then translate: compose applies the right operand first.
	tr := Translation(10, 20).Compose(Scaling(2, 2))
	got := tr.Apply(Point2D{3, 4})
	assert.InDelta(t, 16, got.X, 1e-12)
	assert.InDelta(t, 28, got.Y, 1e-12)
}

func TestAffineRotation(t *testing.T) {
	got := Rotation(math.Pi / 2).Apply(Point2D{1, 0})
	assert.InDelta(t, 0, got.X, 1e-12)
	assert.InDelta(t, 1, got.Y, 1e-12)
}

func TestAffineInverseRoundTrip(t *testing.T) {
	tr := Translation(42, -17).Compose(Scaling(2.5, 0.5)).Compose(Rotation(0.3))
	inv, ok := tr.Inverse()
	require.True(t, ok)

	points := []Point2D{{0, 0}, {1, 1}, {-35.2, 480}, {1e4, -1e4}}
	for _, p := range points {
		back := inv.Apply(tr.Apply(p))
		assert.InDelta(t, p.X, back.X, 1e-9)
		assert.InDelta(t, p.Y, back.Y, 1e-9)
	}
}

func TestAffineInverseSingular(t *testing.T) {
	_, ok := Scaling(0, 1).Inverse()
	assert.False(t, ok)
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, Point2D{}, Centroid(nil))
	got := Centroid([]Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	assert.Equal(t, Point2D{5, 5}, got)
}

func TestBoundingBox(t *testing.T) {
	assert.Equal(t, Rect{}, BoundingBox(nil))
	got := BoundingBox([]Point2D{{5, 8}, {-2, 3}, {7, -1}})
	assert.Equal(t, Rect{-2, -1, 9, 9}, got)
}

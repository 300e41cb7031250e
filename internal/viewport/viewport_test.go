package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-marker/pkg/geometry"
)

func TestNewDefaults(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 2}, 2.0)
	assert.Equal(t, 1, v.CurrentPage())
	assert.Equal(t, 1.0, v.Zoom())
	assert.Equal(t, 2.0, v.RenderScale())
	assert.Equal(t, 2.0, v.DevicePixelRatio())
}

func TestSetPageClampsAndNotifies(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 1}, 2.0)
	v.SetPageCount(5)

	var fired []int
	v.OnPageChange(func(p int) { fired = append(fired, p) })

	v.SetPage(3)
	v.SetPage(3) // no change, no callback
	v.SetPage(99)
	v.SetPage(0)
	assert.Equal(t, []int{3, 5, 1}, fired)
}

func TestSetPageCountClampsCurrentPage(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 1}, 2.0)
	v.SetPageCount(10)
	v.SetPage(10)

	var fired []int
	v.OnPageChange(func(p int) { fired = append(fired, p) })
	v.SetPageCount(4)
	assert.Equal(t, 4, v.CurrentPage())
	assert.Equal(t, []int{4}, fired)
}

func TestNextPrevPage(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 1}, 2.0)
	v.SetPageCount(2)

	v.NextPage()
	assert.Equal(t, 2, v.CurrentPage())
	v.NextPage()
	assert.Equal(t, 2, v.CurrentPage(), "clamped at last page")
	v.PrevPage()
	v.PrevPage()
	assert.Equal(t, 1, v.CurrentPage())
}

func TestZoomClampAndCallback(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 1}, 2.0)

	var last float64
	v.OnZoomChange(func(z float64) { last = z })

	v.SetZoom(100)
	assert.Equal(t, MaxZoom, v.Zoom())
	assert.Equal(t, MaxZoom, last)

	v.SetZoom(0.0001)
	assert.Equal(t, MinZoom, v.Zoom())

	v.SetZoom(1)
	v.ZoomIn()
	assert.InDelta(t, ZoomStep, v.Zoom(), 1e-12)
	v.ZoomOut()
	assert.InDelta(t, 1.0, v.Zoom(), 1e-12)
}

func TestZoomNeverFiresPageChange(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 1}, 2.0)
	v.SetPageCount(3)

	pageFired := false
	v.OnPageChange(func(int) { pageFired = true })
	v.ZoomIn()
	v.SetZoom(4)
	assert.False(t, pageFired)
}

func TestBufferScale(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 2}, 2.0)
	v.SetZoom(1.5)
	assert.InDelta(t, 3.0, v.BufferScale(), 1e-12)
}

func TestToContentInvariantUnderZoomAndDPR(t *testing.T) {
	content := geometry.NewSize(1224, 1584) // letter page at 2x render scale

	// The same content point viewed at different zooms maps back to the
	// same coordinates: only the surface rectangle changes size.
	for _, zoom := range []float64{0.5, 1, 2, 3.7} {
		v := New(FixedEnvironment{PixelRatio: 1}, 2.0)
		v.SetZoom(zoom)

		surface := geometry.NewRect(0, 0, content.Width*zoom/2, content.Height*zoom/2)
		device := geometry.Point2D{X: surface.Width / 2, Y: surface.Height / 4}

		got, ok := v.ToContent(device, surface, content)
		require.True(t, ok)
		assert.InDelta(t, content.Width/2, got.X, 1e-9, "zoom %v", zoom)
		assert.InDelta(t, content.Height/4, got.Y, 1e-9, "zoom %v", zoom)
	}
}

func TestToContentFromContentRoundTrip(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 2}, 2.0)
	surface := geometry.NewRect(40, 60, 612, 792)
	content := geometry.NewSize(1224, 1584)

	device := geometry.Point2D{X: 300, Y: 400}
	pt, ok := v.ToContent(device, surface, content)
	require.True(t, ok)

	back, ok := v.FromContent(pt, surface, content)
	require.True(t, ok)
	assert.InDelta(t, device.X, back.X, 1e-9)
	assert.InDelta(t, device.Y, back.Y, 1e-9)
}

func TestToContentDegenerateSurface(t *testing.T) {
	v := New(FixedEnvironment{PixelRatio: 1}, 2.0)
	_, ok := v.ToContent(geometry.Point2D{}, geometry.Rect{}, geometry.NewSize(100, 100))
	assert.False(t, ok)
}

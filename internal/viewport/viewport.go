// Package viewport owns the page/zoom state of the editor and the
// coordinate mapping between device pixels and page-content
// coordinates. Annotation coordinates are expressed at the document's
// fixed render scale, so neither zoom nor device pixel ratio may ever
// leak into them.
package viewport

import (
	"pdf-marker/pkg/geometry"
)

const (
	// MinZoom and MaxZoom bound the display zoom. ZoomStep is the
	// wheel/menu increment factor.
	MinZoom  = 0.1
	MaxZoom  = 10.0
	ZoomStep = 1.25
)

// Environment supplies ambient display properties. It is injected so
// tests can pin deterministic values instead of reading real globals.
type Environment interface {
	DevicePixelRatio() float64
}

// FixedEnvironment is an Environment with constant values.
type FixedEnvironment struct {
	PixelRatio float64
}

// DevicePixelRatio implements Environment.
func (e FixedEnvironment) DevicePixelRatio() float64 {
	if e.PixelRatio <= 0 {
		return 1
	}
	return e.PixelRatio
}

// EnvironmentFunc adapts a function to the Environment interface.
type EnvironmentFunc func() float64

// DevicePixelRatio implements Environment.
func (f EnvironmentFunc) DevicePixelRatio() float64 { return f() }

// Viewport holds the current page index, display zoom, and the fixed
// render scale of the loaded document.
type Viewport struct {
	currentPage int
	pageCount   int
	zoom        float64
	renderScale float64
	env         Environment

	onPageChange func(page int)
	onZoomChange func(zoom float64)
}

// New creates a viewport at page 1, zoom 1, with the given render
// scale. The render scale is constant for the life of the document.
func New(env Environment, renderScale float64) *Viewport {
	if renderScale <= 0 {
		renderScale = 1
	}
	return &Viewport{
		currentPage: 1,
		pageCount:   1,
		zoom:        1.0,
		renderScale: renderScale,
		env:         env,
	}
}

// OnPageChange registers a callback fired when the current page
// changes. Zoom changes never fire it: only page changes may trigger
// re-rasterization.
func (v *Viewport) OnPageChange(fn func(page int)) { v.onPageChange = fn }

// OnZoomChange registers a callback fired when the zoom changes.
func (v *Viewport) OnZoomChange(fn func(zoom float64)) { v.onZoomChange = fn }

// CurrentPage returns the 1-based current page index.
func (v *Viewport) CurrentPage() int { return v.currentPage }

// PageCount returns the number of pages in the loaded document.
func (v *Viewport) PageCount() int { return v.pageCount }

// SetPageCount sets the page count and clamps the current page into it.
func (v *Viewport) SetPageCount(n int) {
	if n < 1 {
		n = 1
	}
	v.pageCount = n
	if v.currentPage > n {
		v.SetPage(n)
	}
}

// SetPage switches to the given 1-based page. Out-of-range values are
// clamped. A real change fires the page-change callback.
func (v *Viewport) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if page > v.pageCount {
		page = v.pageCount
	}
	if page == v.currentPage {
		return
	}
	v.currentPage = page
	if v.onPageChange != nil {
		v.onPageChange(page)
	}
}

// NextPage advances one page if possible.
func (v *Viewport) NextPage() { v.SetPage(v.currentPage + 1) }

// PrevPage goes back one page if possible.
func (v *Viewport) PrevPage() { v.SetPage(v.currentPage - 1) }

// Zoom returns the current display zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// SetZoom sets the display zoom, clamped to [MinZoom, MaxZoom]. Zoom is
// purely visual and never re-rasterizes the page.
func (v *Viewport) SetZoom(zoom float64) {
	if zoom < MinZoom {
		zoom = MinZoom
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	v.zoom = zoom
	if v.onZoomChange != nil {
		v.onZoomChange(zoom)
	}
}

// ZoomIn increases the zoom level.
func (v *Viewport) ZoomIn() { v.SetZoom(v.zoom * ZoomStep) }

// ZoomOut decreases the zoom level.
func (v *Viewport) ZoomOut() { v.SetZoom(v.zoom / ZoomStep) }

// RenderScale returns the fixed scale at which page bitmaps and
// annotation coordinates are expressed.
func (v *Viewport) RenderScale() float64 { return v.renderScale }

// DevicePixelRatio reads the ambient pixel ratio. It affects only
// raster buffer sizing, never stored coordinates.
func (v *Viewport) DevicePixelRatio() float64 {
	if v.env == nil {
		return 1
	}
	return v.env.DevicePixelRatio()
}

// BufferScale is the factor from content coordinates to raster buffer
// pixels: display zoom times device pixel ratio, applied exactly once
// by the render dispatcher.
func (v *Viewport) BufferScale() float64 {
	return v.zoom * v.DevicePixelRatio()
}

// deviceToContent builds the affine map from on-screen surface
// coordinates to content coordinates. surface is the overlay's
// on-screen rectangle; content is the zoom-free size of the rendered
// page.
func deviceToContent(surface geometry.Rect, content geometry.Size) (geometry.AffineTransform, bool) {
	if surface.Width <= 0 || surface.Height <= 0 {
		return geometry.AffineTransform{}, false
	}
	scale := geometry.Scaling(content.Width/surface.Width, content.Height/surface.Height)
	return scale.Compose(geometry.Translation(-surface.X, -surface.Y)), true
}

// ToContent maps a device-space pointer position to content
// coordinates. The mapping divides out whatever zoom is baked into the
// surface rectangle, so the result is invariant under both zoom and
// device pixel ratio. With a degenerate surface it returns the origin
// and false.
func (v *Viewport) ToContent(device geometry.Point2D, surface geometry.Rect, content geometry.Size) (geometry.Point2D, bool) {
	t, ok := deviceToContent(surface, content)
	if !ok {
		return geometry.Point2D{}, false
	}
	return t.Apply(device), true
}

// FromContent maps a content-space point back to device space. It is
// the exact inverse of ToContent.
func (v *Viewport) FromContent(pt geometry.Point2D, surface geometry.Rect, content geometry.Size) (geometry.Point2D, bool) {
	t, ok := deviceToContent(surface, content)
	if !ok {
		return geometry.Point2D{}, false
	}
	inv, ok := t.Inverse()
	if !ok {
		return geometry.Point2D{}, false
	}
	return inv.Apply(pt), true
}

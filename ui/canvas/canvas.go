// Package canvas provides the annotation editing surface: the page
// bitmap with the annotation overlay, pan, zoom, and pointer routing
// into the editor state machine.
package canvas

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"pdf-marker/internal/app"
	"pdf-marker/internal/editor"
	"pdf-marker/internal/render"
	"pdf-marker/pkg/geometry"
)

// AnnotationCanvas displays the current page and its annotations and
// feeds pointer gestures to the editor. All stored coordinates are in
// content space (page bitmap pixels at the document render scale);
// zoom and device pixel ratio are display-only.
type AnnotationCanvas struct {
	widget.BaseWidget

	state      *app.State
	dispatcher *render.Dispatcher

	raster  *fynecanvas.Raster
	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	dragging bool
	lastDrag geometry.Point2D
}

// NewAnnotationCanvas creates the canvas over the application state.
func NewAnnotationCanvas(state *app.State) *AnnotationCanvas {
	ac := &AnnotationCanvas{
		state:   state,
		imgSize: fyne.NewSize(400, 300),
	}
	ac.dispatcher = render.NewDispatcher(func() {
		// A raster payload finished decoding off-thread.
		fyne.Do(ac.Refresh)
	})

	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	ac.raster.SetMinSize(ac.imgSize)

	ac.content = newDraggableContent(ac, ac.raster)
	ac.scroll = newZoomScroll(ac.content, ac)

	state.On(app.EventPageBitmapReady, func(interface{}) {
		fyne.Do(func() {
			ac.updateContentSize()
			ac.Refresh()
		})
	})
	state.On(app.EventAnnotationsChanged, func(interface{}) { ac.Refresh() })
	state.On(app.EventSelectionChanged, func(interface{}) { ac.Refresh() })
	state.On(app.EventZoomChanged, func(interface{}) { ac.updateContentSize() })
	state.On(app.EventDocumentClosed, func(interface{}) {
		ac.dispatcher.Rasters().Invalidate()
		ac.updateContentSize()
		ac.Refresh()
	})

	ac.ExtendBaseWidget(ac)
	return ac
}

// Container returns the scrollable canvas for embedding in layouts.
func (ac *AnnotationCanvas) Container() fyne.CanvasObject {
	return ac.scroll
}

// CreateRenderer implements fyne.Widget.
func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ac.scroll)
}

// Refresh repaints the raster.
func (ac *AnnotationCanvas) Refresh() {
	ac.raster.Refresh()
}

// contentSize returns the page size in content pixels (bitmap space).
func (ac *AnnotationCanvas) contentSize() geometry.Size {
	pts := ac.state.Doc.PageSize(ac.state.View.CurrentPage())
	rs := ac.state.View.RenderScale()
	return geometry.Size{Width: pts.Width * rs, Height: pts.Height * rs}
}

// displaySize returns the widget size in Fyne points at current zoom.
func (ac *AnnotationCanvas) displaySize() fyne.Size {
	pts := ac.state.Doc.PageSize(ac.state.View.CurrentPage())
	zoom := ac.state.View.Zoom()
	return fyne.NewSize(float32(pts.Width*zoom), float32(pts.Height*zoom))
}

// updateContentSize resizes the raster to the page at the current zoom.
func (ac *AnnotationCanvas) updateContentSize() {
	if !ac.state.Doc.IsOpen() {
		ac.imgSize = fyne.NewSize(400, 300)
	} else {
		ac.imgSize = ac.displaySize()
	}

	ac.raster.SetMinSize(ac.imgSize)
	ac.raster.Resize(ac.imgSize)
	if ac.content != nil {
		ac.content.Resize(ac.imgSize)
		ac.content.Refresh()
	}
	ac.raster.Refresh()
	if ac.scroll != nil {
		ac.scroll.Refresh()
	}
}

// toContent converts a pointer position (widget points, pre-scroll) to
// content coordinates through the viewport mapping.
func (ac *AnnotationCanvas) toContent(pos fyne.Position) (geometry.Point2D, bool) {
	size := ac.displaySize()
	surface := geometry.Rect{
		X: 0, Y: 0,
		Width:  float64(size.Width),
		Height: float64(size.Height),
	}
	device := geometry.Point2D{X: float64(pos.X), Y: float64(pos.Y)}
	return ac.state.View.ToContent(device, surface, ac.contentSize())
}

// draw is the raster drawing function. w and h are device pixels; the
// overlay scale from content space to the buffer is applied exactly
// once here.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// White page background
	for i := range output.Pix {
		output.Pix[i] = 255
	}

	if !ac.state.Doc.IsOpen() || w == 0 || h == 0 {
		return output
	}

	bitmap, bitmapPage := ac.state.Doc.Bitmap()
	page := ac.state.View.CurrentPage()
	if bitmap != nil && bitmapPage == page {
		blitPage(output, bitmap, w, h)
	}

	content := ac.contentSize()
	if content.Width <= 0 {
		return output
	}
	scale := float64(w) / content.Width

	ac.dispatcher.Paint(output, render.Params{
		Collection: ac.state.Editor.Collection(),
		Page:       page,
		Scale:      scale,
		SelectedID: ac.state.Editor.SelectedID(),
		Live:       ac.state.Editor.LiveGesture(),
	})
	return output
}

// blitPage scales the page bitmap to fill the buffer, nearest neighbor.
func blitPage(dst *image.RGBA, src *image.RGBA, w, h int) {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return
	}
	for y := 0; y < h; y++ {
		sy := sb.Min.Y + y*sh/h
		for x := 0; x < w; x++ {
			sx := sb.Min.X + x*sw/w
			dst.SetRGBA(x, y, src.RGBAAt(sx, sy))
		}
	}
}

// pointerDown routes a press at a widget position into the editor.
func (ac *AnnotationCanvas) pointerDown(pos fyne.Position) {
	p, ok := ac.toContent(pos)
	if !ok {
		return
	}
	ac.state.Editor.PointerDown(p)
	ac.Refresh()
}

func (ac *AnnotationCanvas) pointerMove(pos fyne.Position) {
	p, ok := ac.toContent(pos)
	if !ok {
		return
	}
	ac.state.Editor.PointerMove(p)
	ac.Refresh()
}

func (ac *AnnotationCanvas) pointerUp(pos fyne.Position) {
	p, ok := ac.toContent(pos)
	if !ok {
		return
	}
	ac.state.Editor.PointerUp(p)
	ac.Refresh()
}

// zoomScroll wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *AnnotationCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *AnnotationCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	// Wheel zooms, it never scrolls
	if ev.Scrolled.DY > 0 {
		zs.canvas.state.View.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.state.View.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to receive pointer events.
type draggableContent struct {
	widget.BaseWidget
	canvas *AnnotationCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(ac *AnnotationCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{canvas: ac, raster: raster}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

// contentPos converts a viewport-relative event position to a position
// on the (possibly scrolled) content.
func (dc *draggableContent) contentPos(pos fyne.Position) fyne.Position {
	offset := dc.canvas.scroll.Offset()
	return fyne.Position{X: pos.X + offset.X, Y: pos.Y + offset.Y}
}

// Dragged runs the press-move part of a gesture. The first event also
// delivers the press.
func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	pos := dc.contentPos(ev.Position)
	if !dc.canvas.dragging {
		dc.canvas.dragging = true
		start := fyne.Position{X: pos.X - ev.Dragged.DX, Y: pos.Y - ev.Dragged.DY}
		dc.canvas.pointerDown(start)
	}
	if p, ok := dc.canvas.toContent(pos); ok {
		dc.canvas.lastDrag = p
	}
	dc.canvas.pointerMove(pos)
}

// DragEnd releases the gesture at the last dragged position.
func (dc *draggableContent) DragEnd() {
	if !dc.canvas.dragging {
		return
	}
	dc.canvas.dragging = false
	dc.canvas.state.Editor.PointerUp(dc.canvas.lastDrag)
	dc.canvas.Refresh()
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		dc.canvas.state.View.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.state.View.ZoomOut()
	}
}

// Tapped handles clicks: selection, toggles and click-to-place tools
// are a press-release pair at the same point.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	// Reject positions outside the widget (scroll edge events)
	size := dc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	pos := dc.contentPos(ev.Position)
	dc.canvas.pointerDown(pos)
	dc.canvas.pointerUp(pos)
}

// DoubleTapped opens the inline text editor on an existing text
// annotation under the cursor.
func (dc *draggableContent) DoubleTapped(ev *fyne.PointEvent) {
	pos := dc.contentPos(ev.Position)
	p, ok := dc.canvas.toContent(pos)
	if !ok {
		return
	}
	ed := dc.canvas.state.Editor
	if hit := editor.HitTest(ed.Collection(), ed.Page(), p); hit != nil {
		ed.BeginTextEditing(hit.ID)
	}
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

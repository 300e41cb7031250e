// Package render paints committed annotations and the live gesture into
// an RGBA overlay buffer. All drawing is software rendering at a single
// buffer scale (zoom times device pixel ratio) applied once per frame,
// so the per-kind painters never see zoom.
package render

import (
	"image"
	"image/color"
	"strings"

	"pdf-marker/internal/annotation"
	"pdf-marker/internal/editor"
	"pdf-marker/pkg/colorutil"
	"pdf-marker/pkg/geometry"
)

// stampLabels maps the predefined stamp types to their face text.
var stampLabels = map[string]string{
	"approved":     "APPROVED",
	"draft":        "DRAFT",
	"confidential": "CONFIDENTIAL",
	"paid":         "PAID",
	"rejected":     "REJECTED",
	"final":        "FINAL",
	"copy":         "COPY",
	"void":         "VOID",
}

// Params describes one overlay frame.
type Params struct {
	Collection annotation.Collection
	Page       int
	Scale      float64 // content units to buffer pixels
	SelectedID string
	Live       editor.Gesture
}

// Dispatcher owns the raster payload cache and paints overlay frames.
type Dispatcher struct {
	rasters *RasterStore
}

// NewDispatcher creates a dispatcher whose raster cache calls onLoad
// when a payload decode completes and a repaint is needed.
func NewDispatcher(onLoad func()) *Dispatcher {
	return &Dispatcher{rasters: NewRasterStore(onLoad)}
}

// Rasters exposes the payload cache for invalidation on document close.
func (d *Dispatcher) Rasters() *RasterStore {
	return d.rasters
}

// Paint draws the current page's annotations in slice order (first
// created at the bottom), then the live gesture, then the selection
// chrome on top.
func (d *Dispatcher) Paint(dst *image.RGBA, p Params) {
	if p.Scale <= 0 {
		p.Scale = 1
	}
	for i := range p.Collection {
		a := &p.Collection[i]
		if a.Page != p.Page {
			continue
		}
		d.paintAnnotation(dst, a, p.Scale)
	}
	d.paintGesture(dst, p.Live, p.Scale)
	if p.SelectedID != "" {
		if a := p.Collection.ByID(p.SelectedID); a != nil && a.Page == p.Page {
			d.paintSelection(dst, a, p.Scale)
		}
	}
}

// paintAnnotation dispatches on the annotation kind. Every kind has a
// painter; an unknown kind falls through to a placeholder outline so a
// newer document still shows something selectable.
func (d *Dispatcher) paintAnnotation(dst *image.RGBA, a *annotation.Annotation, s float64) {
	x1, y1, x2, y2 := scaledBox(a.Bounds(), s)
	col := colorutil.ParseHex(a.Color)
	stroke := int(a.StrokeWidth * s)
	if stroke < 1 {
		stroke = 1
	}

	switch a.Kind {
	case annotation.KindText, annotation.KindDate:
		drawText(dst, a.Text, x1, y1, a.FontSize*s, col, 1)

	case annotation.KindDrawing:
		for _, path := range a.Paths {
			drawPath(dst, path.Points, s, col, stroke)
		}

	case annotation.KindSignature, annotation.KindInitials, annotation.KindImage:
		if img := d.rasters.Get(a.ID, a.Data); img != nil {
			blitScaled(dst, img, x1, y1, x2, y2, 1)
		}

	case annotation.KindRectangle:
		drawRectOutline(dst, x1, y1, x2, y2, col, stroke)

	case annotation.KindCircle:
		drawEllipse(dst, x1, y1, x2, y2, col, stroke, false, 1)

	case annotation.KindLine, annotation.KindArrow:
		lx1, ly1 := int(a.X1*s), int(a.Y1*s)
		lx2, ly2 := int(a.X2*s), int(a.Y2*s)
		drawLine(dst, lx1, ly1, lx2, ly2, col, stroke)
		if a.Kind == annotation.KindArrow {
			drawArrowHead(dst, lx1, ly1, lx2, ly2, col, stroke, 12*s)
		}

	case annotation.KindHighlight:
		opacity := a.Opacity
		if opacity <= 0 {
			opacity = 0.3
		}
		fillRect(dst, x1, y1, x2, y2, col, opacity)

	case annotation.KindStrikethrough:
		cy := (y1 + y2) / 2
		drawLine(dst, x1, cy, x2, cy, col, stroke)

	case annotation.KindCheckbox:
		d.paintCheckbox(dst, a, x1, y1, x2, y2, col)

	case annotation.KindRadio:
		d.paintRadio(dst, a, x1, y1, x2, y2, col)

	case annotation.KindStamp:
		d.paintStamp(dst, a, x1, y1, x2, y2, s, col)

	case annotation.KindSignedStamp:
		d.paintSignedStamp(dst, a, x1, y1, x2, y2, s, col)

	case annotation.KindWatermark:
		d.paintWatermark(dst, a, x1, y1, x2, y2, s, col)

	default:
		drawDashedRect(dst, x1, y1, x2, y2, colorutil.Selection, 4, 4)
	}
}

func (d *Dispatcher) paintCheckbox(dst *image.RGBA, a *annotation.Annotation, x1, y1, x2, y2 int, col color.RGBA) {
	drawRectOutline(dst, x1, y1, x2, y2, col, 2)
	if !a.Checked {
		return
	}
	// Checkmark strokes proportional to the box.
	w := x2 - x1
	h := y2 - y1
	drawLine(dst, x1+w/5, y1+h/2, x1+2*w/5, y1+4*h/5, col, 2)
	drawLine(dst, x1+2*w/5, y1+4*h/5, x1+4*w/5, y1+h/5, col, 2)
}

func (d *Dispatcher) paintRadio(dst *image.RGBA, a *annotation.Annotation, x1, y1, x2, y2 int, col color.RGBA) {
	drawEllipse(dst, x1, y1, x2, y2, col, 2, false, 1)
	if !a.Checked {
		return
	}
	// Inner dot at 40% of the outer diameter.
	w := x2 - x1
	h := y2 - y1
	ix := x1 + 3*w/10
	iy := y1 + 3*h/10
	drawEllipse(dst, ix, iy, x2-3*w/10, y2-3*h/10, col, 0, true, 1)
}

func (d *Dispatcher) paintStamp(dst *image.RGBA, a *annotation.Annotation, x1, y1, x2, y2 int, s float64, col color.RGBA) {
	label := stampLabel(a)
	fontSize := stampFontSize(a, s)

	if a.Shape == "circle" {
		drawEllipse(dst, x1, y1, x2, y2, col, int(2*s), false, 1)
		if a.TextLayout == "curved" {
			drawTextCurved(dst, label, x1, y1, x2, y2, fontSize, col, 1)
		} else {
			drawTextRotated(dst, label, x1, y1, x2, y2, fontSize, a.Rotation, col, 1)
		}
		return
	}

	if a.IsDashed {
		drawDashedRect(dst, x1, y1, x2, y2, col, int(6*s), int(4*s))
	} else {
		drawRectOutline(dst, x1, y1, x2, y2, col, int(2*s))
	}
	drawTextRotated(dst, label, x1, y1, x2, y2, fontSize, a.Rotation, col, 1)
}

func (d *Dispatcher) paintSignedStamp(dst *image.RGBA, a *annotation.Annotation, x1, y1, x2, y2 int, s float64, col color.RGBA) {
	opacity := 1.0
	if a.StampType == "classic" {
		opacity = 0.85
	}
	drawRectOutline(dst, x1, y1, x2, y2, col, int(2*s))

	// Signature occupies the upper portion, caption text the lower band.
	capH := int(14 * s)
	if img := d.rasters.Get(a.ID, a.Data); img != nil {
		blitScaled(dst, img, x1+int(4*s), y1+int(4*s), x2-int(4*s), y2-capH, opacity)
	}
	if caption := strings.TrimSpace(a.CustomText); caption != "" {
		drawTextCentered(dst, caption, x1, y2-capH, x2, y2, 10*s, col, opacity)
	}
}

func (d *Dispatcher) paintWatermark(dst *image.RGBA, a *annotation.Annotation, x1, y1, x2, y2 int, s float64, col color.RGBA) {
	opacity := a.Opacity
	if opacity <= 0 {
		opacity = 0.3
	}

	switch a.BorderStyle {
	case "solid":
		drawRectOutline(dst, x1, y1, x2, y2, col, 1)
	case "dashed":
		drawDashedRect(dst, x1, y1, x2, y2, col, int(6*s), int(4*s))
	case "dotted":
		drawDashedRect(dst, x1, y1, x2, y2, col, int(2*s), int(3*s))
	}

	if a.ContentType == "image" {
		if img := d.rasters.Get(a.ID, a.Data); img != nil {
			rgba := toRGBA(img)
			rotateBlit(dst, rgba, x1, y1, x2, y2, a.Rotation, opacity)
		}
		return
	}
	fontSize := a.FontSize * s
	if fontSize <= 0 {
		fontSize = 32 * s
	}
	drawTextRotated(dst, a.Content, x1, y1, x2, y2, fontSize, a.Rotation, col, opacity)
}

// paintGesture draws the uncommitted in-progress gesture.
func (d *Dispatcher) paintGesture(dst *image.RGBA, g editor.Gesture, s float64) {
	switch g.Kind {
	case editor.GestureStroke:
		col := colorutil.ParseHex(g.Style.Color)
		stroke := int(g.Style.StrokeWidth * s)
		drawPath(dst, g.Points, s, col, stroke)

	case editor.GestureEraser:
		if len(g.Points) == 0 {
			return
		}
		p := g.Points[len(g.Points)-1]
		r := int(editor.EraserRadius * s)
		cx, cy := int(p.X*s), int(p.Y*s)
		drawEllipse(dst, cx-r, cy-r, cx+r, cy+r, color.RGBA{R: 128, G: 128, B: 128, A: 255}, 1, false, 1)

	case editor.GestureRubberRect:
		x1, y1, x2, y2 := scaledBox(g.Rect, s)
		col := colorutil.ParseHex(g.Style.Color)
		switch g.Tool {
		case editor.ToolCircle:
			drawEllipse(dst, x1, y1, x2, y2, col, int(g.Style.StrokeWidth*s), false, 1)
		case editor.ToolHighlight:
			fillRect(dst, x1, y1, x2, y2, col, g.Style.HighlightOpacity)
		default:
			drawDashedRect(dst, x1, y1, x2, y2, col, 4, 4)
		}

	case editor.GestureRubberLine:
		col := colorutil.ParseHex(g.Style.Color)
		stroke := int(g.Style.StrokeWidth * s)
		lx1, ly1 := int(g.Start.X*s), int(g.Start.Y*s)
		lx2, ly2 := int(g.End.X*s), int(g.End.Y*s)
		drawLine(dst, lx1, ly1, lx2, ly2, col, stroke)
		if g.Tool == editor.ToolArrow {
			drawArrowHead(dst, lx1, ly1, lx2, ly2, col, stroke, 12*s)
		}
	}
}

// paintSelection draws the dashed selection border and corner handles.
// For annotations whose raster payload has not decoded yet the chrome
// is deferred to the post-load repaint, so a border never floats over
// an empty box.
func (d *Dispatcher) paintSelection(dst *image.RGBA, a *annotation.Annotation, s float64) {
	if a.HasRasterPayload() && d.rasters.Get(a.ID, a.RasterPayload()) == nil {
		return
	}
	x1, y1, x2, y2 := scaledBox(a.Bounds(), s)
	drawDashedRect(dst, x1, y1, x2, y2, colorutil.Selection, 4, 4)

	size := int(editor.HandleSize * s)
	for _, c := range [][2]int{{x1, y1}, {x2, y1}, {x1, y2}, {x2, y2}} {
		fillHandle(dst, c[0], c[1], size, colorutil.Selection)
	}
}

// drawPath strokes a freehand polyline in content coordinates.
func drawPath(dst *image.RGBA, points []geometry.Point2D, s float64, col color.RGBA, stroke int) {
	if len(points) == 1 {
		drawLine(dst, int(points[0].X*s), int(points[0].Y*s), int(points[0].X*s), int(points[0].Y*s), col, stroke)
		return
	}
	for i := 1; i < len(points); i++ {
		drawLine(dst,
			int(points[i-1].X*s), int(points[i-1].Y*s),
			int(points[i].X*s), int(points[i].Y*s),
			col, stroke)
	}
}

func scaledBox(r geometry.Rect, s float64) (x1, y1, x2, y2 int) {
	return int(r.X * s), int(r.Y * s), int((r.X + r.Width) * s), int((r.Y + r.Height) * s)
}

func stampLabel(a *annotation.Annotation) string {
	if a.StampType == "custom" {
		return a.CustomText
	}
	if label, ok := stampLabels[a.StampType]; ok {
		return label
	}
	return strings.ToUpper(a.StampType)
}

func stampFontSize(a *annotation.Annotation, s float64) float64 {
	if a.FontSize > 0 {
		return a.FontSize * s
	}
	return 16 * s
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

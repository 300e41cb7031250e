package editor

import (
	"pdf-marker/internal/annotation"
	"pdf-marker/pkg/geometry"
)

const (
	// HandleSize is the edge length of a corner resize handle in
	// content coordinates; HandleSlop enlarges its hit area for touch.
	HandleSize = 8.0
	HandleSlop = 4.0

	// MinAnnotationSize is the floor applied when resizing, so a
	// degenerate zero-size annotation can never be produced.
	MinAnnotationSize = 10.0
)

// Handle tags one of the four corner resize handles.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleNE
	HandleSW
	HandleSE
)

// HitTest returns the top-most annotation on the page containing the
// point, or nil. Iteration is reverse paint order so overlapping
// annotations resolve to the one drawn last.
func HitTest(c annotation.Collection, page int, p geometry.Point2D) *annotation.Annotation {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Page != page {
			continue
		}
		if c[i].Bounds().Contains(p) {
			return &c[i]
		}
	}
	return nil
}

// handleCenter returns the corner position of a handle on the bounds.
func handleCenter(r geometry.Rect, h Handle) geometry.Point2D {
	switch h {
	case HandleNW:
		return geometry.Point2D{X: r.X, Y: r.Y}
	case HandleNE:
		return geometry.Point2D{X: r.X + r.Width, Y: r.Y}
	case HandleSW:
		return geometry.Point2D{X: r.X, Y: r.Y + r.Height}
	case HandleSE:
		return geometry.Point2D{X: r.X + r.Width, Y: r.Y + r.Height}
	}
	return r.Center()
}

// HandleAt returns the corner handle under the point, or HandleNone.
// Each handle is a HandleSize square centered on a bounding-box corner,
// expanded by HandleSlop.
func HandleAt(a *annotation.Annotation, p geometry.Point2D) Handle {
	if a == nil {
		return HandleNone
	}
	bounds := a.Bounds()
	half := HandleSize/2 + HandleSlop
	for _, h := range []Handle{HandleNW, HandleNE, HandleSW, HandleSE} {
		c := handleCenter(bounds, h)
		box := geometry.Rect{X: c.X - half, Y: c.Y - half, Width: 2 * half, Height: 2 * half}
		if box.Contains(p) {
			return h
		}
	}
	return HandleNone
}

// ResizeTo returns the bounds resized so the dragged handle follows the
// pointer while the opposite corner stays fixed. Width and height are
// clamped to min; for the NW, NE and SW handles the origin is
// recomputed so the anchored corner does not move.
func ResizeTo(bounds geometry.Rect, h Handle, p geometry.Point2D, min float64) geometry.Rect {
	x2 := bounds.X + bounds.Width
	y2 := bounds.Y + bounds.Height

	clamp := func(v float64) float64 {
		if v < min {
			return min
		}
		return v
	}

	switch h {
	case HandleSE:
		bounds.Width = clamp(p.X - bounds.X)
		bounds.Height = clamp(p.Y - bounds.Y)
	case HandleNW:
		bounds.Width = clamp(x2 - p.X)
		bounds.Height = clamp(y2 - p.Y)
		bounds.X = x2 - bounds.Width
		bounds.Y = y2 - bounds.Height
	case HandleNE:
		bounds.Width = clamp(p.X - bounds.X)
		bounds.Height = clamp(y2 - p.Y)
		bounds.Y = y2 - bounds.Height
	case HandleSW:
		bounds.Width = clamp(x2 - p.X)
		bounds.Height = clamp(p.Y - bounds.Y)
		bounds.X = x2 - bounds.Width
	}
	return bounds
}

package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Face7x13 metrics. The bitmap face is rendered at its native size and
// scaled to the requested pixel height, trading fidelity for zero font
// file dependencies in the overlay renderer.
const (
	faceAdvance = 7
	faceHeight  = 13
	faceAscent  = 11
)

// renderString rasterizes a single line at the native face size into a
// tight RGBA buffer.
func renderString(s string, col color.RGBA) *image.RGBA {
	w := font.MeasureString(basicfont.Face7x13, s).Ceil()
	if w < 1 {
		w = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, faceHeight))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, faceAscent),
	}
	d.DrawString(s)
	return img
}

// drawText draws multi-line text with its top-left corner at (x, y).
// fontSize is the line height in destination pixels; lines are spaced
// at 1.2x like the text bounds heuristic.
func drawText(dst *image.RGBA, text string, x, y int, fontSize float64, col color.RGBA, opacity float64) {
	if fontSize < 4 {
		fontSize = 4
	}
	lineStep := int(fontSize * 1.2)
	for i, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		glyphs := renderString(line, col)
		w := int(float64(glyphs.Bounds().Dx()) * fontSize / faceHeight)
		if w < 1 {
			w = 1
		}
		ty := y + i*lineStep
		blitScaled(dst, glyphs, x, ty, x+w, ty+int(fontSize), opacity)
	}
}

// textPixelWidth reports the destination width drawText would use for a
// single line at the given size, for centering.
func textPixelWidth(line string, fontSize float64) int {
	w := font.MeasureString(basicfont.Face7x13, line).Ceil()
	return int(float64(w) * fontSize / faceHeight)
}

// drawTextCentered draws one line of text centered in the given box.
func drawTextCentered(dst *image.RGBA, text string, x1, y1, x2, y2 int, fontSize float64, col color.RGBA, opacity float64) {
	w := textPixelWidth(text, fontSize)
	x := x1 + ((x2-x1)-w)/2
	y := y1 + ((y2-y1)-int(fontSize))/2
	drawText(dst, text, x, y, fontSize, col, opacity)
}

// drawTextRotated renders one line into an offscreen buffer and
// composites it rotated about the center of the given box.
func drawTextRotated(dst *image.RGBA, text string, x1, y1, x2, y2 int, fontSize float64, degrees float64, col color.RGBA, opacity float64) {
	if degrees == 0 {
		drawTextCentered(dst, text, x1, y1, x2, y2, fontSize, col, opacity)
		return
	}
	w := textPixelWidth(text, fontSize)
	h := int(fontSize)
	if w < 1 || h < 1 {
		return
	}
	buf := image.NewRGBA(image.Rect(0, 0, w, h))
	drawText(buf, text, 0, 0, fontSize, col, 1)

	cx := (x1 + x2) / 2
	cy := (y1 + y2) / 2
	rotateBlit(dst, buf, cx-w/2, cy-h/2, cx+w/2, cy+h/2, degrees, opacity)
}

// drawTextCurved lays the characters of one line along the upper arc of
// the ellipse inscribed in the box, each glyph rotated to follow the
// tangent. Used for the circular stamp text layout.
func drawTextCurved(dst *image.RGBA, text string, x1, y1, x2, y2 int, fontSize float64, col color.RGBA, opacity float64) {
	runes := []rune(text)
	if len(runes) == 0 {
		return
	}
	rx := float64(x2-x1)/2 - fontSize
	ry := float64(y2-y1)/2 - fontSize
	if rx < 4 || ry < 4 {
		drawTextCentered(dst, text, x1, y1, x2, y2, fontSize, col, opacity)
		return
	}
	cx := float64(x1+x2) / 2
	cy := float64(y1+y2) / 2

	// Spread the glyphs over the top 180 degrees of the arc.
	span := math.Pi
	start := math.Pi + (math.Pi-span)/2
	step := 0.0
	if len(runes) > 1 {
		step = span / float64(len(runes)-1)
	} else {
		start += span / 2
	}

	gw := int(fontSize * float64(faceAdvance) / faceHeight)
	gh := int(fontSize)
	if gw < 1 || gh < 1 {
		return
	}
	for i, r := range runes {
		theta := start + float64(i)*step
		gx := cx + rx*math.Cos(theta)
		gy := cy + ry*math.Sin(theta)

		buf := image.NewRGBA(image.Rect(0, 0, gw, gh))
		drawText(buf, string(r), 0, 0, fontSize, col, 1)

		// Tangent angle, converted to the clockwise-degrees convention.
		deg := (theta + math.Pi/2) * 180 / math.Pi
		rotateBlit(dst, buf, int(gx)-gw/2, int(gy)-gh/2, int(gx)+gw/2, int(gy)+gh/2, deg, opacity)
	}
}

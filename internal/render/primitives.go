package render

import (
	"image"
	"image/color"
	"math"

	"pdf-marker/pkg/colorutil"
)

// setPixel writes a pixel with bounds checking.
func setPixel(dst *image.RGBA, x, y int, col color.RGBA) {
	b := dst.Bounds()
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		dst.SetRGBA(x, y, col)
	}
}

// blendPixel alpha-blends a pixel at the given opacity.
func blendPixel(dst *image.RGBA, x, y int, col color.RGBA, opacity float64) {
	b := dst.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	dst.SetRGBA(x, y, colorutil.Blend(dst.RGBAAt(x, y), col, opacity))
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	if thickness < 1 {
		thickness = 1
	}

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		// Draw thick point
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				setPixel(dst, x1+s, y1+t, col)
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawRectOutline draws a rectangle outline of the given thickness.
func drawRectOutline(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			setPixel(dst, x, y1+t, col)
			setPixel(dst, x, y2-t, col)
		}
		for y := y1; y <= y2; y++ {
			setPixel(dst, x1+t, y, col)
			setPixel(dst, x2-t, y, col)
		}
	}
}

// drawDashedRect draws a dashed rectangle outline (alternating pixel
// runs), used for selection borders and dashed stamp borders.
func drawDashedRect(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, dashOn, dashOff int) {
	period := dashOn + dashOff
	if period < 2 {
		period = 8
		dashOn = 4
	}
	for x := x1; x <= x2; x++ {
		if (x-x1)%period < dashOn {
			setPixel(dst, x, y1, col)
			setPixel(dst, x, y2, col)
		}
	}
	for y := y1; y <= y2; y++ {
		if (y-y1)%period < dashOn {
			setPixel(dst, x1, y, col)
			setPixel(dst, x2, y, col)
		}
	}
}

// fillRect fills a rectangle, blending with the existing pixels at the
// given opacity.
func fillRect(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, opacity float64) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			blendPixel(dst, x, y, col, opacity)
		}
	}
}

// fillHandle draws a solid selection handle square centered at a point.
func fillHandle(dst *image.RGBA, cx, cy, size int, col color.RGBA) {
	half := size / 2
	for y := cy - half; y <= cy+half; y++ {
		for x := cx - half; x <= cx+half; x++ {
			setPixel(dst, x, y, col)
		}
	}
}

// drawEllipse draws an axis-aligned ellipse inscribed in the given box.
// With fill=false only a ring of the given thickness is drawn.
func drawEllipse(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int, fill bool, opacity float64) {
	rx := float64(x2-x1) / 2
	ry := float64(y2-y1) / 2
	if rx <= 0 || ry <= 0 {
		return
	}
	cx := float64(x1) + rx
	cy := float64(y1) + ry

	// Inner ellipse for the ring test.
	irx := rx - float64(thickness)
	iry := ry - float64(thickness)

	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			dx := (float64(x) - cx) / rx
			dy := (float64(y) - cy) / ry
			d := dx*dx + dy*dy
			if d > 1 {
				continue
			}
			if fill {
				blendPixel(dst, x, y, col, opacity)
				continue
			}
			inner := 2.0
			if irx > 0 && iry > 0 {
				idx := (float64(x) - cx) / irx
				idy := (float64(y) - cy) / iry
				inner = idx*idx + idy*idy
			}
			if inner >= 1 {
				setPixel(dst, x, y, col)
			}
		}
	}
}

// drawArrowHead draws two barbs at the line end pointing back along the
// line direction.
func drawArrowHead(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int, length float64) {
	angle := math.Atan2(float64(y2-y1), float64(x2-x1))
	for _, offset := range []float64{math.Pi / 6, -math.Pi / 6} {
		bx := float64(x2) - length*math.Cos(angle+offset)
		by := float64(y2) - length*math.Sin(angle+offset)
		drawLine(dst, x2, y2, int(bx), int(by), col, thickness)
	}
}

// blitScaled copies src into the destination rectangle with
// nearest-neighbor scaling, blending at the given opacity.
func blitScaled(dst *image.RGBA, src image.Image, x1, y1, x2, y2 int, opacity float64) {
	sb := src.Bounds()
	sw := sb.Dx()
	sh := sb.Dy()
	dw := x2 - x1
	dh := y2 - y1
	if sw == 0 || sh == 0 || dw <= 0 || dh <= 0 {
		return
	}
	for y := 0; y < dh; y++ {
		sy := sb.Min.Y + y*sh/dh
		for x := 0; x < dw; x++ {
			sx := sb.Min.X + x*sw/dw
			r, g, b, a := src.At(sx, sy).RGBA()
			if a == 0 {
				continue
			}
			alpha := float64(a) / 0xffff * opacity
			col := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
			blendPixel(dst, x1+x, y1+y, col, alpha)
		}
	}
}

// rotateBlit composites src onto dst rotated by the given angle (in
// degrees, clockwise) about the center of the destination rectangle,
// using inverse mapping with nearest-neighbor sampling.
func rotateBlit(dst *image.RGBA, src *image.RGBA, x1, y1, x2, y2 int, degrees, opacity float64) {
	if degrees == 0 {
		blitScaled(dst, src, x1, y1, x2, y2, opacity)
		return
	}
	sb := src.Bounds()
	sw := float64(sb.Dx())
	sh := float64(sb.Dy())
	dw := float64(x2 - x1)
	dh := float64(y2 - y1)
	if sw == 0 || sh == 0 || dw <= 0 || dh <= 0 {
		return
	}
	cx := float64(x1) + dw/2
	cy := float64(y1) + dh/2

	rad := degrees * math.Pi / 180
	cos := math.Cos(-rad)
	sin := math.Sin(-rad)

	// Iterate a padded box so rotated corners are covered.
	pad := int(math.Ceil(math.Hypot(dw, dh)-math.Min(dw, dh))/2) + 1
	for y := y1 - pad; y <= y2+pad; y++ {
		for x := x1 - pad; x <= x2+pad; x++ {
			// Inverse-rotate into the unrotated destination box.
			rx := (float64(x)-cx)*cos - (float64(y)-cy)*sin
			ry := (float64(x)-cx)*sin + (float64(y)-cy)*cos
			u := (rx + dw/2) / dw
			v := (ry + dh/2) / dh
			if u < 0 || u >= 1 || v < 0 || v >= 1 {
				continue
			}
			sx := sb.Min.X + int(u*sw)
			sy := sb.Min.Y + int(v*sh)
			c := src.RGBAAt(sx, sy)
			if c.A == 0 {
				continue
			}
			blendPixel(dst, x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}, float64(c.A)/255*opacity)
		}
	}
}

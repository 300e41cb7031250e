// Package colorutil provides shared color utilities for the markup editor.
package colorutil

import (
	"fmt"
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black     = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red       = color.RGBA{R: 220, G: 38, B: 38, A: 255}
	Green     = color.RGBA{R: 22, G: 163, B: 74, A: 255}
	Blue      = color.RGBA{R: 37, G: 99, B: 235, A: 255}
	Yellow    = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Selection = color.RGBA{R: 59, G: 130, B: 246, A: 255}
)

// ParseHex parses a "#rrggbb" color string. Malformed input falls back
// to black, matching how the flattening backend treats bad colors.
func ParseHex(s string) color.RGBA {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return Black
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return Black
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// FormatHex formats a color as a "#rrggbb" string, discarding alpha.
func FormatHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// WithAlpha returns the color with the given opacity in [0,1] applied
// to its alpha channel.
func WithAlpha(c color.RGBA, opacity float64) color.RGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	c.A = uint8(opacity * 255)
	return c
}

// Blend alpha-blends src over dst using the given opacity in [0,1].
func Blend(dst, src color.RGBA, opacity float64) color.RGBA {
	if opacity >= 1 {
		return src
	}
	if opacity <= 0 {
		return dst
	}
	inv := 1 - opacity
	return color.RGBA{
		R: uint8(float64(src.R)*opacity + float64(dst.R)*inv),
		G: uint8(float64(src.G)*opacity + float64(dst.G)*inv),
		B: uint8(float64(src.B)*opacity + float64(dst.B)*inv),
		A: 255,
	}
}

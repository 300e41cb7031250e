package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-marker/internal/annotation"
	"pdf-marker/internal/editor"
	"pdf-marker/pkg/geometry"
)

func newBuffer() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for i := range img.Pix {
		img.Pix[i] = 255 // white
	}
	return img
}

func touchedPixels(img *image.RGBA) int {
	n := 0
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || b != 0xffff {
				n++
			}
		}
	}
	return n
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 128
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestPaintEveryKindWithoutPanic(t *testing.T) {
	dataURL := pngDataURL(t)

	build := func(kind annotation.Kind) annotation.Annotation {
		a := annotation.New(kind, 1, geometry.NewRect(20, 20, 120, 60))
		a.Color = "#dc2626"
		a.StrokeWidth = 2
		switch kind {
		case annotation.KindText, annotation.KindDate:
			a.Text = "Hello"
			a.FontFamily = "Helvetica"
			a.FontSize = 14
		case annotation.KindDrawing:
			a.Paths = []annotation.StrokePath{{Points: []geometry.Point2D{{X: 30, Y: 30}, {X: 80, Y: 60}}}}
		case annotation.KindLine, annotation.KindArrow:
			a.X1, a.Y1, a.X2, a.Y2 = 20, 20, 140, 80
		case annotation.KindSignature, annotation.KindInitials,
			annotation.KindImage, annotation.KindSignedStamp:
			a.Data = dataURL
		case annotation.KindHighlight:
			a.Opacity = 0.3
		case annotation.KindRadio:
			a.GroupID = "g"
			a.Checked = true
		case annotation.KindCheckbox:
			a.Checked = true
		case annotation.KindStamp:
			a.StampType = "approved"
			a.Shape = "box"
		case annotation.KindWatermark:
			a.ContentType = "text"
			a.Content = "DRAFT"
			a.Rotation = -45
			a.Opacity = 0.3
			a.BorderStyle = "dashed"
		}
		return a
	}

	kinds := []annotation.Kind{
		annotation.KindText, annotation.KindDrawing, annotation.KindSignature,
		annotation.KindRectangle, annotation.KindLine, annotation.KindHighlight,
		annotation.KindImage, annotation.KindCheckbox, annotation.KindCircle,
		annotation.KindArrow, annotation.KindDate, annotation.KindStamp,
		annotation.KindStrikethrough, annotation.KindInitials, annotation.KindRadio,
		annotation.KindSignedStamp, annotation.KindWatermark,
	}

	d := NewDispatcher(nil)
	for _, kind := range kinds {
		a := build(kind)
		buf := newBuffer()
		d.Paint(buf, Params{
			Collection: annotation.Collection{a},
			Page:       1,
			Scale:      1,
			SelectedID: a.ID,
		})
	}
}

func TestPaintSkipsOtherPages(t *testing.T) {
	a := annotation.New(annotation.KindRectangle, 2, geometry.NewRect(20, 20, 100, 50))
	a.Color = "#000000"
	a.StrokeWidth = 2

	d := NewDispatcher(nil)
	buf := newBuffer()
	d.Paint(buf, Params{Collection: annotation.Collection{a}, Page: 1, Scale: 1})
	assert.Zero(t, touchedPixels(buf))
}

func TestPaintRectangleMarksPixels(t *testing.T) {
	a := annotation.New(annotation.KindRectangle, 1, geometry.NewRect(20, 20, 100, 50))
	a.Color = "#dc2626"
	a.StrokeWidth = 2

	d := NewDispatcher(nil)
	buf := newBuffer()
	d.Paint(buf, Params{Collection: annotation.Collection{a}, Page: 1, Scale: 1})
	assert.Greater(t, touchedPixels(buf), 100)

	// The interior stays untouched: rectangles are outlines.
	r, g, b, _ := buf.At(70, 45).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})
}

func TestPaintScaleDoublesGeometry(t *testing.T) {
	a := annotation.New(annotation.KindHighlight, 1, geometry.NewRect(10, 10, 50, 20))
	a.Color = "#ffff00"
	a.Opacity = 0.5

	d := NewDispatcher(nil)
	at1 := newBuffer()
	d.Paint(at1, Params{Collection: annotation.Collection{a}, Page: 1, Scale: 1})
	at2 := newBuffer()
	d.Paint(at2, Params{Collection: annotation.Collection{a}, Page: 1, Scale: 2})

	assert.InDelta(t, 4*touchedPixels(at1), touchedPixels(at2), float64(touchedPixels(at1)))
}

func TestPaintLiveGesture(t *testing.T) {
	d := NewDispatcher(nil)
	buf := newBuffer()
	d.Paint(buf, Params{
		Page:  1,
		Scale: 1,
		Live: editor.Gesture{
			Kind:   editor.GestureStroke,
			Tool:   editor.ToolDraw,
			Style:  editor.DefaultStyle(),
			Points: []geometry.Point2D{{X: 10, Y: 10}, {X: 100, Y: 100}},
		},
	})
	assert.Greater(t, touchedPixels(buf), 50)
}

func TestSelectionChromeDeferredUntilPayloadLoads(t *testing.T) {
	a := annotation.New(annotation.KindSignature, 1, geometry.NewRect(20, 20, 100, 50))
	a.Data = pngDataURL(t)

	loaded := make(chan struct{}, 1)
	d := NewDispatcher(func() { loaded <- struct{}{} })

	// First frame: payload not decoded yet, neither image nor selection
	// chrome paints.
	buf := newBuffer()
	d.Paint(buf, Params{Collection: annotation.Collection{a}, Page: 1, Scale: 1, SelectedID: a.ID})
	assert.Zero(t, touchedPixels(buf))

	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("payload decode never completed")
	}

	// Second frame: image and selection chrome both paint.
	buf = newBuffer()
	d.Paint(buf, Params{Collection: annotation.Collection{a}, Page: 1, Scale: 1, SelectedID: a.ID})
	assert.Greater(t, touchedPixels(buf), 100)
}

func TestDecodeDataURL(t *testing.T) {
	img, err := DecodeDataURL(pngDataURL(t))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	// Bare base64 without the data: prefix is accepted too.
	raw := pngDataURL(t)
	bare := raw[len("data:image/png;base64,"):]
	img, err = DecodeDataURL(bare)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestDecodeDataURLRejectsGarbage(t *testing.T) {
	_, err := DecodeDataURL("data:image/png;base64,!!!not-base64!!!")
	assert.Error(t, err)

	// Valid base64 that is not an image.
	_, err = DecodeDataURL(base64.StdEncoding.EncodeToString([]byte("plain text")))
	assert.Error(t, err)
}

func TestRasterStoreStalenessAndInvalidation(t *testing.T) {
	first := pngDataURL(t)

	loaded := make(chan struct{}, 4)
	s := NewRasterStore(func() { loaded <- struct{}{} })

	assert.Nil(t, s.Get("a1", first), "first access schedules the decode")
	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("decode never completed")
	}
	require.NotNil(t, s.Get("a1", first))

	// Replacing the payload drops the cached decode.
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	second := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	assert.Nil(t, s.Get("a1", second))
	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("reload never completed")
	}
	img := s.Get("a1", second)
	require.NotNil(t, img)
	assert.Equal(t, 8, img.Bounds().Dx())

	s.Invalidate()
	assert.Nil(t, s.Get("a1", second), "invalidation forces a reload")
}

func TestRasterStoreIgnoresEmptyKeys(t *testing.T) {
	s := NewRasterStore(nil)
	assert.Nil(t, s.Get("", "data"))
	assert.Nil(t, s.Get("id", ""))
}

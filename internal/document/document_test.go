package document

import (
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-marker/pkg/geometry"
)

// fakeRasterizer serves a fixed page inventory. RenderPage blocks until
// a token arrives on proceed, so tests control when renders complete.
type fakeRasterizer struct {
	pages   int
	size    geometry.Size
	openErr error

	proceed chan struct{}
	opened  bool
}

func newFakeRasterizer(pages int) *fakeRasterizer {
	return &fakeRasterizer{
		pages:   pages,
		size:    geometry.NewSize(612, 792),
		proceed: make(chan struct{}, 16),
	}
}

func (f *fakeRasterizer) Open(data []byte) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeRasterizer) Close() { f.opened = false }

func (f *fakeRasterizer) PageCount() (int, error) { return f.pages, nil }

func (f *fakeRasterizer) PageSize(page int) (geometry.Size, error) {
	if page < 1 || page > f.pages {
		return geometry.Size{}, errors.Errorf("page %d out of range", page)
	}
	return f.size, nil
}

func (f *fakeRasterizer) RenderPage(page int, dpi int) (*image.RGBA, error) {
	<-f.proceed
	// Encode the page number in the bitmap width so tests can tell
	// renders apart.
	return image.NewRGBA(image.Rect(0, 0, page*100, 100)), nil
}

func (f *fakeRasterizer) Shutdown() {}

func waitForPage(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a page bitmap")
		return 0
	}
}

func TestLoadBytesReadsInventoryUpFront(t *testing.T) {
	ras := newFakeRasterizer(3)
	d := New(ras, nil)
	defer d.Shutdown()

	require.NoError(t, d.LoadBytes([]byte("%PDF")))
	assert.True(t, d.IsOpen())
	assert.Equal(t, 3, d.PageCount())
	assert.Equal(t, geometry.NewSize(612, 792), d.PageSize(1))
	assert.Equal(t, geometry.Size{}, d.PageSize(4), "out of range is zero")
	assert.Equal(t, "untitled.pdf", d.Name())

	bmp, _ := d.Bitmap()
	assert.Nil(t, bmp, "no bitmap before the first render")
}

func TestLoadBytesRejectsEmptyDocument(t *testing.T) {
	ras := newFakeRasterizer(0)
	d := New(ras, nil)
	defer d.Shutdown()

	err := d.LoadBytes([]byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pages")
	assert.False(t, d.IsOpen())
}

func TestLoadBytesPropagatesOpenError(t *testing.T) {
	ras := newFakeRasterizer(1)
	ras.openErr = errors.New("not a pdf")
	d := New(ras, nil)
	defer d.Shutdown()

	assert.Error(t, d.LoadBytes([]byte("junk")))
}

func TestRenderDeliversBitmap(t *testing.T) {
	ras := newFakeRasterizer(2)
	got := make(chan int, 4)
	d := New(ras, func(page int) { got <- page })
	defer d.Shutdown()
	require.NoError(t, d.LoadBytes([]byte("%PDF")))

	d.RequestRender(1, 144)
	ras.proceed <- struct{}{}

	assert.Equal(t, 1, waitForPage(t, got))
	bmp, page := d.Bitmap()
	require.NotNil(t, bmp)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, bmp.Bounds().Dx())
}

func TestSupersededRenderIsDropped(t *testing.T) {
	ras := newFakeRasterizer(3)
	got := make(chan int, 4)
	d := New(ras, func(page int) { got <- page })
	defer d.Shutdown()
	require.NoError(t, d.LoadBytes([]byte("%PDF")))

	// Page 1 starts rendering and blocks; page 3 supersedes it while it
	// is in flight.
	d.RequestRender(1, 144)
	time.Sleep(50 * time.Millisecond) // let the worker pick up the job
	d.RequestRender(3, 144)

	ras.proceed <- struct{}{} // finish page 1 (stale, dropped)
	ras.proceed <- struct{}{} // finish page 3

	assert.Equal(t, 3, waitForPage(t, got), "the stale page 1 result never lands")
	_, page := d.Bitmap()
	assert.Equal(t, 3, page)

	select {
	case p := <-got:
		t.Fatalf("unexpected extra bitmap for page %d", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQueuedRenderIsReplaced(t *testing.T) {
	ras := newFakeRasterizer(3)
	got := make(chan int, 4)
	d := New(ras, func(page int) { got <- page })
	defer d.Shutdown()
	require.NoError(t, d.LoadBytes([]byte("%PDF")))

	// Fill the in-flight slot, then queue two more; the second queued
	// request replaces the first.
	d.RequestRender(1, 144)
	time.Sleep(50 * time.Millisecond)
	d.RequestRender(2, 144)
	d.RequestRender(3, 144)

	ras.proceed <- struct{}{}
	ras.proceed <- struct{}{}

	assert.Equal(t, 3, waitForPage(t, got))
}

func TestCloseOrphansInFlightRender(t *testing.T) {
	ras := newFakeRasterizer(2)
	got := make(chan int, 4)
	d := New(ras, func(page int) { got <- page })
	defer d.Shutdown()
	require.NoError(t, d.LoadBytes([]byte("%PDF")))

	d.RequestRender(1, 144)
	time.Sleep(50 * time.Millisecond)

	// Close waits out the in-flight render, then orphans its result.
	closed := make(chan struct{})
	go func() { d.Close(); close(closed) }()
	time.Sleep(50 * time.Millisecond)
	ras.proceed <- struct{}{}

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close never completed")
	}
	select {
	case p := <-got:
		t.Fatalf("bitmap for page %d delivered after close", p)
	case <-time.After(100 * time.Millisecond):
	}
	assert.False(t, d.IsOpen())
}

// overlapRasterizer records whether Open or Close ever ran while a
// RenderPage call was still in flight, which the engine forbids.
type overlapRasterizer struct {
	*fakeRasterizer
	rendering atomic.Bool
	overlap   atomic.Bool
}

func (o *overlapRasterizer) Open(data []byte) error {
	if o.rendering.Load() {
		o.overlap.Store(true)
	}
	return o.fakeRasterizer.Open(data)
}

func (o *overlapRasterizer) Close() {
	if o.rendering.Load() {
		o.overlap.Store(true)
	}
	o.fakeRasterizer.Close()
}

func (o *overlapRasterizer) RenderPage(page, dpi int) (*image.RGBA, error) {
	o.rendering.Store(true)
	defer o.rendering.Store(false)
	return o.fakeRasterizer.RenderPage(page, dpi)
}

func TestLoadWaitsForInFlightRender(t *testing.T) {
	ras := &overlapRasterizer{fakeRasterizer: newFakeRasterizer(2)}
	d := New(ras, nil)
	defer d.Shutdown()
	require.NoError(t, d.LoadBytes([]byte("%PDF")))

	d.RequestRender(1, 144)
	time.Sleep(50 * time.Millisecond) // worker is inside RenderPage now

	loaded := make(chan error, 1)
	go func() { loaded <- d.LoadBytes([]byte("%PDF second")) }()

	select {
	case <-loaded:
		t.Fatal("load completed while a render was in flight")
	case <-time.After(100 * time.Millisecond):
	}

	ras.proceed <- struct{}{} // let the render finish

	select {
	case err := <-loaded:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("load never completed after the render finished")
	}

	assert.False(t, ras.overlap.Load(), "Open ran concurrently with RenderPage")

	// The old document's render result must not survive the reload.
	bmp, _ := d.Bitmap()
	assert.Nil(t, bmp)
}

func TestCloseWaitsForInFlightRender(t *testing.T) {
	ras := &overlapRasterizer{fakeRasterizer: newFakeRasterizer(2)}
	d := New(ras, nil)
	defer d.Shutdown()
	require.NoError(t, d.LoadBytes([]byte("%PDF")))

	d.RequestRender(1, 144)
	time.Sleep(50 * time.Millisecond)

	closed := make(chan struct{})
	go func() { d.Close(); close(closed) }()

	select {
	case <-closed:
		t.Fatal("close completed while a render was in flight")
	case <-time.After(100 * time.Millisecond):
	}

	ras.proceed <- struct{}{}

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close never completed after the render finished")
	}
	assert.False(t, ras.overlap.Load(), "Close ran concurrently with RenderPage")
	assert.False(t, d.IsOpen())
}

func TestRequestRenderIgnoresInvalidPage(t *testing.T) {
	ras := newFakeRasterizer(1)
	d := New(ras, nil)
	defer d.Shutdown()

	d.RequestRender(0, 144) // must not panic or enqueue
	d.RequestRender(-3, 144)
}

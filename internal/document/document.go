// Package document owns the loaded PDF: its bytes, page inventory and
// the bitmap of the page being edited. Page rasterization runs on a
// single worker goroutine, so the rasterizer never sees concurrent
// requests; results that were superseded while rendering are dropped.
package document

import (
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"pdf-marker/internal/rasterizer"
	"pdf-marker/pkg/geometry"
)

type renderJob struct {
	page int
	dpi  int
	gen  uint64
}

// Document is the open PDF and its current page bitmap.
type Document struct {
	ras rasterizer.Rasterizer

	// rasMu serializes every rasterizer call: the engine is not safe
	// for concurrent use, and Open/Close may race an in-flight
	// RenderPage on the worker otherwise. Lock order is mu before
	// rasMu; the worker takes them one at a time, never nested.
	rasMu sync.Mutex

	mu        sync.Mutex
	path      string
	data      []byte
	pageCount int
	sizes     []geometry.Size
	bitmap    *image.RGBA
	page      int // page the bitmap belongs to

	gen      atomic.Uint64
	jobs     chan renderJob
	done     chan struct{}
	onBitmap func(page int)
}

// New creates a document controller over the given rasterizer and
// starts its render worker. onBitmap fires from the worker goroutine
// whenever a fresh page bitmap is available.
func New(ras rasterizer.Rasterizer, onBitmap func(page int)) *Document {
	d := &Document{
		ras:      ras,
		jobs:     make(chan renderJob, 1),
		done:     make(chan struct{}),
		onBitmap: onBitmap,
	}
	go d.worker()
	return d
}

// LoadFile reads a PDF from disk and opens it.
func (d *Document) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if err := d.LoadBytes(data); err != nil {
		return err
	}
	d.mu.Lock()
	d.path = path
	d.mu.Unlock()
	return nil
}

// LoadBytes opens a PDF held in memory, replacing any open document.
// The page inventory (count and sizes) is read up front so navigation
// never needs to wait on the rasterizer. An in-flight render of the
// previous document is waited out and its result orphaned.
func (d *Document) LoadBytes(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen.Add(1) // orphan any in-flight render of the old document

	d.rasMu.Lock()
	defer d.rasMu.Unlock()

	if err := d.ras.Open(data); err != nil {
		return err
	}
	count, err := d.ras.PageCount()
	if err != nil {
		d.ras.Close()
		return err
	}
	if count < 1 {
		d.ras.Close()
		return errors.New("document has no pages")
	}
	sizes := make([]geometry.Size, count)
	for i := 1; i <= count; i++ {
		sizes[i-1], err = d.ras.PageSize(i)
		if err != nil {
			d.ras.Close()
			return err
		}
	}

	d.path = ""
	d.data = data
	d.pageCount = count
	d.sizes = sizes
	d.bitmap = nil
	d.page = 0
	return nil
}

// Close discards the open document and its bitmap.
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen.Add(1) // orphan any in-flight render
	d.rasMu.Lock()
	d.ras.Close()
	d.rasMu.Unlock()
	d.path = ""
	d.data = nil
	d.pageCount = 0
	d.sizes = nil
	d.bitmap = nil
	d.page = 0
}

// Shutdown stops the render worker and releases the rasterizer,
// waiting out any render still in flight.
func (d *Document) Shutdown() {
	close(d.done)
	d.rasMu.Lock()
	d.ras.Shutdown()
	d.rasMu.Unlock()
}

// IsOpen reports whether a document is loaded.
func (d *Document) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pageCount > 0
}

// Path returns the source file path, or "" for in-memory documents.
func (d *Document) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// Name returns the base file name for window titles and export.
func (d *Document) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.path == "" {
		return "untitled.pdf"
	}
	return filepath.Base(d.path)
}

// Bytes returns the raw PDF bytes for export.
func (d *Document) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

// PageCount reports the number of pages, 0 when nothing is open.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pageCount
}

// PageSize reports a page's media box in PDF points (1-based).
func (d *Document) PageSize(page int) geometry.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page < 1 || page > len(d.sizes) {
		return geometry.Size{}
	}
	return d.sizes[page-1]
}

// Bitmap returns the current page bitmap and the page it belongs to.
// The bitmap is nil while the first render of a page is in flight; the
// canvas keeps showing the previous page's bitmap until then.
func (d *Document) Bitmap() (*image.RGBA, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bitmap, d.page
}

// RequestRender schedules rasterization of a page at the given DPI.
// A newer request supersedes any queued one, and the result of an
// in-flight render that was superseded is dropped on arrival.
func (d *Document) RequestRender(page int, dpi int) {
	if page < 1 {
		return
	}
	job := renderJob{page: page, dpi: dpi, gen: d.gen.Add(1)}
	for {
		select {
		case d.jobs <- job:
			return
		default:
		}
		// Queue full: discard the stale queued job and retry.
		select {
		case <-d.jobs:
		default:
		}
	}
}

func (d *Document) worker() {
	for {
		select {
		case <-d.done:
			return
		case job := <-d.jobs:
			d.rasMu.Lock()
			img, err := d.ras.RenderPage(job.page, job.dpi)
			d.rasMu.Unlock()
			if err != nil {
				log.Printf("page %d render failed: %v", job.page, err)
				continue
			}
			d.mu.Lock()
			if job.gen != d.gen.Load() {
				// Superseded or the document changed while rendering.
				d.mu.Unlock()
				continue
			}
			d.bitmap = img
			d.page = job.page
			d.mu.Unlock()
			if d.onBitmap != nil {
				d.onBitmap(job.page)
			}
		}
	}
}

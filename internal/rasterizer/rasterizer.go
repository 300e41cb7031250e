// Package rasterizer renders PDF pages to bitmaps for the editing
// canvas. The production implementation runs pdfium compiled to
// webassembly, so no native library install is needed.
package rasterizer

import (
	"image"

	"pdf-marker/pkg/geometry"
)

// Rasterizer turns the pages of one open document into bitmaps.
// Implementations are not safe for concurrent use; the document
// controller serializes render requests on its worker goroutine.
type Rasterizer interface {
	// Open loads a PDF from memory, replacing any open document.
	Open(data []byte) error
	// Close releases the open document. No-op when none is open.
	Close()
	// PageCount reports the number of pages of the open document.
	PageCount() (int, error)
	// PageSize reports a page's media box in PDF points (1-based).
	PageSize(page int) (geometry.Size, error)
	// RenderPage rasterizes a page (1-based) at the given DPI.
	RenderPage(page int, dpi int) (*image.RGBA, error)
	// Shutdown releases the engine itself. The rasterizer is unusable
	// afterwards.
	Shutdown()
}

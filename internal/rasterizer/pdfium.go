package rasterizer

import (
	"image"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/pkg/errors"

	"pdf-marker/pkg/geometry"
)

const instanceTimeout = 30 * time.Second

// Pdfium is a Rasterizer backed by the pdfium webassembly runtime. One
// worker instance is enough: the document controller is the only
// caller and serializes its requests.
type Pdfium struct {
	pool     pdfium.Pool
	instance pdfium.Pdfium
	doc      *references.FPDF_DOCUMENT
}

// NewPdfium boots the webassembly pdfium pool and checks out the
// single worker instance. Call Shutdown when the application exits.
func NewPdfium() (*Pdfium, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing pdfium runtime")
	}

	instance, err := pool.GetInstance(instanceTimeout)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "acquiring pdfium instance")
	}

	return &Pdfium{pool: pool, instance: instance}, nil
}

// Open loads a PDF from memory, replacing any open document.
func (r *Pdfium) Open(data []byte) error {
	r.Close()
	doc, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		return errors.Wrap(err, "opening PDF document")
	}
	r.doc = &doc.Document
	return nil
}

// Close releases the open document.
func (r *Pdfium) Close() {
	if r.doc == nil {
		return
	}
	r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: *r.doc,
	})
	r.doc = nil
}

// PageCount reports the number of pages of the open document.
func (r *Pdfium) PageCount() (int, error) {
	if r.doc == nil {
		return 0, errors.New("no document open")
	}
	resp, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: *r.doc,
	})
	if err != nil {
		return 0, errors.Wrap(err, "getting page count")
	}
	return resp.PageCount, nil
}

// PageSize reports a page's media box in PDF points. Pages are 1-based.
func (r *Pdfium) PageSize(page int) (geometry.Size, error) {
	if r.doc == nil {
		return geometry.Size{}, errors.New("no document open")
	}
	resp, err := r.instance.GetPageSize(&requests.GetPageSize{
		Page: r.pageRef(page),
	})
	if err != nil {
		return geometry.Size{}, errors.Wrapf(err, "getting size of page %d", page)
	}
	return geometry.Size{Width: resp.Width, Height: resp.Height}, nil
}

// RenderPage rasterizes a page at the given DPI. Pages are 1-based.
func (r *Pdfium) RenderPage(page int, dpi int) (*image.RGBA, error) {
	if r.doc == nil {
		return nil, errors.New("no document open")
	}
	if dpi <= 0 {
		dpi = 72
	}
	resp, err := r.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		Page: r.pageRef(page),
		DPI:  dpi,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "rendering page %d", page)
	}
	return resp.Result.Image, nil
}

// Shutdown releases the worker instance and the webassembly pool.
func (r *Pdfium) Shutdown() {
	r.Close()
	if r.instance != nil {
		r.instance.Close()
		r.instance = nil
	}
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

func (r *Pdfium) pageRef(page int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: *r.doc,
			Index:    page - 1,
		},
	}
}

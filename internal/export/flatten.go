// Package export submits the annotated document to the flattening
// service, which burns the annotations into the PDF and hands back a
// download locator. Export never mutates local editing state; a failed
// request leaves the session exactly as it was.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"pdf-marker/internal/annotation"
)

// DefaultTimeout bounds one flatten round trip; large scans with many
// image payloads can take a while to upload.
const DefaultTimeout = 2 * time.Minute

// Client talks to one flattening service endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL (e.g.
// "http://localhost:8000").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// Result is the outcome of a flatten request. The service responds
// with a flat JSON body; the fields it does not echo back (original
// size, applied count) are filled in client-side.
type Result struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	TotalPages  int    `json:"total_pages"`
	DownloadURL string `json:"download_url"`

	OriginalSize       int64 `json:"-"`
	AnnotationsApplied int   `json:"-"`

	// Identity is set when the collection was empty and no request was
	// made: the output would equal the input document.
	Identity bool `json:"-"`
}

// errorBody is the service's error response shape.
type errorBody struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Flatten uploads the document and its annotations. The scale is the
// canvas scale the annotation coordinates were authored at; the service
// divides by it to recover PDF points. An empty collection is an
// identity operation and short-circuits without touching the network.
func (c *Client) Flatten(ctx context.Context, pdf []byte, filename string, anns annotation.Collection, scale float64) (*Result, error) {
	if len(pdf) == 0 {
		return nil, errors.New("no document to export")
	}
	if len(anns) == 0 {
		return &Result{
			Filename:     filename,
			Size:         int64(len(pdf)),
			OriginalSize: int64(len(pdf)),
			Identity:     true,
		}, nil
	}
	if err := anns.Validate(); err != nil {
		return nil, errors.Wrap(err, "annotations are not exportable")
	}
	if scale <= 0 {
		scale = 1
	}

	annJSON, err := json.Marshal(anns)
	if err != nil {
		return nil, errors.Wrap(err, "encoding annotations")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.Wrap(err, "building upload form")
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, errors.Wrap(err, "building upload form")
	}
	if err := w.WriteField("annotations", string(annJSON)); err != nil {
		return nil, errors.Wrap(err, "building upload form")
	}
	// The service defaults to 1.0 when canvas_scale is absent, which
	// would land every annotation at the wrong size; always send it.
	if err := w.WriteField("canvas_scale", fmt.Sprintf("%g", scale)); err != nil {
		return nil, errors.Wrap(err, "building upload form")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "building upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/tools/pdf-filler/fill", &body)
	if err != nil {
		return nil, errors.Wrap(err, "building flatten request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "flatten request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading flatten response")
	}

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if err := json.Unmarshal(raw, &eb); err == nil && eb.Message != "" {
			msg = eb.Message
		}
		return nil, errors.Errorf("flatten service rejected the document: %s", msg)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "decoding flatten response")
	}
	result.OriginalSize = int64(len(pdf))
	result.AnnotationsApplied = len(anns)
	return &result, nil
}

// Download fetches a flattened document by its download locator and
// writes it to destPath. Relative locators resolve against the service
// base URL.
func (c *Client) Download(ctx context.Context, downloadURL, destPath string) error {
	u, err := url.Parse(downloadURL)
	if err != nil {
		return errors.Wrapf(err, "bad download locator %q", downloadURL)
	}
	if !u.IsAbs() {
		downloadURL = c.baseURL + "/" + strings.TrimLeft(downloadURL, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return errors.Wrap(err, "building download request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "download failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("download failed: status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", destPath)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return errors.Wrapf(err, "writing %s", destPath)
	}
	return nil
}

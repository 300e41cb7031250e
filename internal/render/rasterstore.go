package render

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// RasterStore caches the decoded image payloads of signature, initials,
// image, signed stamp and image-watermark annotations. Decoding runs on
// a background goroutine per payload; Get returns nil until the decode
// lands, and the onLoad callback asks the owner to repaint.
type RasterStore struct {
	mu      sync.Mutex
	entries map[string]*rasterEntry
	onLoad  func()
}

type rasterEntry struct {
	data    string // source data URL, for staleness checks
	img     image.Image
	loading bool
	failed  bool
}

// NewRasterStore creates an empty store. onLoad is invoked from a
// background goroutine whenever a decode completes; it must be safe to
// call from any goroutine (typically a fyne.Do repaint request).
func NewRasterStore(onLoad func()) *RasterStore {
	return &RasterStore{
		entries: make(map[string]*rasterEntry),
		onLoad:  onLoad,
	}
}

// Get returns the decoded image for an annotation payload, or nil if it
// is not loaded yet. A miss schedules an async decode. Payloads are
// keyed by annotation id; if the data URL changed since the cached
// decode (payload replaced), the stale image is dropped and reloaded.
func (s *RasterStore) Get(id, dataURL string) image.Image {
	if id == "" || dataURL == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if ok && entry.data == dataURL {
		return entry.img
	}

	entry = &rasterEntry{data: dataURL, loading: true}
	s.entries[id] = entry
	go s.decode(id, dataURL)
	return nil
}

// decode runs off the UI goroutine. The result is dropped if the entry
// was invalidated or the payload replaced while decoding.
func (s *RasterStore) decode(id, dataURL string) {
	img, err := DecodeDataURL(dataURL)

	s.mu.Lock()
	entry, ok := s.entries[id]
	if !ok || entry.data != dataURL {
		s.mu.Unlock()
		return
	}
	entry.loading = false
	if err != nil {
		entry.failed = true
		s.mu.Unlock()
		log.Printf("raster decode failed for %s: %v", id, err)
		return
	}
	entry.img = img
	s.mu.Unlock()

	if s.onLoad != nil {
		s.onLoad()
	}
}

// Invalidate drops all cached payloads (e.g. on document close).
func (s *RasterStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*rasterEntry)
}

// Forget drops one annotation's cached payload.
func (s *RasterStore) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// DecodeDataURL decodes a base64 data URL ("data:image/png;base64,...")
// into an image. A bare base64 string without the URL prefix is also
// accepted, matching what capture dialogs produce.
func DecodeDataURL(dataURL string) (image.Image, error) {
	payload := dataURL
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decoding base64 image payload")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "decoding image payload")
	}
	return img, nil
}

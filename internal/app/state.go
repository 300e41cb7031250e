// Package app provides application lifecycle management, session
// persistence, and events.
package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"pdf-marker/internal/annotation"
	"pdf-marker/internal/document"
	"pdf-marker/internal/editor"
	"pdf-marker/internal/export"
	"pdf-marker/internal/rasterizer"
	"pdf-marker/internal/viewport"
	"pdf-marker/pkg/geometry"
)

// DefaultRenderScale is the fixed multiple of 72 DPI at which page
// bitmaps are rasterized. Annotation coordinates are authored in this
// bitmap space, and export sends it as the scale divisor.
const DefaultRenderScale = 2.0

// State holds the application state: the open document, the annotation
// editor, the viewport, and the export client, tied together with a
// typed event bus the UI subscribes to.
type State struct {
	mu sync.RWMutex

	Doc    *document.Document
	Editor *editor.Editor
	View   *viewport.Viewport
	Export *export.Client

	// Session
	SessionPath string
	Modified    bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventDocumentLoaded EventType = iota
	EventDocumentClosed
	EventSessionLoaded
	EventSessionSaved
	EventPageChanged
	EventZoomChanged
	EventPageBitmapReady
	EventAnnotationsChanged
	EventHistoryCommitted
	EventSelectionChanged
	EventToolChanged
	EventModalRequested
	EventTextEditRequested
	EventModified
	EventExportComplete
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState wires the collaborators together. Page changes re-rasterize
// through the document worker; zoom changes only repaint.
func NewState(ras rasterizer.Rasterizer, env viewport.Environment, exportURL string) *State {
	s := &State{
		Editor:    editor.New(),
		View:      viewport.New(env, DefaultRenderScale),
		Export:    export.NewClient(exportURL),
		listeners: make(map[EventType][]EventListener),
	}
	s.Doc = document.New(ras, func(page int) {
		s.Emit(EventPageBitmapReady, page)
	})

	s.View.OnPageChange(func(page int) {
		s.Editor.SetPage(page)
		s.Doc.RequestRender(page, s.renderDPI())
		s.Emit(EventPageChanged, page)
	})
	s.View.OnZoomChange(func(zoom float64) {
		s.Emit(EventZoomChanged, zoom)
	})

	s.Editor.OnChange(func() { s.Emit(EventAnnotationsChanged, nil) })
	s.Editor.OnCommit(func() {
		s.SetModified(true)
		s.Emit(EventHistoryCommitted, nil)
	})
	s.Editor.OnSelectionChange(func(id string) { s.Emit(EventSelectionChanged, id) })
	s.Editor.OnToolChange(func(t editor.Tool) { s.Emit(EventToolChanged, t) })
	s.Editor.OnModalRequest(func(t editor.Tool, _ geometry.Point2D) { s.Emit(EventModalRequested, t) })
	s.Editor.OnEditTextBegin(func(id string) { s.Emit(EventTextEditRequested, id) })

	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// IsModified reports whether unsaved annotation edits exist.
func (s *State) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Modified
}

// OpenDocument loads a PDF and resets the editing session around it.
func (s *State) OpenDocument(path string) error {
	if err := s.Doc.LoadFile(path); err != nil {
		return err
	}
	s.Editor.Reset()
	s.View.SetPageCount(s.Doc.PageCount())
	s.View.SetZoom(1.0)
	s.View.SetPage(1)
	// SetPage(1) is a no-op when already on page 1; render explicitly.
	s.Doc.RequestRender(s.View.CurrentPage(), s.renderDPI())

	s.mu.Lock()
	s.SessionPath = ""
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventDocumentLoaded, path)
	return nil
}

// CloseDocument discards the document and the annotation session.
func (s *State) CloseDocument() {
	s.Doc.Close()
	s.Editor.Reset()
	s.View.SetPageCount(0)

	s.mu.Lock()
	s.SessionPath = ""
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventDocumentClosed, nil)
}

// Shutdown releases the rasterizer worker on exit.
func (s *State) Shutdown() {
	s.Doc.Shutdown()
}

// renderDPI converts the fixed render scale to the DPI the rasterizer
// wants. PDF points are 1/72 inch, so scale 1.0 is 72 DPI.
func (s *State) renderDPI() int {
	return int(72 * s.View.RenderScale())
}

// ContentScale is the divisor export sends so the flattening service
// can map bitmap-space coordinates back to PDF points.
func (s *State) ContentScale() float64 {
	return s.View.RenderScale()
}

// SessionFile is the JSON structure of a .pdfmark session file: the
// source document by relative path plus the working annotation set.
type SessionFile struct {
	Version     int                   `json:"version"`
	PDFPath     string                `json:"pdf,omitempty"`
	Page        int                   `json:"page"`
	Zoom        float64               `json:"zoom"`
	Scale       float64               `json:"scale"`
	Annotations annotation.Collection `json:"annotations"`
}

// SaveSession writes the working annotation set next to the document so
// an unfinished markup can be resumed later.
func (s *State) SaveSession(path string) error {
	sessionDir := filepath.Dir(path)
	pdfRel := s.Doc.Path()
	if pdfRel != "" {
		if rel, err := filepath.Rel(sessionDir, pdfRel); err == nil {
			pdfRel = rel
		}
	}

	sf := SessionFile{
		Version:     1,
		PDFPath:     pdfRel,
		Page:        s.View.CurrentPage(),
		Zoom:        s.View.Zoom(),
		Scale:       s.View.RenderScale(),
		Annotations: s.Editor.Collection(),
	}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}

	s.mu.Lock()
	s.SessionPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventSessionSaved, path)
	return nil
}

// LoadSession restores a saved markup: opens the referenced document,
// then replaces the annotation set and viewport position.
func (s *State) LoadSession(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	var sf SessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	if err := sf.Annotations.Validate(); err != nil {
		return errors.Wrap(err, "session annotations are invalid")
	}

	if sf.PDFPath != "" {
		pdfPath := sf.PDFPath
		if !filepath.IsAbs(pdfPath) {
			pdfPath = filepath.Join(filepath.Dir(path), pdfPath)
		}
		if err := s.OpenDocument(pdfPath); err != nil {
			return err
		}
	}

	s.Editor.Load(sf.Annotations)
	if sf.Zoom > 0 {
		s.View.SetZoom(sf.Zoom)
	}
	if sf.Page > 0 {
		s.View.SetPage(sf.Page)
	}

	s.mu.Lock()
	s.SessionPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventSessionLoaded, path)
	return nil
}

package app

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-marker/internal/annotation"
	"pdf-marker/internal/editor"
	"pdf-marker/internal/viewport"
	"pdf-marker/pkg/geometry"
)

// stubRasterizer pretends every document has three letter-sized pages.
type stubRasterizer struct{}

func (stubRasterizer) Open(data []byte) error { return nil }
func (stubRasterizer) Close()                 {}
func (stubRasterizer) PageCount() (int, error) {
	return 3, nil
}
func (stubRasterizer) PageSize(page int) (geometry.Size, error) {
	return geometry.NewSize(612, 792), nil
}
func (stubRasterizer) RenderPage(page, dpi int) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}
func (stubRasterizer) Shutdown() {}

func newTestState(t *testing.T) *State {
	t.Helper()
	s := NewState(stubRasterizer{}, viewport.FixedEnvironment{PixelRatio: 1}, "http://localhost:8000")
	t.Cleanup(s.Shutdown)
	return s
}

func writeTempPDF(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))
	return path
}

func TestOpenDocumentResetsSession(t *testing.T) {
	s := newTestState(t)
	pdf := writeTempPDF(t, t.TempDir())

	var loaded interface{}
	s.On(EventDocumentLoaded, func(data interface{}) { loaded = data })

	require.NoError(t, s.OpenDocument(pdf))
	assert.Equal(t, pdf, loaded)
	assert.Equal(t, 3, s.View.PageCount())
	assert.Equal(t, 1, s.View.CurrentPage())
	assert.Equal(t, 1.0, s.View.Zoom())
	assert.False(t, s.IsModified())
}

func TestCommitMarksModified(t *testing.T) {
	s := newTestState(t)

	var modified []interface{}
	s.On(EventModified, func(data interface{}) { modified = append(modified, data) })

	s.Editor.SetTool(editor.ToolRectangle)
	s.Editor.PointerDown(geometry.Point2D{X: 10, Y: 10})
	s.Editor.PointerMove(geometry.Point2D{X: 100, Y: 80})
	s.Editor.PointerUp(geometry.Point2D{X: 100, Y: 80})

	assert.True(t, s.IsModified())
	assert.Equal(t, []interface{}{true}, modified)
}

func TestPageChangeFollowsThroughToEditor(t *testing.T) {
	s := newTestState(t)
	pdf := writeTempPDF(t, t.TempDir())
	require.NoError(t, s.OpenDocument(pdf))

	var pages []interface{}
	s.On(EventPageChanged, func(data interface{}) { pages = append(pages, data) })

	s.View.NextPage()
	assert.Equal(t, 2, s.Editor.Page())
	assert.Equal(t, []interface{}{2}, pages)
}

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pdf := writeTempPDF(t, dir)

	s := newTestState(t)
	require.NoError(t, s.OpenDocument(pdf))

	s.Editor.SetTool(editor.ToolRectangle)
	s.Editor.PointerDown(geometry.Point2D{X: 10, Y: 10})
	s.Editor.PointerMove(geometry.Point2D{X: 110, Y: 60})
	s.Editor.PointerUp(geometry.Point2D{X: 110, Y: 60})
	require.Len(t, s.Editor.Collection(), 1)
	wantID := s.Editor.Collection()[0].ID

	s.View.SetZoom(1.5)
	s.View.SetPage(2)

	session := filepath.Join(dir, "doc.pdfmark")
	require.NoError(t, s.SaveSession(session))
	assert.False(t, s.IsModified())
	assert.Equal(t, session, s.SessionPath)

	// Restore into a fresh state.
	s2 := newTestState(t)
	require.NoError(t, s2.LoadSession(session))

	require.Len(t, s2.Editor.Collection(), 1)
	assert.Equal(t, wantID, s2.Editor.Collection()[0].ID)
	assert.Equal(t, annotation.KindRectangle, s2.Editor.Collection()[0].Kind)
	assert.Equal(t, 2, s2.View.CurrentPage())
	assert.InDelta(t, 1.5, s2.View.Zoom(), 1e-9)
	assert.False(t, s2.IsModified())
	assert.False(t, s2.Editor.CanUndo(), "restored set is the undo baseline")
}

func TestSessionFileStoresRelativePDFPath(t *testing.T) {
	dir := t.TempDir()
	pdf := writeTempPDF(t, dir)

	s := newTestState(t)
	require.NoError(t, s.OpenDocument(pdf))

	session := filepath.Join(dir, "doc.pdfmark")
	require.NoError(t, s.SaveSession(session))

	raw, err := os.ReadFile(session)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"pdf": "doc.pdf"`)
}

func TestLoadSessionRejectsInvalidAnnotations(t *testing.T) {
	dir := t.TempDir()
	session := filepath.Join(dir, "bad.pdfmark")
	require.NoError(t, os.WriteFile(session, []byte(`{
		"version": 1,
		"page": 1,
		"zoom": 1,
		"scale": 2,
		"annotations": [{"id": "x", "type": "rectangle", "page": 0,
			"x": 0, "y": 0, "width": 10, "height": 10,
			"x1": 0, "y1": 0, "x2": 0, "y2": 0}]
	}`), 0644))

	s := newTestState(t)
	assert.Error(t, s.LoadSession(session))
}

func TestCloseDocumentClearsEverything(t *testing.T) {
	s := newTestState(t)
	pdf := writeTempPDF(t, t.TempDir())
	require.NoError(t, s.OpenDocument(pdf))

	s.Editor.SetTool(editor.ToolRectangle)
	s.Editor.PointerDown(geometry.Point2D{X: 10, Y: 10})
	s.Editor.PointerMove(geometry.Point2D{X: 110, Y: 60})
	s.Editor.PointerUp(geometry.Point2D{X: 110, Y: 60})

	closed := false
	s.On(EventDocumentClosed, func(interface{}) { closed = true })
	s.CloseDocument()

	assert.True(t, closed)
	assert.False(t, s.Doc.IsOpen())
	assert.Empty(t, s.Editor.Collection())
	assert.False(t, s.IsModified())
}

func TestContentScaleMatchesRenderScale(t *testing.T) {
	s := newTestState(t)
	assert.Equal(t, DefaultRenderScale, s.ContentScale())
}

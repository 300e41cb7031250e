package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-marker/internal/annotation"
	"pdf-marker/pkg/geometry"
)

func sampleAnnotations() annotation.Collection {
	a := annotation.New(annotation.KindRectangle, 1, geometry.NewRect(10, 10, 100, 50))
	a.Color = "#dc2626"
	a.StrokeWidth = 2
	return annotation.Collection{}.Append(a)
}

func TestFlattenIdentityShortCircuits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Flatten(context.Background(), []byte("%PDF-1.4"), "a.pdf", nil, 2)
	require.NoError(t, err)
	assert.True(t, res.Identity)
	assert.Equal(t, int64(8), res.Size)
	assert.Zero(t, calls, "empty collection never touches the network")
}

func TestFlattenRejectsEmptyDocument(t *testing.T) {
	c := NewClient("http://localhost:1")
	_, err := c.Flatten(context.Background(), nil, "a.pdf", sampleAnnotations(), 2)
	assert.Error(t, err)
}

func TestFlattenRejectsInvalidAnnotations(t *testing.T) {
	bad := sampleAnnotations()
	bad[0].Width = -1

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Flatten(context.Background(), []byte("%PDF"), "a.pdf", bad, 2)
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestFlattenSubmitsMultipartForm(t *testing.T) {
	anns := sampleAnnotations()
	pdf := []byte("%PDF-1.4 test bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/tools/pdf-filler/fill", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "a.pdf", header.Filename)

		var got annotation.Collection
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("annotations")), &got))
		require.Len(t, got, 1)
		assert.Equal(t, anns[0].ID, got[0].ID)
		assert.Equal(t, annotation.KindRectangle, got[0].Kind)

		// The service falls back to scale 1.0 when canvas_scale is
		// missing, which would misplace every annotation; the field
		// must always travel under that exact name.
		assert.Equal(t, "2", r.FormValue("canvas_scale"))

		resp := map[string]interface{}{
			"operation":    "fill",
			"filename":     "filled.pdf",
			"size":         1234,
			"total_pages":  3,
			"download_url": "/api/v1/tools/pdf-filler/download/abc.pdf",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Flatten(context.Background(), pdf, "a.pdf", anns, 2)
	require.NoError(t, err)
	assert.False(t, res.Identity)
	assert.Equal(t, "filled.pdf", res.Filename)
	assert.Equal(t, int64(1234), res.Size)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, int64(len(pdf)), res.OriginalSize)
	assert.Equal(t, 1, res.AnnotationsApplied)
	assert.Equal(t, "/api/v1/tools/pdf-filler/download/abc.pdf", res.DownloadURL)
}

func TestFlattenSurfacesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Invalid file type. Please upload a PDF.",
			"success": false,
			"details": map[string]interface{}{},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Flatten(context.Background(), []byte("%PDF"), "a.pdf", sampleAnnotations(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid file type")
}

func TestFlattenReportsStatusOnUnparseableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Flatten(context.Background(), []byte("%PDF"), "a.pdf", sampleAnnotations(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestDownloadResolvesRelativeLocator(t *testing.T) {
	payload := []byte("flattened pdf bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/tools/pdf-filler/download/out.pdf", r.URL.Path)
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.pdf")
	c := NewClient(srv.URL)
	require.NoError(t, c.Download(context.Background(), "/api/v1/tools/pdf-filler/download/out.pdf", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	dest := filepath.Join(t.TempDir(), "out.pdf")
	assert.Error(t, c.Download(context.Background(), "/missing.pdf", dest))
}

package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milankmezic/Upload2Present/internal/compositor"
	"github.com/milankmezic/Upload2Present/internal/raster"
)

type noRasterizer struct{}

func (noRasterizer) Available() bool { return false }
func (noRasterizer) Rasterize([]byte) ([]raster.Page, error) {
	return nil, raster.ErrUnavailable
}

func newTestMux() (*Server, *http.ServeMux) {
	s := New(compositor.New(compositor.Dependencies{Rasterizer: noRasterizer{}}), 10)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s, mux
}

func pngUpload(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range names {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(img.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func uploadFiles(t *testing.T, mux *http.ServeMux, names ...string) {
	t.Helper()
	body, ctype := pngUpload(t, names...)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func listRecords(t *testing.T, mux *http.ServeMux) []map[string]any {
	t.Helper()
	rec := doJSON(t, mux, http.MethodGet, "/api/records", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Records
}

func TestUploadAndList(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "first.png", "second.png")

	recs := listRecords(t, mux)
	require.Len(t, recs, 2)
	assert.Equal(t, "first.png", recs[0]["name"])
	assert.Equal(t, "first", recs[0]["title"])
	assert.Equal(t, "image", recs[0]["kind"])
	assert.Equal(t, float64(0), recs[0]["order"])
	assert.Equal(t, float64(1), recs[1]["order"])
}

func TestUploadRejectsEmptyForm(t *testing.T) {
	_, mux := newTestMux()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoveRecord(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "a.png", "b.png")

	recs := listRecords(t, mux)
	secondID := recs[1]["id"].(string)

	rec := doJSON(t, mux, http.MethodPost, "/api/records/move", map[string]any{"id": secondID, "delta": -1})
	require.Equal(t, http.StatusOK, rec.Code)

	recs = listRecords(t, mux)
	assert.Equal(t, "b.png", recs[0]["name"])
	assert.Equal(t, "a.png", recs[1]["name"])
}

func TestMoveAtEdgeIsNoop(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "a.png")

	recs := listRecords(t, mux)
	id := recs[0]["id"].(string)

	rec := doJSON(t, mux, http.MethodPost, "/api/records/move", map[string]any{"id": id, "delta": -1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"moved":false`)
}

func TestMoveUnknownRecord(t *testing.T) {
	_, mux := newTestMux()
	rec := doJSON(t, mux, http.MethodPost, "/api/records/move", map[string]any{"id": "nope", "delta": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetTitleAndRemove(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "a.png", "b.png")
	recs := listRecords(t, mux)
	id := recs[0]["id"].(string)

	rec := doJSON(t, mux, http.MethodPost, "/api/records/title", map[string]any{"id": id, "title": "Opening"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Opening", listRecords(t, mux)[0]["title"])

	rec = doJSON(t, mux, http.MethodPost, "/api/records/remove", map[string]any{"id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	recs = listRecords(t, mux)
	require.Len(t, recs, 1)
	assert.Equal(t, "b.png", recs[0]["name"])
}

func TestResetOrder(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "a.png", "b.png")
	recs := listRecords(t, mux)
	secondID := recs[1]["id"].(string)

	doJSON(t, mux, http.MethodPost, "/api/records/move", map[string]any{"id": secondID, "delta": -1})
	rec := doJSON(t, mux, http.MethodPost, "/api/records/reset_order", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	recs = listRecords(t, mux)
	assert.Equal(t, "a.png", recs[0]["name"])
}

func TestOptionsPartialUpdate(t *testing.T) {
	_, mux := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/options", map[string]any{"show_titles": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/options", map[string]any{"presentation_title": "Q1 Review"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"show_titles":true`)
	assert.Contains(t, rec.Body.String(), `"presentation_title":"Q1 Review"`)
}

func TestDownloadDeckEmptyBatch(t *testing.T) {
	_, mux := newTestMux()
	rec := doJSON(t, mux, http.MethodGet, "/download/deck", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDownloadDeck(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "a.png")
	doJSON(t, mux, http.MethodPost, "/api/options", map[string]any{"presentation_title": "My Deck"})

	rec := doJSON(t, mux, http.MethodGet, "/download/deck", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "presentationml")
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="My_Deck_`))
	// Cover + one image slide, nothing fell through.
	assert.Equal(t, "2", rec.Header().Get("X-U2P-Slides"))
	assert.Equal(t, "0", rec.Header().Get("X-U2P-Fallbacks"))

	data := rec.Body.Bytes()
	_, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	assert.NoError(t, err)
}

func TestBuildReport(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "a.png")

	// A second, non-presentable upload lands on the summary slide.
	var pdf bytes.Buffer
	mw := multipart.NewWriter(&pdf)
	fw, err := mw.CreateFormFile("files", "doc.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &pdf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/build/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		BatchID   string `json:"batch_id"`
		Filename  string `json:"filename"`
		Slides    int    `json:"slides"`
		Fallbacks int    `json:"fallbacks"`
		Events    []struct {
			Level  string `json:"level"`
			Code   string `json:"code"`
			Record string `json:"record"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	// Image slide + summary slide; the PDF fell through (no rasterizer).
	assert.Equal(t, 2, report.Slides)
	assert.Equal(t, 1, report.Fallbacks)
	assert.True(t, strings.HasSuffix(report.Filename, ".pptx"))
	require.Len(t, report.Events, 1)
	assert.Equal(t, "warn", report.Events[0].Level)
	assert.Equal(t, "doc.pdf", report.Events[0].Record)
}

func TestBuildReportEmptyBatch(t *testing.T) {
	_, mux := newTestMux()
	rec := doJSON(t, mux, http.MethodGet, "/api/build/report", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDownloadArchive(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "a.png")

	rec := doJSON(t, mux, http.MethodGet, "/download/archive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	data := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.True(t, strings.HasSuffix(zr.File[0].Name, "/a.png"))
}

func TestNewBatchClearsState(t *testing.T) {
	_, mux := newTestMux()
	uploadFiles(t, mux, "a.png")
	doJSON(t, mux, http.MethodPost, "/api/options", map[string]any{"show_titles": true})

	rec := doJSON(t, mux, http.MethodPost, "/api/batch/new", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, listRecords(t, mux))
	rec = doJSON(t, mux, http.MethodGet, "/api/batch", nil)
	assert.Contains(t, rec.Body.String(), `"show_titles":false`)
}

func TestHealth(t *testing.T) {
	_, mux := newTestMux()
	rec := doJSON(t, mux, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

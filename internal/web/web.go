// Package web is the HTTP surface: upload and batch management API plus
// the deck and archive downloads. A single mutex serializes access to
// the batch store; artifact builds run on a snapshot outside the lock so
// slow builds never block uploads.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/milankmezic/Upload2Present/internal/batch"
	"github.com/milankmezic/Upload2Present/internal/classify"
	"github.com/milankmezic/Upload2Present/internal/compositor"
	"github.com/milankmezic/Upload2Present/internal/deck"
	"github.com/milankmezic/Upload2Present/internal/ingest"
	"github.com/milankmezic/Upload2Present/internal/metrics"
)

// Server holds the mutable session state: the current batch and the
// presentation options.
type Server struct {
	mu    sync.Mutex
	store *batch.Store
	opts  deck.Options

	comp           *compositor.Compositor
	maxUploadBytes int64
}

func New(comp *compositor.Compositor, maxUploadMB int) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = 200
	}
	return &Server{
		store:          batch.NewStore(),
		comp:           comp,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/records", s.handleRecords)
	mux.HandleFunc("/api/records/move", s.handleMove)
	mux.HandleFunc("/api/records/title", s.handleTitle)
	mux.HandleFunc("/api/records/remove", s.handleRemove)
	mux.HandleFunc("/api/records/reset_order", s.handleResetOrder)
	mux.HandleFunc("/api/options", s.handleOptions)
	mux.HandleFunc("/api/batch", s.handleBatch)
	mux.HandleFunc("/api/batch/new", s.handleNewBatch)
	mux.HandleFunc("/api/build/report", s.handleBuildReport)
	mux.HandleFunc("/download/deck", s.handleDownloadDeck)
	mux.HandleFunc("/download/archive", s.handleDownloadArchive)
	mux.HandleFunc("/health", s.handleHealth)
}

type recordView struct {
	batch.Record
	Kind string `json:"kind"`
}

func viewOf(r batch.Record) recordView {
	return recordView{Record: r, Kind: classify.Classify(r.Name).String()}
}

func (s *Server) writeRecords(w http.ResponseWriter) {
	s.mu.Lock()
	snap := s.store.Snapshot()
	s.mu.Unlock()

	views := make([]recordView, 0, len(snap.Records))
	for _, r := range snap.Records {
		views = append(views, viewOf(r))
	}
	writeJSON(w, map[string]any{"batch_id": snap.ID, "records": views})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		http.Error(w, "missing files", http.StatusBadRequest)
		return
	}

	added := make([]recordView, 0, len(files))
	for _, hdr := range files {
		f, err := hdr.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("cannot open %q", hdr.Filename), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("cannot read %q", hdr.Filename), http.StatusBadRequest)
			return
		}

		rec := ingest.NewRecord(hdr.Filename, hdr.Header.Get("Content-Type"), data, time.Now())

		s.mu.Lock()
		rec = s.store.Append(rec)
		n := s.store.Len()
		s.mu.Unlock()

		metrics.IncUpload(classify.Classify(rec.Name).String())
		metrics.SetBatchRecords(n)
		added = append(added, viewOf(rec))
	}
	writeJSON(w, map[string]any{"status": "ok", "added": added})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeRecords(w)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Delta int    `json:"delta"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	if req.ID == "" || req.Delta == 0 {
		http.Error(w, "missing id/delta", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err := s.store.Move(req.ID, req.Delta)
	s.mu.Unlock()

	switch {
	case errors.Is(err, batch.ErrNotFound):
		http.Error(w, "record not found", http.StatusNotFound)
		return
	case errors.Is(err, batch.ErrAtEdge):
		// Already first or last: nothing to do.
		writeJSON(w, map[string]any{"status": "ok", "moved": false})
		return
	case err != nil:
		http.Error(w, "move failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "moved": true})
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	if req.ID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err := s.store.SetTitle(req.ID, req.Title)
	s.mu.Unlock()

	if errors.Is(err, batch.ErrNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"status": "ok"})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	if req.ID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err := s.store.Remove(req.ID)
	n := s.store.Len()
	s.mu.Unlock()

	if errors.Is(err, batch.ErrNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	metrics.SetBatchRecords(n)
	writeJSON(w, map[string]any{"status": "ok"})
}

func (s *Server) handleResetOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	s.store.ResetOrder()
	s.mu.Unlock()
	s.writeRecords(w)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShowTitles        *bool   `json:"show_titles"`
		PresentationTitle *string `json:"presentation_title"`
	}
	if !decodePost(w, r, &req) {
		return
	}

	s.mu.Lock()
	if req.ShowTitles != nil {
		s.opts.ShowTitles = *req.ShowTitles
	}
	if req.PresentationTitle != nil {
		s.opts.PresentationTitle = *req.PresentationTitle
	}
	opts := s.opts
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"status":             "ok",
		"show_titles":        opts.ShowTitles,
		"presentation_title": opts.PresentationTitle,
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	id := s.store.BatchID()
	n := s.store.Len()
	opts := s.opts
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"batch_id":           id,
		"records":            n,
		"show_titles":        opts.ShowTitles,
		"presentation_title": opts.PresentationTitle,
	})
}

func (s *Server) handleNewBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	s.store.Reset()
	s.opts = deck.Options{}
	id := s.store.BatchID()
	s.mu.Unlock()

	metrics.SetBatchRecords(0)
	log.Info().Str("batch_id", id).Msg("New batch started")
	writeJSON(w, map[string]any{"status": "ok", "batch_id": id})
}

// handleBuildReport runs a deck build and returns its report — slide
// and fallback counts plus the structured event stream — without the
// document bytes. The build is a pure function of the snapshot, so the
// report matches what a subsequent download would produce.
func (s *Server) handleBuildReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap, opts, ok := s.snapshotForBuild(w)
	if !ok {
		return
	}
	res, err := s.comp.BuildDeck(snap, opts)
	if err != nil {
		log.Error().Err(err).Str("batch_id", snap.ID).Msg("Deck build failed")
		http.Error(w, "deck build failed", http.StatusInternalServerError)
		return
	}
	events := res.Events
	if events == nil {
		events = []deck.Event{}
	}
	writeJSON(w, map[string]any{
		"batch_id":  snap.ID,
		"filename":  res.Filename,
		"slides":    res.Slides,
		"fallbacks": res.Fallbacks,
		"events":    events,
	})
}

func (s *Server) handleDownloadDeck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap, opts, ok := s.snapshotForBuild(w)
	if !ok {
		return
	}
	res, err := s.comp.BuildDeck(snap, opts)
	if err != nil {
		log.Error().Err(err).Str("batch_id", snap.ID).Msg("Deck build failed")
		http.Error(w, "deck build failed", http.StatusInternalServerError)
		return
	}
	// Build report travels in headers; the body is the document itself.
	w.Header().Set("X-U2P-Slides", fmt.Sprint(res.Slides))
	w.Header().Set("X-U2P-Fallbacks", fmt.Sprint(res.Fallbacks))
	serveArtifact(w, res)
}

func (s *Server) handleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap, _, ok := s.snapshotForBuild(w)
	if !ok {
		return
	}
	res, err := s.comp.BuildArchive(snap)
	if err != nil {
		log.Error().Err(err).Str("batch_id", snap.ID).Msg("Archive build failed")
		http.Error(w, "archive build failed", http.StatusInternalServerError)
		return
	}
	serveArtifact(w, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok"})
}

// snapshotForBuild copies the batch and options under the lock. It
// rejects empty batches so downloads never produce empty artifacts.
func (s *Server) snapshotForBuild(w http.ResponseWriter) (batch.Batch, deck.Options, bool) {
	s.mu.Lock()
	snap := s.store.Snapshot()
	opts := s.opts
	s.mu.Unlock()

	if len(snap.Records) == 0 {
		http.Error(w, "batch is empty", http.StatusConflict)
		return batch.Batch{}, deck.Options{}, false
	}
	return snap, opts, true
}

func serveArtifact(w http.ResponseWriter, res compositor.Result) {
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(res.Data)))
	_, _ = w.Write(res.Data)
}

func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

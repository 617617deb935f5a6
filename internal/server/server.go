// Package server exposes the document Q&A core as a JSON HTTP API:
// document upload, retrieval queries, grounded answers and collection
// management.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ynaka-dev/docqa/internal/answer"
	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/extract"
	"github.com/ynaka-dev/docqa/internal/segment"
	"github.com/ynaka-dev/docqa/internal/store"
)

// maxUploadBytes caps multipart uploads.
const maxUploadBytes = 20 << 20 // 20 MB

// Config holds the server dependencies.
type Config struct {
	Store     store.Store
	Answers   *answer.Service
	Segmenter *segment.Segmenter
	Logger    *slog.Logger
}

// Server routes HTTP requests to the retrieval core.
type Server struct {
	store     store.Store
	answers   *answer.Service
	segmenter *segment.Segmenter
	logger    *slog.Logger
}

// New creates a Server. A nil logger falls back to slog.Default().
func New(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     cfg.Store,
		answers:   cfg.Answers,
		segmenter: cfg.Segmenter,
		logger:    logger,
	}
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /documents/pdf", s.handleUploadPDF)
	mux.HandleFunc("POST /documents/markdown", s.handleUploadMarkdown)
	mux.HandleFunc("POST /documents/url", s.handleUploadURL)
	mux.HandleFunc("DELETE /documents", s.handleClear)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /answer", s.handleAnswer)
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// readUpload pulls the "file" field from a multipart form. The caller
// gets the raw bytes and the client-supplied filename.
func readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", fmt.Errorf("parse form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}

// indexChunks replaces the current collection with the given chunks and
// responds with the document summary. Uploading always replaces; the
// previous collection is discarded, never merged into.
func (s *Server) indexChunks(w http.ResponseWriter, r *http.Request, chunks []document.Chunk) {
	if len(chunks) == 0 {
		writeError(w, http.StatusBadRequest, "no text extracted from document")
		return
	}

	if err := s.store.ReplaceAll(r.Context(), chunks); err != nil {
		s.logger.Error("Indexing failed", "error", err)
		writeError(w, statusForError(err), "indexing failed: "+err.Error())
		return
	}

	summary := document.Summarize(chunks)
	s.logger.Info("Indexed document batch",
		"chunks", summary.TotalChunks,
		"chars", summary.TotalChars,
		"sources", len(summary.Sources),
	)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	data, name, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chunks, err := extract.PDF(bytes.NewReader(data), int64(len(data)), name, s.segmenter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pdf extraction failed: "+err.Error())
		return
	}
	s.indexChunks(w, r, chunks)
}

func (s *Server) handleUploadMarkdown(w http.ResponseWriter, r *http.Request) {
	data, name, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chunks, err := extract.Markdown(data, name, s.segmenter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "markdown extraction failed: "+err.Error())
		return
	}
	s.indexChunks(w, r, chunks)
}

type uploadURLRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	chunks, err := extract.Web(r.Context(), req.URL, s.segmenter)
	if err != nil {
		writeError(w, http.StatusBadGateway, "web extraction failed: "+err.Error())
		return
	}
	s.indexChunks(w, r, chunks)
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type queryResponse struct {
	Results []store.RetrievalResult `json:"results"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := s.store.Query(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.logger.Error("Query failed", "error", err)
		writeError(w, statusForError(err), "query failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Results: results})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.answers.Answer(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.logger.Error("Answer generation failed", "error", err)
		writeError(w, statusForError(err), "answer generation failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.Info(r.Context())
	if err != nil {
		s.logger.Error("Info failed", "error", err)
		writeError(w, statusForError(err), "info failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.logger.Error("Clear failed", "error", err)
		writeError(w, statusForError(err), "clear failed: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleHealth reports whether the fragment store is reachable. A
// degraded store answers 503 so load balancers can rotate the instance
// out.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.Info(r.Context())
	if err != nil {
		s.logger.Warn("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Count: info.Count})
}

// statusForError maps the store error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrEmbedding):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"videoQuiz/core"
	"videoQuiz/processors"
	"videoQuiz/storage"
)

type Server struct {
	pipeline *processors.Pipeline
	store    storage.SessionStore
	index    storage.VectorIndex
}

type PreprocessRequest struct {
	YoutubeLink string `json:"youtube_link"`
}

type PreprocessResponse struct {
	SessionID       string            `json:"session_id"`
	Transcript      string            `json:"transcript"`
	Checkpoints     []core.Checkpoint `json:"checkpoints"`
	Summary         string            `json:"summary"`
	ReviewQuestions []string          `json:"review_questions"`
}

type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

type SearchRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
}

type SearchResponse struct {
	SessionID string     `json:"session_id"`
	Query     string     `json:"query"`
	Hits      []core.Hit `json:"hits"`
}

func (s *Server) preprocessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req PreprocessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.YoutubeLink == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "youtube_link required"})
		return
	}

	session, err := s.pipeline.Preprocess(r.Context(), req.YoutubeLink)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PreprocessResponse{
		SessionID:       session.ID,
		Transcript:      session.Transcript,
		Checkpoints:     session.Checkpoints,
		Summary:         session.Summary,
		ReviewQuestions: session.ReviewQuestions,
	})
}

func (s *Server) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	start, err := strconv.ParseFloat(r.PathValue("start_time"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_time"})
		return
	}
	end, err := strconv.ParseFloat(r.PathValue("end_time"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_time"})
		return
	}

	session, err := s.store.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TranscriptResponse{
		Transcript: core.TranscriptRange(session.Segments, start, end),
	})
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.SessionID == "" || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id and query required"})
		return
	}

	// The session must exist before searching its segments.
	if _, err := s.store.Get(r.Context(), req.SessionID); err != nil {
		writeError(w, err)
		return
	}

	hits, err := s.index.Search(r.Context(), req.SessionID, req.Query, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{SessionID: req.SessionID, Query: req.Query, Hits: hits})
}

func (s *Server) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"session_store": s.store.Kind(),
		"vector_store":  s.index.Kind(),
		"time":          time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps the error taxonomy onto HTTP statuses. Every failure is
// surfaced as a structured message; nothing here is fatal to the process.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrMalformedUpstreamResponse):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrStorageFailure):
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "write json error: %v", err)
	}
}

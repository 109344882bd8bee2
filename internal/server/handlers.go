package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/history"
)

type analyzeRequest struct {
	Code     *string `json:"code"`
	Language string  `json:"language"`
}

type languageInfo struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// POST /api/v1/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req analyzeRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.err(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.err(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == nil {
		s.err(w, http.StatusBadRequest, "code is required")
		return
	}

	if s.cfg.SimulatedLatency > 0 {
		select {
		case <-time.After(s.cfg.SimulatedLatency):
		case <-r.Context().Done():
			return
		}
	}

	fr := s.runner.Analyze(r.Context(), analyzer.Input{Code: *req.Code, Language: req.Language})
	if fr.Err != nil {
		if !errors.Is(fr.Err, analyzer.ErrAnalysisFailed) {
			s.log.Error("Analyze request failed: %v", fr.Err)
		}
		s.err(w, http.StatusInternalServerError, analyzer.ErrAnalysisFailed.Error())
		return
	}

	if fr.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, fr.Report)
}

// GET /api/v1/languages
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	cat := s.runner.Engine().Catalog()
	keys := cat.Languages()

	out := make([]languageInfo, 0, len(keys))
	for _, key := range keys {
		entry := cat.Lookup(key)
		out = append(out, languageInfo{Key: key, Name: entry.Name, Extensions: entry.Extensions})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default":   cat.DefaultLanguage(),
		"languages": out,
	})
}

// GET /api/v1/history?language=&q=&source=&severity=&limit=&offset=
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.err(w, http.StatusNotFound, "history is disabled")
		return
	}

	q := r.URL.Query()
	query := history.Query{
		Text:     strings.TrimSpace(q.Get("q")),
		Source:   q.Get("source"),
		Language: strings.ToLower(strings.TrimSpace(q.Get("language"))),
		Severity: strings.ToLower(strings.TrimSpace(q.Get("severity"))),
		Limit:    clamp(parseInt(q.Get("limit"), 20), 1, 200),
		Offset:   max(parseInt(q.Get("offset"), 0), 0),
	}

	res, err := s.history.List(r.Context(), query)
	if err != nil {
		s.log.Error("Listing history failed: %v", err)
		s.err(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/v1/history/{id}
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.err(w, http.StatusNotFound, "history is disabled")
		return
	}

	rec, err := s.history.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		s.err(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		s.log.Error("Loading history record failed: %v", err)
		s.err(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /api/v1/history/stats
func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.err(w, http.StatusNotFound, "history is disabled")
		return
	}

	stats, err := s.history.Stats(r.Context())
	if err != nil {
		s.log.Error("Computing history stats failed: %v", err)
		s.err(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/v1/metrics[?format=prometheus]
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s.metrics.ExportPrometheus()))
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) err(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

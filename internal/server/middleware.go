package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/devchat-app/aidebug/internal/metrics"
)

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.pickCORSOrigin(r); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pickCORSOrigin returns the Access-Control-Allow-Origin value, or "" when
// the request origin is not allowed.
func (s *Server) pickCORSOrigin(r *http.Request) string {
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(origin, allowed) {
			return origin
		}
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inFlight := s.metrics.Gauge(metrics.MetricHTTPInFlight)
		inFlight.Inc()
		defer inFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.metrics.Counter(metrics.MetricHTTPRequests).Inc()
		s.metrics.Histogram(metrics.MetricHTTPLatency).ObserveDuration(elapsed)
		if rec.status >= http.StatusInternalServerError {
			s.metrics.Counter(metrics.MetricHTTPErrors).Inc()
		}
		s.log.WithFields(map[string]interface{}{
			"status":   rec.status,
			"duration": elapsed,
		}).Debug("%s %s", r.Method, r.URL.Path)
	})
}

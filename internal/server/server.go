// Package server exposes the analyzer over HTTP for the chat front-end.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/history"
	"github.com/devchat-app/aidebug/internal/logger"
	"github.com/devchat-app/aidebug/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// HistoryStore is the read side of the history store the API needs.
type HistoryStore interface {
	List(ctx context.Context, q history.Query) (*history.ListResult, error)
	Get(ctx context.Context, id string) (*history.Record, error)
	Stats(ctx context.Context) (*history.Stats, error)
}

// Config configures the HTTP server.
type Config struct {
	Addr             string
	AllowedOrigins   []string
	SimulatedLatency time.Duration
	MaxBodyBytes     int64
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

// Server serves the /api/v1 routes.
type Server struct {
	runner  *analyzer.Runner
	history HistoryStore // nil when history is disabled
	metrics *metrics.Collector
	cfg     Config
	log     *logger.Logger
}

// New creates a server. history may be nil; metrics defaults to the global collector.
func New(runner *analyzer.Runner, hist HistoryStore, m *metrics.Collector, cfg Config) *Server {
	if m == nil {
		m = metrics.Global()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 256 << 10
	}
	return &Server{
		runner:  runner,
		history: hist,
		metrics: m,
		cfg:     cfg,
		log:     logger.Default().WithPrefix("HTTP"),
	}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/v1/languages", s.handleLanguages)
	mux.HandleFunc("GET /api/v1/history", s.handleListHistory)
	mux.HandleFunc("GET /api/v1/history/stats", s.handleHistoryStats)
	mux.HandleFunc("GET /api/v1/history/{id}", s.handleGetHistory)
	mux.HandleFunc("GET /api/v1/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.err(w, http.StatusNotFound, "not found")
	})

	return s.instrument(s.withCORS(mux))
}

// ListenAndServe runs the HTTP server until the context ends, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Routes(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	s.log.Info("Listening on %s", ln.Addr())
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

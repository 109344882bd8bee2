// Package profiler collects CPU and heap profiles around a CLI run and can
// expose the pprof endpoints while a batch or the server is running.
package profiler

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	rpprof "runtime/pprof"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/devchat-app/aidebug/internal/logger"
)

// Config selects which profiles are collected. Empty fields are disabled.
type Config struct {
	CPUProfile string // file for the CPU profile
	MemProfile string // file for the heap profile, written on Stop
	HTTPAddr   string // pprof listen address, e.g. "localhost:6060"
}

// Enabled reports whether any profile is requested.
func (c Config) Enabled() bool {
	return c.CPUProfile != "" || c.MemProfile != "" || c.HTTPAddr != ""
}

// Session is a running profiling session.
type Session struct {
	cfg     Config
	cpuFile *os.File
	server  *http.Server
	addr    net.Addr
	started time.Time
	log     *logger.Logger
}

// Start begins the requested profiles.
func Start(cfg Config) (*Session, error) {
	s := &Session{
		cfg:     cfg,
		started: time.Now(),
		log:     logger.Default().WithPrefix("PROFILE"),
	}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("creating CPU profile: %w", err)
		}
		if err := rpprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("starting CPU profile: %w", err)
		}
		s.cpuFile = f
	}

	if cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
		}
		s.addr = ln.Addr()
		s.server = &http.Server{
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Warn("pprof server: %v", err)
			}
		}()
		s.log.Info("pprof listening on http://%s/debug/pprof/", s.addr)
	}

	s.log.Debug("Profiling started, %s", ReadMemStats())
	return s, nil
}

// Handler serves the pprof endpoints on its own mux, so they never leak
// onto http.DefaultServeMux.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// Addr returns the pprof listen address, or nil when not serving.
func (s *Session) Addr() net.Addr { return s.addr }

// Elapsed returns the time since Start.
func (s *Session) Elapsed() time.Duration { return time.Since(s.started) }

// Stop ends CPU profiling, writes the heap profile and closes the pprof server.
func (s *Session) Stop() error {
	var errs []error

	if err := s.stopCPU(); err != nil {
		errs = append(errs, err)
	}

	if s.cfg.MemProfile != "" {
		if err := writeHeapProfile(s.cfg.MemProfile); err != nil {
			errs = append(errs, err)
		}
	}

	if s.server != nil {
		if err := s.server.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing pprof server: %w", err))
		}
	}

	s.log.Debug("Profiling stopped after %v, %s", s.Elapsed().Round(time.Millisecond), ReadMemStats())
	return errors.Join(errs...)
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	rpprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	if err != nil {
		return fmt.Errorf("closing CPU profile: %w", err)
	}
	return nil
}

func writeHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating heap profile: %w", err)
	}
	defer f.Close()
	if err := rpprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("writing heap profile: %w", err)
	}
	return nil
}

// MemStats is a small subset of runtime.MemStats.
type MemStats struct {
	HeapAlloc  uint64
	TotalAlloc uint64
	Sys        uint64
	NumGC      uint32
}

// ReadMemStats samples the runtime memory statistics.
func ReadMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		HeapAlloc:  m.HeapAlloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

func (m MemStats) String() string {
	return fmt.Sprintf("heap %s, total %s, sys %s, gc %d",
		humanize.IBytes(m.HeapAlloc),
		humanize.IBytes(m.TotalAlloc),
		humanize.IBytes(m.Sys),
		m.NumGC,
	)
}

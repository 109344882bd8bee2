// Package metrics collects in-process counters, gauges and latency
// distributions for the analyzer and the HTTP API.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultHistogramSize is the number of recent observations a histogram keeps.
const DefaultHistogramSize = 1000

// Collector collects and manages metrics.
type Collector struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	startTime  time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
		startTime:  time.Now(),
	}
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds n to the counter.
func (c *Counter) Add(n int64) { c.value.Add(n) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge represents a value that can go up or down.
type Gauge struct {
	mu    sync.Mutex
	value float64
}

// Set sets the gauge value.
func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

// Add adds v (possibly negative) to the gauge.
func (g *Gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.mu.Unlock()
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Histogram keeps the most recent observations in a ring buffer.
type Histogram struct {
	mu     sync.Mutex
	values []float64
	next   int
	full   bool
	total  int64
}

// NewHistogram creates a histogram remembering up to size observations.
func NewHistogram(size int) *Histogram {
	if size <= 0 {
		size = DefaultHistogramSize
	}
	return &Histogram{values: make([]float64, size)}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.values[h.next] = v
	h.next++
	h.total++
	if h.next == len(h.values) {
		h.next = 0
		h.full = true
	}
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) { h.Observe(d.Seconds()) }

func (h *Histogram) sorted() []float64 {
	n := h.next
	if h.full {
		n = len(h.values)
	}
	out := make([]float64, n)
	copy(out, h.values[:n])
	sort.Float64s(out)
	return out
}

// Percentile returns the p-th percentile (0-100) of retained observations.
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.sorted()
	if len(s) == 0 {
		return 0
	}
	return s[int(float64(len(s)-1)*p/100)]
}

// Stats summarizes retained observations. Count is the lifetime total.
func (h *Histogram) Stats() HistogramStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.sorted()
	if len(s) == 0 {
		return HistogramStats{}
	}

	var sum float64
	for _, v := range s {
		sum += v
	}
	n := len(s)
	return HistogramStats{
		Count: h.total,
		Min:   s[0],
		Max:   s[n-1],
		Avg:   sum / float64(n),
		P50:   s[(n-1)*50/100],
		P90:   s[(n-1)*90/100],
		P99:   s[(n-1)*99/100],
	}
}

// HistogramStats contains histogram statistics.
type HistogramStats struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
}

// Timer measures one duration into a histogram.
type Timer struct {
	hist  *Histogram
	start time.Time
}

// Stop records the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	t.hist.ObserveDuration(d)
	return d
}

// Counter returns or creates a counter.
func (c *Collector) Counter(name string) *Counter {
	c.mu.RLock()
	counter, ok := c.counters[name]
	c.mu.RUnlock()
	if ok {
		return counter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if counter, ok := c.counters[name]; ok {
		return counter
	}
	counter = &Counter{}
	c.counters[name] = counter
	return counter
}

// Gauge returns or creates a gauge.
func (c *Collector) Gauge(name string) *Gauge {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gauge, ok := c.gauges[name]; ok {
		return gauge
	}
	gauge := &Gauge{}
	c.gauges[name] = gauge
	return gauge
}

// Histogram returns or creates a histogram.
func (c *Collector) Histogram(name string) *Histogram {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hist, ok := c.histograms[name]; ok {
		return hist
	}
	hist := NewHistogram(DefaultHistogramSize)
	c.histograms[name] = hist
	return hist
}

// StartTimer starts timing into the named histogram.
func (c *Collector) StartTimer(name string) *Timer {
	return &Timer{hist: c.Histogram(name), start: time.Now()}
}

// Snapshot is a point-in-time copy of every metric.
type Snapshot struct {
	Uptime     string                    `json:"uptime"`
	Counters   map[string]int64          `json:"counters"`
	Gauges     map[string]float64        `json:"gauges"`
	Histograms map[string]HistogramStats `json:"histograms"`
}

// Snapshot copies the current values.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:     time.Since(c.startTime).Round(time.Millisecond).String(),
		Counters:   make(map[string]int64, len(c.counters)),
		Gauges:     make(map[string]float64, len(c.gauges)),
		Histograms: make(map[string]HistogramStats, len(c.histograms)),
	}
	for name, counter := range c.counters {
		s.Counters[name] = counter.Value()
	}
	for name, gauge := range c.gauges {
		s.Gauges[name] = gauge.Value()
	}
	for name, hist := range c.histograms {
		s.Histograms[name] = hist.Stats()
	}
	return s
}

// ExportPrometheus renders a snapshot in the Prometheus text format.
// Histograms are exported as summaries.
func (c *Collector) ExportPrometheus() string {
	s := c.Snapshot()
	var sb strings.Builder

	for _, name := range sortedKeys(s.Counters) {
		fmt.Fprintf(&sb, "# TYPE %s counter\n%s %d\n", name, name, s.Counters[name])
	}
	for _, name := range sortedKeys(s.Gauges) {
		fmt.Fprintf(&sb, "# TYPE %s gauge\n%s %g\n", name, name, s.Gauges[name])
	}
	for _, name := range sortedKeys(s.Histograms) {
		st := s.Histograms[name]
		fmt.Fprintf(&sb, "# TYPE %s summary\n", name)
		fmt.Fprintf(&sb, "%s{quantile=\"0.5\"} %g\n", name, st.P50)
		fmt.Fprintf(&sb, "%s{quantile=\"0.9\"} %g\n", name, st.P90)
		fmt.Fprintf(&sb, "%s{quantile=\"0.99\"} %g\n", name, st.P99)
		fmt.Fprintf(&sb, "%s_count %d\n", name, st.Count)
	}

	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copyright 2025 Seth Burkart
//
// In-memory metrics with Prometheus text exposition

package transport

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// MetricsRegistry collects request counts, latencies, and connection gauges
// for the /metrics endpoint. All methods are safe for concurrent use.
type MetricsRegistry struct {
	counters   map[string]*counter
	histograms map[string]*histogram
	gauges     map[string]*gauge
	mu         sync.RWMutex
}

type counter struct {
	values map[string]uint64 // label combo -> count
	mu     sync.RWMutex
}

type histogram struct {
	counts  map[string][]uint64 // label combo -> bucket counts
	sums    map[string]float64
	totals  map[string]uint64
	buckets []float64 // upper bounds
	mu      sync.RWMutex
}

type gauge struct {
	values map[string]float64
	mu     sync.RWMutex
}

// Request latency buckets in seconds. The top end covers operations waiting
// on deck conversion.
var defaultLatencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 90.0,
}

// NewMetricsRegistry creates a registry with the standard server metrics
// registered.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
		gauges:     make(map[string]*gauge),
	}
	m.counters["mcp_requests_total"] = &counter{values: make(map[string]uint64)}
	m.counters["mcp_sse_events_sent_total"] = &counter{values: make(map[string]uint64)}
	m.histograms["mcp_request_duration_seconds"] = &histogram{
		buckets: defaultLatencyBuckets,
		counts:  make(map[string][]uint64),
		sums:    make(map[string]float64),
		totals:  make(map[string]uint64),
	}
	m.gauges["mcp_sse_connections_active"] = &gauge{values: make(map[string]float64)}
	return m
}

// IncrementCounter adds 1 to a counter. Labels are preformatted as
// key1="value1",key2="value2".
func (m *MetricsRegistry) IncrementCounter(name string, labels string) {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		return
	}
	c.mu.Lock()
	c.values[labels]++
	c.mu.Unlock()
}

// ObserveHistogram records one value.
func (m *MetricsRegistry) ObserveHistogram(name string, labels string, value float64) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.counts[labels]; !exists {
		h.counts[labels] = make([]uint64, len(h.buckets)+1) // +1 for +Inf
	}
	h.sums[labels] += value
	h.totals[labels]++

	// Buckets are stored disjoint and accumulated on write.
	slot := len(h.buckets)
	for i, bound := range h.buckets {
		if value <= bound {
			slot = i
			break
		}
	}
	h.counts[labels][slot]++
}

// SetGauge sets a gauge.
func (m *MetricsRegistry) SetGauge(name string, labels string, value float64) {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		return
	}
	g.mu.Lock()
	g.values[labels] = value
	g.mu.Unlock()
}

func sortedMetricKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// series formats one sample line, with or without labels.
func series(name, labels, value string) string {
	if labels == "" {
		return fmt.Sprintf("%s %s\n", name, value)
	}
	return fmt.Sprintf("%s{%s} %s\n", name, labels, value)
}

// WritePrometheus writes every metric in Prometheus text format, sorted for
// deterministic output.
func (m *MetricsRegistry) WritePrometheus(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range sortedMetricKeys(m.counters) {
		c := m.counters[name]
		c.mu.RLock()
		if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", name); err != nil {
			c.mu.RUnlock()
			return err
		}
		for _, l := range sortedMetricKeys(c.values) {
			if _, err := io.WriteString(w, series(name, l, fmt.Sprintf("%d", c.values[l]))); err != nil {
				c.mu.RUnlock()
				return err
			}
		}
		c.mu.RUnlock()
	}

	for _, name := range sortedMetricKeys(m.gauges) {
		g := m.gauges[name]
		g.mu.RLock()
		if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", name); err != nil {
			g.mu.RUnlock()
			return err
		}
		for _, l := range sortedMetricKeys(g.values) {
			if _, err := io.WriteString(w, series(name, l, fmt.Sprintf("%g", g.values[l]))); err != nil {
				g.mu.RUnlock()
				return err
			}
		}
		g.mu.RUnlock()
	}

	for _, name := range sortedMetricKeys(m.histograms) {
		h := m.histograms[name]
		h.mu.RLock()
		if err := h.write(w, name); err != nil {
			h.mu.RUnlock()
			return err
		}
		h.mu.RUnlock()
	}
	return nil
}

// write emits one histogram's buckets, sum, and count. Caller holds the
// read lock.
func (h *histogram) write(w io.Writer, name string) error {
	if _, err := fmt.Fprintf(w, "# TYPE %s histogram\n", name); err != nil {
		return err
	}
	for _, l := range sortedMetricKeys(h.counts) {
		counts := h.counts[l]

		labelPrefix := ""
		if l != "" {
			labelPrefix = l + ","
		}

		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += counts[i]
			if _, err := fmt.Fprintf(w, "%s_bucket{%sle=\"%g\"} %d\n", name, labelPrefix, bound, cumulative); err != nil {
				return err
			}
		}
		cumulative += counts[len(h.buckets)]
		if _, err := fmt.Fprintf(w, "%s_bucket{%sle=\"+Inf\"} %d\n", name, labelPrefix, cumulative); err != nil {
			return err
		}
		if _, err := io.WriteString(w, series(name+"_sum", l, fmt.Sprintf("%g", h.sums[l]))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, series(name+"_count", l, fmt.Sprintf("%d", h.totals[l]))); err != nil {
			return err
		}
	}
	return nil
}

// RecordRequest records one tool invocation: count by tool and status,
// latency by tool. The protocol server calls this per tools/call.
func (m *MetricsRegistry) RecordRequest(tool string, status string, duration time.Duration) {
	m.IncrementCounter("mcp_requests_total", fmt.Sprintf(`tool="%s",status="%s"`, tool, status))
	m.ObserveHistogram("mcp_request_duration_seconds", fmt.Sprintf(`tool="%s"`, tool), duration.Seconds())
}

// RecordSSEEvent records one SSE event delivery.
func (m *MetricsRegistry) RecordSSEEvent() {
	m.IncrementCounter("mcp_sse_events_sent_total", "")
}

// SetSSEConnections sets the active SSE connection gauge.
func (m *MetricsRegistry) SetSSEConnections(count int) {
	m.SetGauge("mcp_sse_connections_active", "", float64(count))
}

var defaultMetrics = NewMetricsRegistry()

// DefaultMetrics returns the process-wide registry.
func DefaultMetrics() *MetricsRegistry {
	return defaultMetrics
}

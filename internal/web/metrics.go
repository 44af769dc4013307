package web

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// metrics aggregates request counters for /health and /metrics.
type metrics struct {
	started time.Time

	requests      atomic.Int64
	errors        atomic.Int64
	totalMicros   atomic.Int64
	concurrent    atomic.Int64
	maxConcurrent atomic.Int64
}

func newMetrics(now time.Time) *metrics {
	return &metrics{started: now}
}

// begin marks a request in flight and returns the func that completes it.
func (m *metrics) begin() func(status int, d time.Duration) {
	cur := m.concurrent.Add(1)
	for {
		peak := m.maxConcurrent.Load()
		if cur <= peak || m.maxConcurrent.CompareAndSwap(peak, cur) {
			break
		}
	}
	return func(status int, d time.Duration) {
		m.concurrent.Add(-1)
		m.requests.Add(1)
		m.totalMicros.Add(d.Microseconds())
		if status >= 400 {
			m.errors.Add(1)
		}
	}
}

type metricsSnapshot struct {
	Requests      int64   `json:"requests"`
	Errors        int64   `json:"errors"`
	AvgResponseMs float64 `json:"avg_response_ms"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Concurrent    int64   `json:"concurrent_requests"`
	MaxConcurrent int64   `json:"max_concurrent_requests"`
}

func (m *metrics) snapshot(now time.Time) metricsSnapshot {
	s := metricsSnapshot{
		Requests:      m.requests.Load(),
		Errors:        m.errors.Load(),
		UptimeSeconds: int64(now.Sub(m.started).Seconds()),
		Concurrent:    m.concurrent.Load(),
		MaxConcurrent: m.maxConcurrent.Load(),
	}
	if s.Requests > 0 {
		s.AvgResponseMs = float64(m.totalMicros.Load()) / float64(s.Requests) / 1000
	}
	return s
}

// writePrometheus renders the snapshot in the Prometheus text format.
func (s metricsSnapshot) writePrometheus(w io.Writer) {
	metric := func(name, typ, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n", name, help, name, typ, name, v)
	}
	metric("datecalc_requests_total", "counter", "Total HTTP requests handled.", s.Requests)
	metric("datecalc_errors_total", "counter", "HTTP requests answered with a 4xx or 5xx status.", s.Errors)
	metric("datecalc_response_time_avg_ms", "gauge", "Mean response time in milliseconds.", fmt.Sprintf("%.3f", s.AvgResponseMs))
	metric("datecalc_uptime_seconds", "gauge", "Seconds since the server started.", s.UptimeSeconds)
	metric("datecalc_concurrent_requests", "gauge", "Requests currently in flight.", s.Concurrent)
	metric("datecalc_max_concurrent_requests", "gauge", "Highest number of requests seen in flight at once.", s.MaxConcurrent)
}

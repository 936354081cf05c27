package observability

import (
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics is the shell's Prometheus text exposition. Everything is kept in
// process; /metrics renders it on demand.
type Metrics struct {
	shellRequests *CounterVec
	shellLatency  *HistogramVec
	shellInflight *Gauge

	dispatches      *CounterVec
	dispatchLatency *HistogramVec

	invalidations *Counter
	sseClients    *Gauge
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

func NewMetrics() *Metrics {
	return &Metrics{
		shellRequests:   NewCounterVec("coursemarket_shell_requests_total", "Shell HTTP requests.", []string{"method", "route", "status"}),
		shellLatency:    NewHistogramVec("coursemarket_shell_request_seconds", "Shell HTTP request latency.", []string{"method", "route"}, nil),
		shellInflight:   NewGauge("coursemarket_shell_inflight_requests", "Shell HTTP requests in flight."),
		dispatches:      NewCounterVec("coursemarket_dispatch_total", "Dispatcher runs by outcome.", []string{"container", "operation", "status"}),
		dispatchLatency: NewHistogramVec("coursemarket_dispatch_seconds", "Dispatcher latency including the backend call.", []string{"container", "operation"}, nil),
		invalidations:   NewCounter("coursemarket_session_invalidations_total", "Sessions torn down after an unauthorized response."),
		sseClients:      NewGauge("coursemarket_sse_clients", "Connected event stream clients."),
	}
}

// Current returns the process-wide registry.
func Current() *Metrics {
	metricsOnce.Do(func() { metrics = NewMetrics() })
	return metrics
}

func (m *Metrics) ObserveShell(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.shellRequests.Inc(method, route, strconv.Itoa(status))
	m.shellLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) ShellInflightInc() {
	if m == nil {
		return
	}
	m.shellInflight.Inc()
}

func (m *Metrics) ShellInflightDec() {
	if m == nil {
		return
	}
	m.shellInflight.Dec()
}

// ObserveDispatch records one dispatcher outcome: succeeded, failed, canceled
// or stale.
func (m *Metrics) ObserveDispatch(container, op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.Inc(container, op, status)
	m.dispatchLatency.Observe(dur.Seconds(), container, op)
}

func (m *Metrics) IncInvalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

func (m *Metrics) SSEClientsInc() {
	if m == nil {
		return
	}
	m.sseClients.Inc()
}

func (m *Metrics) SSEClientsDec() {
	if m == nil {
		return
	}
	m.sseClients.Dec()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.shellRequests,
		m.shellLatency,
		m.shellInflight,
		m.dispatches,
		m.dispatchLatency,
		m.invalidations,
		m.sseClients,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatTurnsTotal    *prometheus.CounterVec
	chatDuration      *prometheus.HistogramVec
	chatCitationLinks *prometheus.HistogramVec
	selectionTotal    *prometheus.CounterVec
	selectionStores   *prometheus.HistogramVec
	uploadsTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ulss9",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ulss9",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ulss9",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatTurnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ulss9",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by outcome (grounded or a fallback reason).",
		},
		[]string{"service", "outcome"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ulss9",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat turn duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	chatCitationLinks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ulss9",
			Subsystem: "chat",
			Name:      "citation_links",
			Help:      "Distribution of citation links per grounded answer.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)
	selectionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ulss9",
			Subsystem: "selection",
			Name:      "requests_total",
			Help:      "Total store selections by outcome (classified or a fallback reason).",
		},
		[]string{"service", "outcome"},
	)
	selectionStores := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ulss9",
			Subsystem: "selection",
			Name:      "stores_selected",
			Help:      "Distribution of stores selected per request.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ulss9",
			Subsystem: "admin",
			Name:      "uploads_total",
			Help:      "Total admin document uploads by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatTurnsTotal,
		chatDuration,
		chatCitationLinks,
		selectionTotal,
		selectionStores,
		uploadsTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		chatTurnsTotal:    chatTurnsTotal,
		chatDuration:      chatDuration,
		chatCitationLinks: chatCitationLinks,
		selectionTotal:    selectionTotal,
		selectionStores:   selectionStores,
		uploadsTotal:      uploadsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses per-resource segments to keep label cardinality
// bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/admin/stores/") && strings.Contains(path[len("/api/admin/stores/"):], "/documents/"):
		return "/api/admin/stores/{domain}/documents/{name}"
	case strings.HasSuffix(path, "/documents") && strings.HasPrefix(path, "/api/admin/stores/"):
		return "/api/admin/stores/{domain}/documents"
	case strings.HasSuffix(path, "/upload") && strings.HasPrefix(path, "/api/admin/stores/"):
		return "/api/admin/stores/{domain}/upload"
	case strings.HasPrefix(path, "/api/admin/stores/"):
		return "/api/admin/stores/{domain}"
	default:
		return path
	}
}

// RecordChatTurn tracks one chat turn; outcome is "grounded" or the
// fallback reason.
func (m *HTTPServerMetrics) RecordChatTurn(service, outcome string, linkCount int, duration time.Duration) {
	if outcome == "" {
		outcome = "grounded"
	}
	m.chatTurnsTotal.WithLabelValues(service, outcome).Inc()
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
	if outcome == "grounded" {
		m.chatCitationLinks.WithLabelValues(service).Observe(float64(linkCount))
	}
}

// RecordSelection tracks one store selection; outcome is "classified" or
// the fallback reason.
func (m *HTTPServerMetrics) RecordSelection(service, outcome string, storeCount int) {
	if outcome == "" {
		outcome = "classified"
	}
	m.selectionTotal.WithLabelValues(service, outcome).Inc()
	m.selectionStores.WithLabelValues(service).Observe(float64(storeCount))
}

func (m *HTTPServerMetrics) RecordUpload(service, status string) {
	if status == "" {
		status = "unknown"
	}
	m.uploadsTotal.WithLabelValues(service, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}

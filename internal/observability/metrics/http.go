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

	chatRequestsTotal  *prometheus.CounterVec
	chatRouteTotal     *prometheus.CounterVec
	chatToolCallsTotal *prometheus.CounterVec
	chatNoContextTotal *prometheus.CounterVec
	chatCitations      *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
	retrievedPassages  *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finsight",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "finsight",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total completed chat requests by status.",
		},
		[]string{"service", "status"},
	)
	chatRouteTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "chat",
			Name:      "route_total",
			Help:      "Total chat requests by routing decision.",
		},
		[]string{"service", "route"},
	)
	chatToolCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "chat",
			Name:      "tool_calls_total",
			Help:      "Total tool executions surfaced in chat answers.",
		},
		[]string{"service", "tool"},
	)
	chatNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "chat",
			Name:      "no_context_total",
			Help:      "Total chat requests answered without document context.",
		},
		[]string{"service"},
	)
	chatCitations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finsight",
			Subsystem: "chat",
			Name:      "citations",
			Help:      "Distribution of citations per answered chat request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finsight",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	retrievedPassages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finsight",
			Subsystem: "retrieval",
			Name:      "passages",
			Help:      "Distribution of reranked passages per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatRouteTotal,
		chatToolCallsTotal,
		chatNoContextTotal,
		chatCitations,
		chatDuration,
		retrievedPassages,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatRequestsTotal:  chatRequestsTotal,
		chatRouteTotal:     chatRouteTotal,
		chatToolCallsTotal: chatToolCallsTotal,
		chatNoContextTotal: chatNoContextTotal,
		chatCitations:      chatCitations,
		chatDuration:       chatDuration,
		retrievedPassages:  retrievedPassages,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/") && strings.HasSuffix(path, "/kpi-report"):
		return "/v1/documents/{document_id}/kpi-report"
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordChatRequest(service, status, route, tool string, citations int, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.chatRequestsTotal.WithLabelValues(service, status).Inc()
	if route != "" {
		m.chatRouteTotal.WithLabelValues(service, route).Inc()
	}
	if tool != "" {
		m.chatToolCallsTotal.WithLabelValues(service, tool).Inc()
	}
	m.chatCitations.WithLabelValues(service).Observe(float64(citations))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordNoContext(service string) {
	m.chatNoContextTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordRetrievedPassages(service string, count int) {
	m.retrievedPassages.WithLabelValues(service).Observe(float64(count))
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

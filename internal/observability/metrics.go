package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	formEvents      *prometheus.HistogramVec
	formCalls       *prometheus.HistogramVec
	formSessions    prometheus.Gauge
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	events := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_form_event_duration_seconds",
		Help:    "Durasi handler event form per doctype dan event.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"doctype", "event"})
	calls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_form_call_duration_seconds",
		Help:    "Durasi panggilan server dari form per method dan hasil.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "outcome"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "odyssey_form_sessions",
		Help: "Jumlah sesi form yang sedang terbuka.",
	})
	registry.MustRegister(requests, duration, events, calls, sessions)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		formEvents:      events,
		formCalls:       calls,
		formSessions:    sessions,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// EventHandled mencatat durasi satu handler event form.
func (m *Metrics) EventHandled(doctype, event string, d time.Duration) {
	if m == nil {
		return
	}
	m.formEvents.WithLabelValues(doctype, event).Observe(d.Seconds())
}

// CallCompleted mencatat durasi panggilan server beserta hasilnya.
func (m *Metrics) CallCompleted(method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.formCalls.WithLabelValues(method, outcome).Observe(d.Seconds())
}

// Set memperbarui jumlah sesi form yang terbuka.
func (m *Metrics) Set(v float64) {
	if m == nil {
		return
	}
	m.formSessions.Set(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

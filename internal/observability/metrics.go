package observability

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	bookingOutcomes    *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	projectionDuration prometheus.Histogram
	slotsProjected     prometheus.Counter
	outboxPublished    prometheus.Counter
	outboxFailures     prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	bookingOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_attempts_total",
		Help: "Booking attempts by outcome",
	}, []string{"outcome"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_transitions_total",
		Help: "Reservation life-cycle transition attempts by target status and outcome",
	}, []string{"status", "outcome"})

	projectionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "slot_projection_duration_seconds",
		Help:    "Time spent reading and projecting slots",
		Buckets: prometheus.DefBuckets,
	})

	slotsProjected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slots_projected_total",
		Help: "Total number of available slots returned by projections",
	})

	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events delivered to Kafka",
	})

	outboxFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Failed outbox publish batches",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, bookingOutcomes, transitions,
		projectionDuration, slotsProjected, outboxPublished, outboxFailures, goroutines)

	return &Metrics{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		bookingOutcomes:    bookingOutcomes,
		transitions:        transitions,
		projectionDuration: projectionDuration,
		slotsProjected:     slotsProjected,
		outboxPublished:    outboxPublished,
		outboxFailures:     outboxFailures,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

func (m *Metrics) ObserveProjection(duration time.Duration, slots int) {
	if m == nil {
		return
	}
	m.projectionDuration.Observe(duration.Seconds())
	m.slotsProjected.Add(float64(slots))
}

func (m *Metrics) RecordBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTransition(status, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status, outcome).Inc()
}

func (m *Metrics) RecordOutboxPublished(n int) {
	if m == nil {
		return
	}
	m.outboxPublished.Add(float64(n))
}

func (m *Metrics) RecordOutboxFailure() {
	if m == nil {
		return
	}
	m.outboxFailures.Inc()
}

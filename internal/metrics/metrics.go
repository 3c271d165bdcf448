package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeBooked   = "booked"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	bookings      *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	feePayments   prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Name:      "bookings_total",
			Help:      "Booking attempts by priority and outcome.",
		}, []string{"priority", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Name:      "appointment_transitions_total",
			Help:      "Appointment status transitions by target status.",
		}, []string{"status"}),
		feePayments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hospital",
			Name:      "fee_payments_total",
			Help:      "Ledger entries appended to admissions.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hospital",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.bookings,
		m.transitions,
		m.feePayments,
		m.httpRequests,
		m.httpDurations,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveBooking(priority, outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(priority, outcome).Inc()
}

func (m *Metrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveFeePayment() {
	if m == nil {
		return
	}
	m.feePayments.Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDurations.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

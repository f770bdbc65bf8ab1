package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration verification module.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	// Verification outcomes by stored status and method
	VerificationOutcome *prometheus.CounterVec

	// End-to-end verification latency
	VerifyLatency prometheus.Histogram

	// Cache lookups by result: hit, stale, miss, error
	CacheLookups *prometheus.CounterVec

	// Partner registry request latency by result category
	PartnerLatency *prometheus.HistogramVec

	// 1 while the partner circuit breaker is open
	PartnerCircuitOpen prometheus.Gauge

	ClaimsEnqueued  prometheus.Counter
	AlertsRaised    prometheus.Counter
	PersistFailures prometheus.Counter

	// Alert relay publishes by result: published, failed
	AlertsPublished *prometheus.CounterVec

	// Read-repair events by result: parked, repaired, failed
	ReadRepairs *prometheus.CounterVec
}

// New registers all registration metrics with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		VerificationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regverify_verification_outcomes_total",
			Help: "Total verification outcomes by status and method",
		}, []string{"status", "method"}),

		VerifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "regverify_verify_duration_seconds",
			Help:    "Duration of full verification including cache, partner and queue",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regverify_cache_lookups_total",
			Help: "Registration cache lookups by result",
		}, []string{"result"}),

		PartnerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regverify_partner_request_duration_seconds",
			Help:    "Duration of partner registry requests by result category",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),

		PartnerCircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "regverify_partner_circuit_open",
			Help: "1 while the partner circuit breaker is open",
		}),

		ClaimsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "regverify_manual_queue_enqueued_total",
			Help: "Claims written to the manual verification queue",
		}),

		AlertsRaised: factory.NewCounter(prometheus.CounterOpts{
			Name: "regverify_compliance_alerts_raised_total",
			Help: "Compliance alerts created on transitions into pending",
		}),

		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "regverify_persist_failures_total",
			Help: "Verification outcomes that could not be persisted",
		}),

		AlertsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regverify_alert_relay_publishes_total",
			Help: "Compliance alerts handed to the message broker by result",
		}, []string{"result"}),

		ReadRepairs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regverify_read_repairs_total",
			Help: "Read-repair events for outcomes the durable store rejected",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementOutcome(status, method string) {
	if m != nil {
		m.VerificationOutcome.WithLabelValues(status, method).Inc()
	}
}

func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}

// RecordCacheLookup records a cache lookup result.
func (m *Metrics) RecordCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObservePartnerRequest(result string, d time.Duration) {
	if m != nil {
		m.PartnerLatency.WithLabelValues(result).Observe(d.Seconds())
	}
}

// SetPartnerCircuitOpen records the breaker state.
func (m *Metrics) SetPartnerCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.PartnerCircuitOpen.Set(1)
		return
	}
	m.PartnerCircuitOpen.Set(0)
}

func (m *Metrics) IncrementEnqueued() {
	if m != nil {
		m.ClaimsEnqueued.Inc()
	}
}

func (m *Metrics) IncrementAlertsRaised() {
	if m != nil {
		m.AlertsRaised.Inc()
	}
}

func (m *Metrics) IncrementPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) IncrementAlertsPublished(result string) {
	if m != nil {
		m.AlertsPublished.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementReadRepair(result string) {
	if m != nil {
		m.ReadRepairs.WithLabelValues(result).Inc()
	}
}

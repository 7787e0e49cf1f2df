package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine. Services receive this
// optionally; a nil *Metrics disables instrumentation (unit tests).
type Metrics struct {
	CustodyAppends      *prometheus.CounterVec
	HashVerifications   *prometheus.CounterVec
	DisposalTransitions *prometheus.CounterVec
	DisposalRejections  *prometheus.CounterVec
	ScansRun            prometheus.Counter
	RequestsCreated     prometheus.Counter
	HoldsPlaced         prometheus.Counter
	HoldsReleased       prometheus.Counter
	HTTPDuration        *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CustodyAppends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_custody_appends_total",
			Help: "Custody ledger entries appended, by action.",
		}, []string{"action"}),
		HashVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_hash_verifications_total",
			Help: "Evidence hash verifications, by outcome.",
		}, []string{"outcome"}),
		DisposalTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_disposal_transitions_total",
			Help: "Disposal workflow transitions, by target status.",
		}, []string{"to"}),
		DisposalRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_disposal_rejections_total",
			Help: "Disposal transitions rejected, by error code.",
		}, []string{"code"}),
		ScansRun: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_eligibility_scans_total",
			Help: "Eligibility scans executed.",
		}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_disposal_requests_created_total",
			Help: "Disposal requests created by the eligibility scan.",
		}),
		HoldsPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_legal_holds_placed_total",
			Help: "Legal holds placed.",
		}),
		HoldsReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_legal_holds_released_total",
			Help: "Legal holds released.",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custos_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveHTTP records one request's latency. Safe on a nil receiver.
func (m *Metrics) ObserveHTTP(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route, status).Observe(d.Seconds())
}

// IncCustodyAppend records a ledger append. Safe on a nil receiver.
func (m *Metrics) IncCustodyAppend(action string) {
	if m == nil {
		return
	}
	m.CustodyAppends.WithLabelValues(action).Inc()
}

// IncHashVerification records a verification outcome. Safe on a nil receiver.
func (m *Metrics) IncHashVerification(outcome string) {
	if m == nil {
		return
	}
	m.HashVerifications.WithLabelValues(outcome).Inc()
}

// IncDisposalTransition records a successful transition. Safe on nil.
func (m *Metrics) IncDisposalTransition(to string) {
	if m == nil {
		return
	}
	m.DisposalTransitions.WithLabelValues(to).Inc()
}

// IncDisposalRejection records a rejected transition. Safe on nil.
func (m *Metrics) IncDisposalRejection(code string) {
	if m == nil {
		return
	}
	m.DisposalRejections.WithLabelValues(code).Inc()
}

// IncScan records one eligibility scan run. Safe on nil.
func (m *Metrics) IncScan() {
	if m == nil {
		return
	}
	m.ScansRun.Inc()
}

// IncRequestCreated records one disposal request created. Safe on nil.
func (m *Metrics) IncRequestCreated() {
	if m == nil {
		return
	}
	m.RequestsCreated.Inc()
}

// IncHoldPlaced records one hold placement. Safe on nil.
func (m *Metrics) IncHoldPlaced() {
	if m == nil {
		return
	}
	m.HoldsPlaced.Inc()
}

// IncHoldReleased records one hold release. Safe on nil.
func (m *Metrics) IncHoldReleased() {
	if m == nil {
		return
	}
	m.HoldsReleased.Inc()
}

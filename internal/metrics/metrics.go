// Package metrics defines the Prometheus collectors for splitchat.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for Requests.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeStale    = "stale"
	OutcomeRejected = "rejected"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RPCs                *prometheus.CounterVec
	Requests            *prometheus.CounterVec
	CollaboratorSeconds *prometheus.HistogramVec
	StaleResponses      prometheus.Counter
	Sessions            prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RPCs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "splitchat_rpcs_total",
			Help: "Handled RPCs by procedure and Connect code.",
		}, []string{"procedure", "code"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "splitchat_requests_total",
			Help: "Mutating session requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		CollaboratorSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splitchat_collaborator_seconds",
			Help:    "Latency of external collaborator calls.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"collaborator"}),
		StaleResponses: f.NewCounter(prometheus.CounterOpts{
			Name: "splitchat_stale_responses_total",
			Help: "Collaborator responses discarded because a newer request superseded them.",
		}),
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "splitchat_sessions",
			Help: "Live sessions held in memory.",
		}),
	}
}

// RPC counts one handled RPC. code is "ok" or a Connect code name.
func (m *Metrics) RPC(procedure, code string) {
	if m == nil {
		return
	}
	m.RPCs.WithLabelValues(procedure, code).Inc()
}

// Request counts one request outcome.
func (m *Metrics) Request(op, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(op, outcome).Inc()
	if outcome == OutcomeStale {
		m.StaleResponses.Inc()
	}
}

// Observe records a collaborator call that started at start.
func (m *Metrics) Observe(collaborator string, start time.Time) {
	if m == nil {
		return
	}
	m.CollaboratorSeconds.WithLabelValues(collaborator).Observe(time.Since(start).Seconds())
}

// SetSessions records the number of live sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}

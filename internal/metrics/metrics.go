package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TriageRuns        *prometheus.CounterVec
	TriageFailures    prometheus.Counter
	TriageDuration    prometheus.Histogram
	DiagnosisScore    prometheus.Histogram
	HumanDecisions    *prometheus.CounterVec
	PendingApprovals  prometheus.Gauge
	QueuedTickets     prometheus.Gauge
	AuditWriteFailure prometheus.Counter
}

// NewMetrics registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TriageRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_runs_total",
			Help: "Total number of completed triage runs",
		}, []string{"risk_level", "outcome"}),
		TriageFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "triage_failures_total",
			Help: "Total number of triage runs that failed",
		}),
		TriageDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "triage_duration_seconds",
			Help:    "Time taken by a triage run, dominated by the text-generation call",
			Buckets: prometheus.DefBuckets,
		}),
		DiagnosisScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "diagnosis_confidence",
			Help:    "Confidence score reported by the diagnosis stage",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		HumanDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "human_decisions_total",
			Help: "Total number of human decisions on gated incidents",
		}, []string{"decision"}),
		PendingApprovals: f.NewGauge(prometheus.GaugeOpts{
			Name: "pending_approvals",
			Help: "Current number of incidents awaiting human approval",
		}),
		QueuedTickets: f.NewGauge(prometheus.GaugeOpts{
			Name: "queued_tickets",
			Help: "Current number of tickets waiting for triage",
		}),
		AuditWriteFailure: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Total number of audit entries that could not be written",
		}),
	}
}

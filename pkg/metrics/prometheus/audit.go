package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/krb5audit/pkg/metrics"
)

func init() {
	metrics.RegisterAuditMetricsConstructor(func() metrics.AuditMetrics {
		m := NewAuditMetrics(metrics.GetRegistry())
		if m == nil {
			return nil
		}
		return m
	})
}

// auditMetrics is the Prometheus implementation of metrics.AuditMetrics.
type auditMetrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	lastRun       *prometheus.GaugeVec
	findingsTotal *prometheus.CounterVec
}

// NewAuditMetrics creates audit metrics registered on reg.
//
// Returns nil if reg is nil.
func NewAuditMetrics(reg prometheus.Registerer) *auditMetrics {
	if reg == nil {
		return nil
	}

	return &auditMetrics{
		runsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "krb5audit_runs_total",
				Help: "Total number of audit runs by mode and status",
			},
			[]string{"mode", "status"}, // status: "ok", "fatal"
		),
		runDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "krb5audit_run_duration_milliseconds",
				Help: "Duration of audit runs in milliseconds",
				Buckets: []float64{
					10,    // 10ms - configuration only
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms - small realms
					1000,  // 1s
					5000,  // 5s
					30000, // 30s - large principal databases
				},
			},
			[]string{"mode"},
		),
		lastRun: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "krb5audit_last_run_timestamp_seconds",
				Help: "Unix time of the last completed audit run by mode",
			},
			[]string{"mode"},
		),
		findingsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "krb5audit_findings_total",
				Help: "Total number of findings by check and severity",
			},
			[]string{"check", "severity"},
		),
	}
}

// RecordRun implements metrics.AuditMetrics.
func (m *auditMetrics) RecordRun(mode string, duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "fatal"
	}
	m.runsTotal.WithLabelValues(mode, status).Inc()
	m.runDuration.WithLabelValues(mode).Observe(float64(duration.Milliseconds()))
	m.lastRun.WithLabelValues(mode).SetToCurrentTime()
}

// RecordFinding implements metrics.AuditMetrics.
func (m *auditMetrics) RecordFinding(check, severity string) {
	if m == nil {
		return
	}
	m.findingsTotal.WithLabelValues(check, severity).Inc()
}

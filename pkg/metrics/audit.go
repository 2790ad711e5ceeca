package metrics

import "time"

// AuditMetrics records the outcome of audit runs.
//
// Implementations must accept calls on a nil receiver so that callers can
// record unconditionally.
type AuditMetrics interface {
	// RecordRun records a finished run of one mode. failed is true when the
	// run stopped on a fatal condition.
	RecordRun(mode string, duration time.Duration, failed bool)

	// RecordFinding counts one finding of the given check and severity.
	RecordFinding(check, severity string)
}

// NewAuditMetrics creates a new Prometheus-backed AuditMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or if no
// implementation has been linked in.
func NewAuditMetrics() AuditMetrics {
	if !IsEnabled() || newPrometheusAuditMetrics == nil {
		return nil
	}
	return newPrometheusAuditMetrics()
}

// newPrometheusAuditMetrics is implemented in pkg/metrics/prometheus/audit.go
// This indirection avoids import cycles while keeping the API clean
var newPrometheusAuditMetrics func() AuditMetrics

// RegisterAuditMetricsConstructor registers the Prometheus audit metrics constructor.
// Called by pkg/metrics/prometheus/audit.go during package initialization.
func RegisterAuditMetricsConstructor(constructor func() AuditMetrics) {
	newPrometheusAuditMetrics = constructor
}

// RecordRun records a run on m when m is non-nil.
func RecordRun(m AuditMetrics, mode string, duration time.Duration, failed bool) {
	if m != nil {
		m.RecordRun(mode, duration, failed)
	}
}

// RecordFinding records a finding on m when m is non-nil.
func RecordFinding(m AuditMetrics, check, severity string) {
	if m != nil {
		m.RecordFinding(check, severity)
	}
}

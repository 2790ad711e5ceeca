// Package metrics exposes audit results as Prometheus metrics.
//
// Metrics are optional. Until InitRegistry is called, constructors return nil
// and callers pass nil metrics through, which costs nothing.
//
// A one-shot audit cannot be scraped, so the registry is written to a file in
// the Prometheus text format for node_exporter's textfile collector:
//
//	metrics.InitRegistry()
//	m := metrics.NewAuditMetrics()
//	... run audits, recording into m ...
//	err := metrics.WriteTextfile("/var/lib/node_exporter/krb5audit.prom")
package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// ErrNotEnabled is returned by WriteTextfile before InitRegistry.
var ErrNotEnabled = errors.New("metrics registry not initialized")

// InitRegistry creates the process registry, replacing any previous one.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	return registry
}

// ResetRegistry disables metrics again.
func ResetRegistry() {
	mu.Lock()
	registry = nil
	mu.Unlock()
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the process registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format. The file is replaced atomically.
func WriteTextfile(path string) error {
	reg := GetRegistry()
	if reg == nil {
		return ErrNotEnabled
	}
	return prometheus.WriteToTextfile(path, reg)
}

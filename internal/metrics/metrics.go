// Package metrics exposes Prometheus instrumentation for the object table
// and the dispatch harness built on top of it. Metrics collection is
// opt-in: callers that never call InitRegistry get a nil Recorder back from
// NewRecorder, and every Recorder method is a nil-receiver no-op, so the
// table and dispatch packages pay zero overhead when metrics are disabled.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates and installs the process-wide Prometheus registry.
// Safe to call more than once; later calls replace the registry, which is
// mainly useful for tests that want isolated metric state.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	return registry
}

// GetRegistry returns the active registry, or nil if InitRegistry has not
// been called.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// IsEnabled reports whether a registry has been installed.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

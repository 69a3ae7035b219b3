// Package metrics exposes Prometheus collectors for the analysis worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithStageBuckets sets histogram buckets for per-stage durations, in seconds.
func WithStageBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.stageBuckets = buckets
		}
	}
}

// WithJobBuckets sets histogram buckets for whole-job durations, in seconds.
func WithJobBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.jobBuckets = buckets
		}
	}
}

// WithRegistry sets the registry collectors register on and the handler
// gathers from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Package metrics exposes the service's prometheus collectors. Domain
// components keep their own process-lifetime counters where the API
// surface needs a snapshot; everything observable from the outside is
// mirrored here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors for the balance and provisioning core.
type Metrics struct {
	registry *prometheus.Registry

	ProvisioningAttempts  prometheus.Counter
	ProvisioningSuccesses prometheus.Counter
	ProvisioningFailures  prometheus.Counter
	ProvisioningRetries   prometheus.Counter
	ProvisioningLatency   prometheus.Histogram

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	ChainErrors     *prometheus.CounterVec
	StaleReads      prometheus.Counter
	SweepDuration   *prometheus.HistogramVec
	SweepWalletErrs *prometheus.CounterVec
}

// New creates the metric set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ProvisioningAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_provisioning_attempts_total",
			Help: "Total wallet provisioning attempts, including retries",
		}),
		ProvisioningSuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_provisioning_successes_total",
			Help: "Total successful wallet provisionings",
		}),
		ProvisioningFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_provisioning_failures_total",
			Help: "Total wallet provisionings that exhausted all retries",
		}),
		ProvisioningRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_provisioning_retries_total",
			Help: "Total wallet provisioning retry attempts",
		}),
		ProvisioningLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_provisioning_duration_seconds",
			Help:    "Latency of successful wallet provisionings",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "balance_cache_hits_total",
			Help: "Balance cache reads served from an unexpired entry",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "balance_cache_misses_total",
			Help: "Balance cache reads that fell through to reconciliation",
		}),
		ChainErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_source_errors_total",
			Help: "Chain source call failures by operation",
		}, []string{"operation"}),
		StaleReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "balance_stale_reads_total",
			Help: "Balance reads served from the stored fallback",
		}),
		SweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "refresh_sweep_duration_seconds",
			Help:    "Duration of refresh scheduler sweeps by cadence",
			Buckets: prometheus.DefBuckets,
		}, []string{"cadence"}),
		SweepWalletErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refresh_sweep_wallet_errors_total",
			Help: "Wallets skipped during a sweep due to errors, by cadence",
		}, []string{"cadence"}),
	}

	registry.MustRegister(
		m.ProvisioningAttempts,
		m.ProvisioningSuccesses,
		m.ProvisioningFailures,
		m.ProvisioningRetries,
		m.ProvisioningLatency,
		m.CacheHits,
		m.CacheMisses,
		m.ChainErrors,
		m.StaleReads,
		m.SweepDuration,
		m.SweepWalletErrs,
	)

	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

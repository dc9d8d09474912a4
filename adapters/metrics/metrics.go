// Package metrics provides Prometheus metrics collection for the dispatch
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the engine.
type Collector struct {
	// Dispatch metrics
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	DispatchInFlight prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Offline queue metrics
	QueueDepth    prometheus.Gauge
	QueuedTotal   *prometheus.CounterVec
	ReplayedTotal *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered on the default Prometheus registry.
func New() *Collector {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a collector registered on the given registerer. Tests
// pass a fresh registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "relay",
				Name:      "dispatch_total",
				Help:      "Total dispatches by contract and outcome",
			},
			[]string{"contract", "outcome"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "relay",
				Name:      "dispatch_duration_seconds",
				Help:      "Dispatch duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"contract"},
		),
		DispatchInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "relay",
				Name:      "dispatch_in_flight",
				Help:      "Dispatches currently in the pipeline",
			},
		),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "relay",
				Name:      "cache_hits_total",
				Help:      "Dispatches served from cache",
			},
			[]string{"contract"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "relay",
				Name:      "cache_misses_total",
				Help:      "Dispatches that bypassed or missed the cache",
			},
			[]string{"contract"},
		),

		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "relay",
				Name:      "queue_depth",
				Help:      "Offline queue entries awaiting replay",
			},
		),
		QueuedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "relay",
				Name:      "queued_total",
				Help:      "Requests queued while disconnected",
			},
			[]string{"contract"},
		),
		ReplayedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "relay",
				Name:      "replayed_total",
				Help:      "Queued requests replayed after reconnect",
			},
			[]string{"contract"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "relay",
				Name:      "config_reloads_total",
				Help:      "Successful configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "relay",
				Name:      "config_reload_errors_total",
				Help:      "Failed configuration reloads",
			},
		),
	}
}

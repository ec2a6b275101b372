// Package metrics exposes Prometheus instrumentation for syncstore: cache
// effectiveness, operation latency, queue depth, and memory pressure.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config represents metrics configuration.
type Config struct {
	// Enabled toggles collection; a disabled collector is a no-op
	Enabled bool `yaml:"enabled"`

	// ListenAddress for the scrape endpoint, e.g. ":9090"
	ListenAddress string `yaml:"listen_address"`

	// Namespace prefixes every metric name
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		ListenAddress: ":9090",
		Namespace:     "syncstore",
	}
}

// Collector holds all syncstore metrics on a private registry, so embedding
// applications never collide with it. All record methods are safe on a nil
// receiver, which is what a disabled configuration produces.
type Collector struct {
	config   Config
	registry *prometheus.Registry
	server   *http.Server

	cacheRequests     *prometheus.CounterVec
	cacheEvictions    *prometheus.CounterVec
	cacheEntries      *prometheus.GaugeVec
	pendingOperations *prometheus.GaugeVec
	replayOutcomes    *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	pressureLevel     prometheus.Gauge
}

// NewCollector creates a collector with a fresh registry, or nil when
// metrics are disabled.
func NewCollector(config Config) *Collector {
	if !config.Enabled {
		return nil
	}
	if config.Namespace == "" {
		config.Namespace = "syncstore"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		config:   config,
		registry: registry,

		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "cache_requests_total",
			Help:      "Cache read requests by entity and outcome (hit or miss)",
		}, []string{"entity", "outcome"}),

		cacheEvictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "cache_evictions_total",
			Help:      "Cache entries evicted by TTL sweep, capacity, or pressure cleanup",
		}, []string{"entity", "reason"}),

		cacheEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "cache_entries",
			Help:      "Current cache entry count per entity",
		}, []string{"entity"}),

		pendingOperations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "pending_operations",
			Help:      "Mutations waiting in the offline queue per entity",
		}, []string{"entity"}),

		replayOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "replay_operations_total",
			Help:      "Replayed offline operations by entity and outcome",
		}, []string{"entity", "outcome"}),

		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Coordinator operation latency by entity and operation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"entity", "operation"}),

		pressureLevel: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "memory_pressure_level",
			Help:      "Current memory pressure level (0=normal 1=elevated 2=high 3=critical)",
		}),
	}
}

// RecordCacheHit counts one cache hit.
func (c *Collector) RecordCacheHit(entity string) {
	if c == nil {
		return
	}
	c.cacheRequests.WithLabelValues(entity, "hit").Inc()
}

// RecordCacheMiss counts one cache miss.
func (c *Collector) RecordCacheMiss(entity string) {
	if c == nil {
		return
	}
	c.cacheRequests.WithLabelValues(entity, "miss").Inc()
}

// RecordEvictions counts evicted entries with the reason they were evicted.
func (c *Collector) RecordEvictions(entity, reason string, count int) {
	if c == nil || count <= 0 {
		return
	}
	c.cacheEvictions.WithLabelValues(entity, reason).Add(float64(count))
}

// SetCacheEntries reports the current entry count for an entity cache.
func (c *Collector) SetCacheEntries(entity string, count int) {
	if c == nil {
		return
	}
	c.cacheEntries.WithLabelValues(entity).Set(float64(count))
}

// SetPendingOperations reports the offline queue depth for an entity.
func (c *Collector) SetPendingOperations(entity string, count int) {
	if c == nil {
		return
	}
	c.pendingOperations.WithLabelValues(entity).Set(float64(count))
}

// RecordReplay counts the outcomes of one replay pass.
func (c *Collector) RecordReplay(entity string, succeeded, failed int) {
	if c == nil {
		return
	}
	if succeeded > 0 {
		c.replayOutcomes.WithLabelValues(entity, "success").Add(float64(succeeded))
	}
	if failed > 0 {
		c.replayOutcomes.WithLabelValues(entity, "failure").Add(float64(failed))
	}
}

// ObserveOperation records one coordinator operation's latency.
func (c *Collector) ObserveOperation(entity, operation string, duration time.Duration) {
	if c == nil {
		return
	}
	c.operationDuration.WithLabelValues(entity, operation).Observe(duration.Seconds())
}

// SetPressureLevel reports the current memory pressure level ordinal.
func (c *Collector) SetPressureLevel(level int) {
	if c == nil {
		return
	}
	c.pressureLevel.Set(float64(level))
}

// Handler returns the scrape handler for embedding into an existing mux.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves the /metrics endpoint on the configured address.
func (c *Collector) StartServer() error {
	if c == nil || c.config.ListenAddress == "" {
		return nil
	}
	if c.server != nil {
		return fmt.Errorf("metrics server already started")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	c.server = &http.Server{
		Addr:              c.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = c.server.ListenAndServe()
	}()
	return nil
}

// StopServer shuts the scrape endpoint down.
func (c *Collector) StopServer(ctx context.Context) error {
	if c == nil || c.server == nil {
		return nil
	}
	err := c.server.Shutdown(ctx)
	c.server = nil
	return err
}

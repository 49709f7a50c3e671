// Package metrics exposes Prometheus counters and gauges for the Flow
// Engine: Job outcomes, snapshot cache hit rate, and sandbox lifecycle,
// in the RED/USE style the rest of the corpus instruments its own
// job queues with.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine's Prometheus instruments.
type Collector struct {
	jobsTotal      *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	sandboxActive  prometheus.Gauge
	jobDuration    prometheus.Histogram
}

// NewCollector builds and registers a Collector against reg. Pass
// prometheus.DefaultRegisterer to use the global registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowrun_jobs_total",
			Help: "Total number of Jobs that reached a terminal status, labeled by status.",
		}, []string{"status"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowrun_cache_hits_total",
			Help: "Total number of Jobs whose result was recovered from the snapshot cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowrun_cache_misses_total",
			Help: "Total number of Jobs that found no snapshot cache entry and executed.",
		}),
		sandboxActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowrun_sandbox_active",
			Help: "Current number of sandboxes that have been created but not yet destroyed.",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowrun_job_duration_seconds",
			Help:    "Job execution duration in seconds, from Running to a terminal status.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.jobsTotal, c.cacheHits, c.cacheMisses, c.sandboxActive, c.jobDuration)
	return c
}

// RecordJob records a Job reaching a terminal status.
func (c *Collector) RecordJob(status string, durationSeconds float64) {
	c.jobsTotal.WithLabelValues(status).Inc()
	c.jobDuration.Observe(durationSeconds)
}

// RecordCacheHit records a Job whose result came from the snapshot cache.
func (c *Collector) RecordCacheHit() { c.cacheHits.Inc() }

// RecordCacheMiss records a Job that had to execute.
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Inc() }

// SandboxCreated increments the active sandbox gauge.
func (c *Collector) SandboxCreated() { c.sandboxActive.Inc() }

// SandboxDestroyed decrements the active sandbox gauge.
func (c *Collector) SandboxDestroyed() { c.sandboxActive.Dec() }

// Handler returns the HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

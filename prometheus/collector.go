// Package prometheus exports gramsearch metrics through client_golang.
package prometheus

import (
	"time"

	"github.com/hupe1980/gramsearch"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements gramsearch.MetricsCollector.
type Collector struct {
	searchLatency *prometheus.HistogramVec
	searchResults prometheus.Histogram
	queryChunks   prometheus.Histogram
	fetchLatency  *prometheus.HistogramVec
	fetchBytes    prometheus.Counter
	cacheLookups  *prometheus.CounterVec
}

var _ gramsearch.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gramsearch_search_duration_seconds",
			Help:    "Latency of searches, including shard fetches",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gramsearch_search_results",
			Help:    "Number of documents matched per successful search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		queryChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gramsearch_query_chunks",
			Help:    "Number of grams per query",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gramsearch_shard_fetch_duration_seconds",
			Help:    "Latency of shard fetches",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gramsearch_shard_fetch_bytes_total",
			Help: "Bytes read from shard files",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gramsearch_shard_cache_lookups_total",
			Help: "Shard cache lookups by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.searchLatency,
		c.searchResults,
		c.queryChunks,
		c.fetchLatency,
		c.fetchBytes,
		c.cacheLookups,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSearch implements gramsearch.MetricsCollector.
func (c *Collector) RecordSearch(chunks, results int, duration time.Duration, err error) {
	c.searchLatency.WithLabelValues(status(err)).Observe(duration.Seconds())
	if err != nil {
		return
	}
	c.searchResults.Observe(float64(results))
	c.queryChunks.Observe(float64(chunks))
}

// RecordShardFetch implements gramsearch.MetricsCollector.
func (c *Collector) RecordShardFetch(_ string, size int, duration time.Duration, err error) {
	c.fetchLatency.WithLabelValues(status(err)).Observe(duration.Seconds())
	c.fetchBytes.Add(float64(size))
}

// RecordCacheLookup implements gramsearch.MetricsCollector.
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		c.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		c.cacheLookups.WithLabelValues("miss").Inc()
	}
}

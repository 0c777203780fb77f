// Package prometheus exports search metrics to Prometheus.
package prometheus

import (
	"strconv"
	"time"

	"github.com/chozen2see/catalogsearch"
	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements catalogsearch.MetricsCollector.
type Collector struct {
	searchLatency  *prometheus.HistogramVec
	searchResults  prometheus.Histogram
	resolveLatency *prometheus.HistogramVec
	levels         *prometheus.CounterVec
	evaluated      prometheus.Counter
	expanding      prometheus.Gauge
}

// Ensure Collector implements catalogsearch.MetricsCollector
var _ catalogsearch.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers it with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalogsearch_search_duration_seconds",
			Help:    "Latency of completed searches",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode", "status"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalogsearch_search_results",
			Help:    "Number of results per completed search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		}),
		resolveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalogsearch_resolve_duration_seconds",
			Help:    "Latency of reference resolutions and group loads",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "status"}),
		levels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsearch_traversal_levels_total",
			Help: "Traversal passes run, by depth",
		}, []string{"depth"}),
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalogsearch_nodes_evaluated_total",
			Help: "Nodes matched against a query",
		}),
		expanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalogsearch_expanding_nodes",
			Help: "Nodes selected for resolution by the latest traversal pass",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.searchLatency,
		c.searchResults,
		c.resolveLatency,
		c.levels,
		c.evaluated,
		c.expanding,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSearch implements catalogsearch.MetricsCollector.
func (c *Collector) RecordSearch(mode catalogsearch.Mode, results int, d time.Duration, err error) {
	c.searchLatency.WithLabelValues(mode.String(), status(err)).Observe(d.Seconds())
	if err == nil {
		c.searchResults.Observe(float64(results))
	}
}

// RecordResolve implements catalogsearch.MetricsCollector.
func (c *Collector) RecordResolve(kind catalog.Kind, d time.Duration, err error) {
	c.resolveLatency.WithLabelValues(kind.String(), status(err)).Observe(d.Seconds())
}

// RecordLevel implements catalogsearch.MetricsCollector.
func (c *Collector) RecordLevel(depth, evaluated, _, expanding int) {
	c.levels.WithLabelValues(strconv.Itoa(depth)).Inc()
	c.evaluated.Add(float64(evaluated))
	c.expanding.Set(float64(expanding))
}

// Package prometheus exports agriknn run metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c := agriprom.New(reg)
//	e, _ := agriknn.New(agriknn.WithMetricsCollector(c))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/agrirecsys/agriknn"
)

// Namespace prefixes every metric name.
const Namespace = "agriknn"

// Compile-time check to ensure Collector satisfies the metrics interface.
var _ agriknn.MetricsCollector = (*Collector)(nil)

// Collector implements agriknn.MetricsCollector with Prometheus instruments.
type Collector struct {
	opLatency     *prom.HistogramVec
	queries       *prom.CounterVec
	shortResults  *prom.CounterVec
	errors        *prom.CounterVec
	indexedTotal  prom.Counter
	largestBucket prom.Gauge
}

// New creates a Collector and registers its instruments with reg.
// A nil reg means prometheus.DefaultRegisterer.
func New(reg prom.Registerer) *Collector {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of index builds and neighbor searches.",
			Buckets:   prom.ExponentialBuckets(0.001, 4, 10),
		}, []string{"operation", "strategy"}),
		queries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "Records whose neighbors were computed.",
		}, []string{"strategy"}),
		shortResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "short_results_total",
			Help:      "Queries that received fewer than k neighbors.",
		}, []string{"strategy"}),
		errors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Failed builds and searches.",
		}, []string{"operation"}),
		indexedTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "indexed_records_total",
			Help:      "Records inserted into LSH indexes.",
		}),
		largestBucket: prom.NewGauge(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "largest_bucket_size",
			Help:      "Largest band bucket of the most recent index build.",
		}),
	}

	reg.MustRegister(
		c.opLatency,
		c.queries,
		c.shortResults,
		c.errors,
		c.indexedTotal,
		c.largestBucket,
	)

	return c
}

// RecordBuild implements agriknn.MetricsCollector.
func (c *Collector) RecordBuild(records, largestBucket int, duration time.Duration, err error) {
	c.opLatency.WithLabelValues("build", agriknn.StrategyApproximate.String()).Observe(duration.Seconds())
	if err != nil {
		c.errors.WithLabelValues("build").Inc()
		return
	}
	c.indexedTotal.Add(float64(records))
	c.largestBucket.Set(float64(largestBucket))
}

// RecordSearch implements agriknn.MetricsCollector.
func (c *Collector) RecordSearch(strategy agriknn.Strategy, queries, short int, duration time.Duration, err error) {
	c.opLatency.WithLabelValues("search", strategy.String()).Observe(duration.Seconds())
	if err != nil {
		c.errors.WithLabelValues("search").Inc()
		return
	}
	c.queries.WithLabelValues(strategy.String()).Add(float64(queries))
	c.shortResults.WithLabelValues(strategy.String()).Add(float64(short))
}

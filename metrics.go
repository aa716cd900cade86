package agriknn

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see the metrics/prometheus package.
type MetricsCollector interface {
	// RecordBuild is called after an LSH index has been filled.
	// records is the number inserted, largestBucket the biggest band bucket.
	RecordBuild(records, largestBucket int, duration time.Duration, err error)

	// RecordSearch is called after each neighbor computation over a collection.
	// short is the number of queries that received fewer than k neighbors.
	RecordSearch(strategy Strategy, queries, short int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordSearch(Strategy, int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	BuildCount        atomic.Int64
	BuildErrors       atomic.Int64
	BuildRecords      atomic.Int64
	BuildTotalNanos   atomic.Int64
	ExactSearches     atomic.Int64
	ApproxSearches    atomic.Int64
	SearchErrors      atomic.Int64
	SearchQueries     atomic.Int64
	SearchShort       atomic.Int64
	SearchTotalNanos  atomic.Int64
	LargestBucketSeen atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(records, largestBucket int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildRecords.Add(int64(records))
	for {
		cur := b.LargestBucketSeen.Load()
		if int64(largestBucket) <= cur || b.LargestBucketSeen.CompareAndSwap(cur, int64(largestBucket)) {
			break
		}
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(strategy Strategy, queries, short int, duration time.Duration, err error) {
	if strategy == StrategyExact {
		b.ExactSearches.Add(1)
	} else {
		b.ApproxSearches.Add(1)
	}
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchQueries.Add(int64(queries))
	b.SearchShort.Add(int64(short))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	searches := b.ExactSearches.Load() + b.ApproxSearches.Load()
	return BasicMetricsStats{
		BuildCount:        b.BuildCount.Load(),
		BuildErrors:       b.BuildErrors.Load(),
		BuildRecords:      b.BuildRecords.Load(),
		BuildAvgNanos:     avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		ExactSearches:     b.ExactSearches.Load(),
		ApproxSearches:    b.ApproxSearches.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchQueries:     b.SearchQueries.Load(),
		SearchShort:       b.SearchShort.Load(),
		SearchAvgNanos:    avg(b.SearchTotalNanos.Load(), searches),
		LargestBucketSeen: b.LargestBucketSeen.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount        int64
	BuildErrors       int64
	BuildRecords      int64
	BuildAvgNanos     int64
	ExactSearches     int64
	ApproxSearches    int64
	SearchErrors      int64
	SearchQueries     int64
	SearchShort       int64
	SearchAvgNanos    int64
	LargestBucketSeen int64
}

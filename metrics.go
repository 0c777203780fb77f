package catalogsearch

import (
	"sync/atomic"
	"time"

	"github.com/chozen2see/catalogsearch/catalog"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; see the metrics/prometheus package.
type MetricsCollector interface {
	// RecordSearch is called after each search that ran (blank queries are
	// not recorded). results is the number of matches, err is nil if
	// successful.
	RecordSearch(mode Mode, results int, duration time.Duration, err error)

	// RecordResolve is called after each reference resolution or group load.
	RecordResolve(kind catalog.Kind, duration time.Duration, err error)

	// RecordLevel is called after the evaluation phase of each traversal pass.
	RecordLevel(depth, evaluated, matched, expanding int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(Mode, int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordResolve(catalog.Kind, time.Duration, error) {}
func (NoopMetricsCollector) RecordLevel(int, int, int, int)                   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchTotalNanos  atomic.Int64
	SearchResults     atomic.Int64
	ResolveCount      atomic.Int64
	ResolveErrors     atomic.Int64
	ResolveTotalNanos atomic.Int64
	LevelCount        atomic.Int64
	NodesEvaluated    atomic.Int64
	MaxDepth          atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ Mode, results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchResults.Add(int64(results))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordResolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordResolve(_ catalog.Kind, duration time.Duration, err error) {
	b.ResolveCount.Add(1)
	b.ResolveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ResolveErrors.Add(1)
	}
}

// RecordLevel implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLevel(depth, evaluated, _, _ int) {
	b.LevelCount.Add(1)
	b.NodesEvaluated.Add(int64(evaluated))
	for {
		cur := b.MaxDepth.Load()
		if int64(depth) <= cur || b.MaxDepth.CompareAndSwap(cur, int64(depth)) {
			return
		}
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:     b.SearchCount.Load(),
		SearchErrors:    b.SearchErrors.Load(),
		SearchAvgNanos:  avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SearchResults:   b.SearchResults.Load(),
		ResolveCount:    b.ResolveCount.Load(),
		ResolveErrors:   b.ResolveErrors.Load(),
		ResolveAvgNanos: avg(b.ResolveTotalNanos.Load(), b.ResolveCount.Load()),
		LevelCount:      b.LevelCount.Load(),
		NodesEvaluated:  b.NodesEvaluated.Load(),
		MaxDepth:        b.MaxDepth.Load(),
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
	SearchCount     int64
	SearchErrors    int64
	SearchAvgNanos  int64
	SearchResults   int64
	ResolveCount    int64
	ResolveErrors   int64
	ResolveAvgNanos int64
	LevelCount      int64
	NodesEvaluated  int64
	MaxDepth        int64
}

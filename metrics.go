package bsi

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems, or use
// PrometheusCollector.
type MetricsCollector interface {
	// RecordSetValues is called after each SetValues batch.
	// count is the number of pairs applied.
	RecordSetValues(count int, duration time.Duration, err error)

	// RecordAdd is called after each accumulate operation.
	RecordAdd(duration time.Duration)

	// RecordMerge is called after each merge, err is non-nil on rejection.
	RecordMerge(duration time.Duration, err error)

	// RecordCompare is called after each comparison query.
	RecordCompare(op Operation, duration time.Duration, err error)

	// RecordAggregate is called after Sum, TopK and the transpose queries.
	// kind names the aggregate ("sum", "topk", "transpose", "transpose_count").
	RecordAggregate(kind string, duration time.Duration, err error)

	// RecordParallel is called after each fanned-out query.
	RecordParallel(name string, batches int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSetValues(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordAdd(time.Duration)                          {}
func (NoopMetricsCollector) RecordMerge(time.Duration, error)                 {}
func (NoopMetricsCollector) RecordCompare(Operation, time.Duration, error)    {}
func (NoopMetricsCollector) RecordAggregate(string, time.Duration, error)     {}
func (NoopMetricsCollector) RecordParallel(string, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SetValuesCount    atomic.Int64
	SetValuesItems    atomic.Int64
	SetValuesErrors   atomic.Int64
	AddCount          atomic.Int64
	MergeCount        atomic.Int64
	MergeErrors       atomic.Int64
	CompareCount      atomic.Int64
	CompareErrors     atomic.Int64
	CompareTotalNanos atomic.Int64
	AggregateCount    atomic.Int64
	AggregateErrors   atomic.Int64
	ParallelCount     atomic.Int64
	ParallelBatches   atomic.Int64
	ParallelErrors    atomic.Int64
}

// RecordSetValues implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSetValues(count int, _ time.Duration, err error) {
	b.SetValuesCount.Add(1)
	b.SetValuesItems.Add(int64(count))
	if err != nil {
		b.SetValuesErrors.Add(1)
	}
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(time.Duration) {
	b.AddCount.Add(1)
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(_ time.Duration, err error) {
	b.MergeCount.Add(1)
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// RecordCompare implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompare(_ Operation, duration time.Duration, err error) {
	b.CompareCount.Add(1)
	b.CompareTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CompareErrors.Add(1)
	}
}

// RecordAggregate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAggregate(_ string, _ time.Duration, err error) {
	b.AggregateCount.Add(1)
	if err != nil {
		b.AggregateErrors.Add(1)
	}
}

// RecordParallel implements MetricsCollector.
func (b *BasicMetricsCollector) RecordParallel(_ string, batches int, _ time.Duration, err error) {
	b.ParallelCount.Add(1)
	b.ParallelBatches.Add(int64(batches))
	if err != nil {
		b.ParallelErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SetValuesCount:  b.SetValuesCount.Load(),
		SetValuesItems:  b.SetValuesItems.Load(),
		SetValuesErrors: b.SetValuesErrors.Load(),
		AddCount:        b.AddCount.Load(),
		MergeCount:      b.MergeCount.Load(),
		MergeErrors:     b.MergeErrors.Load(),
		CompareCount:    b.CompareCount.Load(),
		CompareErrors:   b.CompareErrors.Load(),
		CompareAvgNanos: b.getAvgCompareNanos(),
		AggregateCount:  b.AggregateCount.Load(),
		AggregateErrors: b.AggregateErrors.Load(),
		ParallelCount:   b.ParallelCount.Load(),
		ParallelBatches: b.ParallelBatches.Load(),
		ParallelErrors:  b.ParallelErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgCompareNanos() int64 {
	count := b.CompareCount.Load()
	if count == 0 {
		return 0
	}
	return b.CompareTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SetValuesCount  int64
	SetValuesItems  int64
	SetValuesErrors int64
	AddCount        int64
	MergeCount      int64
	MergeErrors     int64
	CompareCount    int64
	CompareErrors   int64
	CompareAvgNanos int64
	AggregateCount  int64
	AggregateErrors int64
	ParallelCount   int64
	ParallelBatches int64
	ParallelErrors  int64
}

package bsi

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/bsi/resource"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	runOptimize      bool
}

// Option configures index construction and decoding.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &bsi.BasicMetricsCollector{}
//	idx := bsi.New[uint32](bsi.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Compares: %d, Avg latency: %dns\n", stats.CompareCount, stats.CompareAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := bsi.NewJSONLogger(slog.LevelDebug)
//	idx := bsi.New[uint64](bsi.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithRunOptimize sets the run-compression hint. Slices allocated by growth
// are run-optimized when the hint is set.
func WithRunOptimize(enabled bool) Option {
	return func(o *options) {
		o.runOptimize = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// MaxBatchSize bounds the number of keys a parallel worker decodes per batch.
const MaxBatchSize = 65536

type parallelOptions struct {
	parallelism int
	batchSize   int
	controller  *resource.Controller
}

// ParallelOption configures the parallel query adapter.
type ParallelOption func(*parallelOptions)

// WithParallelism sets the number of concurrently running batches.
// Values below 1 fall back to runtime.NumCPU().
func WithParallelism(n int) ParallelOption {
	return func(o *parallelOptions) {
		o.parallelism = n
	}
}

// WithBatchSize fixes the batch size instead of deriving it from the set
// cardinality. It is capped at MaxBatchSize.
func WithBatchSize(n int) ParallelOption {
	return func(o *parallelOptions) {
		o.batchSize = n
	}
}

// WithController shares a resource controller between parallel queries so
// the total number of running batches stays bounded across callers.
func WithController(c *resource.Controller) ParallelOption {
	return func(o *parallelOptions) {
		o.controller = c
	}
}

func applyParallelOptions(optFns []ParallelOption) parallelOptions {
	o := parallelOptions{}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.parallelism < 1 {
		o.parallelism = runtime.NumCPU()
	}
	if o.batchSize > MaxBatchSize {
		o.batchSize = MaxBatchSize
	}
	return o
}

// batchSize follows max(card/parallelism, parallelism) capped at MaxBatchSize.
func (o parallelOptions) batchSizeFor(card uint64) int {
	if o.batchSize > 0 {
		return o.batchSize
	}
	size := card / uint64(o.parallelism)
	if size < uint64(o.parallelism) {
		size = uint64(o.parallelism)
	}
	if size > MaxBatchSize {
		size = MaxBatchSize
	}
	return int(size)
}

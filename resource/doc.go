// Package resource implements the Controller for shared limits.
//
// The Controller governs three resource types:
//
//   - Memory: batch buffers held by parallel queries (non-blocking, fail-fast)
//   - Concurrency: batches running at once across queries
//   - IO: snapshot upload and download throughput
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Workers (sem)  │  IO Rate Limiter        │
//	│  (fail-fast)    │                 │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireWorker  │  AcquireIO              │
//	│  ReleaseMemory  │  TryAcquire     │  RateLimitedWriter      │
//	│  MemoryUsage    │  ReleaseWorker  │  RateLimitedReader      │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Worker Limits
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers: 4,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	writer := resource.NewRateLimitedWriter(ctx, file, rc)
//	reader := resource.NewRateLimitedReader(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource

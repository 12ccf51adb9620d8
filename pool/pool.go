// Package pool distributes large batches of Keccak-p[1600] permutations
// across worker threads.
//
// A batch job partitions its input with a lock-free atomic cursor: each
// worker claims the next chunk of indices with a fetch-add, processes it
// through the optimization dispatch (grouped through the keccakx batch
// kernel when a full group is available), and writes results into its
// claimed range of a pre-sized output slice. Claimed ranges are disjoint, so
// no two workers ever write the same index and no lock guards the output.
// Output index i always corresponds to input index i regardless of
// scheduling.
package pool

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/codahale/p1600/hazmat/keccak"
	"github.com/codahale/p1600/hazmat/keccakx"
	"github.com/codahale/p1600/logger"
)

var (
	// ErrShutdown is returned for batches submitted after Shutdown, and by
	// in-flight workers that observe the shutdown flag at a chunk boundary.
	ErrShutdown = errors.New("pool: shut down")
	// ErrTimeout is returned when workers do not finish within the
	// configured timeout.
	ErrTimeout = errors.New("pool: timed out waiting for workers")
	// ErrIncomplete is returned when the completion count does not cover the
	// batch after all workers have joined.
	ErrIncomplete = errors.New("pool: not all states were processed")
)

// PoolError wraps a worker-level failure, including recovered panics. It is
// returned to the caller of ProcessKeccakStates, never retried or swallowed.
type PoolError struct {
	Worker int
	Cause  error
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("pool: worker %d: %v", e.Worker, e.Cause)
}

func (e *PoolError) Unwrap() error { return e.Cause }

// ThreadingConfig tunes a CryptoThreadPool. Construct via a preset or
// DefaultConfig.
type ThreadingConfig struct {
	// NumThreads is the number of worker goroutines per batch job.
	NumThreads int
	// MinWorkSize is the smallest batch processed in parallel; smaller
	// batches run sequentially on the calling goroutine.
	MinWorkSize int
	// MaxWorkPerThread caps the chunk size a worker claims at a time.
	MaxWorkPerThread int
	// Timeout bounds the wait for workers to finish a batch. Zero waits
	// forever.
	Timeout time.Duration
	// PinWorkers locks each worker to an OS thread for the duration of the
	// job.
	PinWorkers bool
	// ShutdownCheckInterval is the number of chunk claims between polls of
	// the shutdown flag inside a worker. Zero disables in-flight polling;
	// shutdown is then only observed between batches.
	ShutdownCheckInterval int
}

// DefaultConfig returns a general-purpose configuration sized to the
// machine.
func DefaultConfig() ThreadingConfig {
	return ThreadingConfig{
		NumThreads:       runtime.NumCPU(),
		MinWorkSize:      1024,
		MaxWorkPerThread: 64 * 1024,
		Timeout:          30 * time.Second,
		PinWorkers:       true,
	}
}

// SecurityOptimized returns a single-threaded configuration; every batch
// takes the sequential path.
func SecurityOptimized() ThreadingConfig {
	return ThreadingConfig{
		NumThreads:            1,
		MinWorkSize:           math.MaxInt,
		MaxWorkPerThread:      math.MaxInt,
		Timeout:               5 * time.Second,
		ShutdownCheckInterval: 1,
	}
}

// PerformanceOptimized returns a configuration with a low parallelism
// threshold and small chunks for load balancing.
func PerformanceOptimized() ThreadingConfig {
	return ThreadingConfig{
		NumThreads:       runtime.NumCPU(),
		MinWorkSize:      512,
		MaxWorkPerThread: 32 * 1024,
		Timeout:          60 * time.Second,
		PinWorkers:       true,
	}
}

// Balanced returns a configuration using half the cores with larger chunks.
func Balanced() ThreadingConfig {
	return ThreadingConfig{
		NumThreads:       (runtime.NumCPU() + 1) / 2,
		MinWorkSize:      2048,
		MaxWorkPerThread: 128 * 1024,
		Timeout:          30 * time.Second,
		PinWorkers:       true,
	}
}

// workDistribution is the shared cursor over a batch's index range. Workers
// claim disjoint chunks with a single fetch-add; no other coordination
// exists.
type workDistribution struct {
	total     int
	next      atomic.Int64
	completed atomic.Int64
	done      atomic.Bool
}

// nextChunk claims the next chunk of up to size items. ok is false once the
// range is exhausted.
func (w *workDistribution) nextChunk(size int) (start, end int, ok bool) {
	start = int(w.next.Add(int64(size))) - size
	if start >= w.total {
		return 0, 0, false
	}
	return start, min(start+size, w.total), true
}

// CryptoThreadPool processes batches of permutation states according to a
// ThreadingConfig. The zero value is not usable; construct with New.
type CryptoThreadPool struct {
	cfg      ThreadingConfig
	shutdown atomic.Bool
	log      zerolog.Logger
}

// New returns a thread pool with the given configuration. Non-positive
// thread and chunk settings are raised to 1.
func New(cfg ThreadingConfig) *CryptoThreadPool {
	cfg.NumThreads = max(cfg.NumThreads, 1)
	cfg.MaxWorkPerThread = max(cfg.MaxWorkPerThread, 1)
	return &CryptoThreadPool{
		cfg: cfg,
		log: logger.Logger().With().Str("component", "pool").Logger(),
	}
}

// Config returns the pool's configuration.
func (p *CryptoThreadPool) Config() ThreadingConfig {
	return p.cfg
}

// Shutdown marks the pool as shut down. Subsequent batches are rejected
// with ErrShutdown; in-flight workers observe the flag only at chunk
// boundaries, and only when ShutdownCheckInterval is non-zero.
func (p *CryptoThreadPool) Shutdown() {
	p.shutdown.Store(true)
}

// ProcessKeccakStates applies the full 24-round permutation to every state
// and returns the results in input order: result i is states[i] permuted.
// Batches below MinWorkSize, or on a single-threaded pool, run sequentially
// on the calling goroutine with no worker spawned.
func (p *CryptoThreadPool) ProcessKeccakStates(states [][25]uint64, level keccak.OptimizationLevel) ([][25]uint64, error) {
	if p.shutdown.Load() {
		return nil, ErrShutdown
	}
	if len(states) < p.cfg.MinWorkSize || p.cfg.NumThreads <= 1 {
		return p.processSequential(states, level), nil
	}

	results := make([][25]uint64, len(states))
	dist := &workDistribution{total: len(states)}
	chunk := max(min(p.cfg.MaxWorkPerThread, len(states)/p.cfg.NumThreads), 1)

	width := keccak.GroupWidth(level)
	batchCfg := keccakx.SimdConfig{
		MaxWidth:       width,
		BoundsCheck:    true,
		CacheOptimized: true,
	}

	p.log.Debug().
		Int("states", len(states)).
		Int("threads", p.cfg.NumThreads).
		Int("chunk", chunk).
		Stringer("level", level).
		Msg("dispatching batch")

	g := new(errgroup.Group)
	for worker := 0; worker < p.cfg.NumThreads; worker++ {
		worker := worker
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PoolError{Worker: worker, Cause: fmt.Errorf("worker panic: %v", r)}
				}
			}()
			if p.cfg.PinWorkers {
				runtime.LockOSThread()
				defer runtime.UnlockOSThread()
			}

			for claims := 0; ; claims++ {
				if iv := p.cfg.ShutdownCheckInterval; iv > 0 && claims > 0 && claims%iv == 0 &&
					p.shutdown.Load() {
					return ErrShutdown
				}

				start, end, ok := dist.nextChunk(chunk)
				if !ok {
					return nil
				}

				// The claimed range is this worker's alone.
				out := results[start:end]
				copy(out, states[start:end])
				if width > 1 && len(out) >= width {
					if err := keccakx.PermuteBatch(out, keccak.RoundCount, batchCfg); err != nil {
						return &PoolError{Worker: worker, Cause: err}
					}
				} else {
					for i := range out {
						keccak.P1600Optimized(&out[i], level)
					}
				}
				dist.completed.Add(int64(end - start))
			}
		})
	}

	if err := p.wait(g); err != nil {
		return nil, err
	}

	dist.done.Store(true)
	if got := dist.completed.Load(); got != int64(len(states)) {
		p.log.Error().Int64("completed", got).Int("total", len(states)).Msg("batch incomplete")
		return nil, ErrIncomplete
	}
	return results, nil
}

// wait joins all workers, enforcing the configured timeout. On timeout the
// abandoned workers drain the cursor in the background; they only touch the
// results slice the caller never sees.
func (p *CryptoThreadPool) wait(g *errgroup.Group) error {
	if p.cfg.Timeout <= 0 {
		return g.Wait()
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(p.cfg.Timeout):
		return ErrTimeout
	}
}

func (p *CryptoThreadPool) processSequential(states [][25]uint64, level keccak.OptimizationLevel) [][25]uint64 {
	results := make([][25]uint64, len(states))
	for i := range states {
		results[i] = states[i]
		keccak.P1600Optimized(&results[i], level)
	}
	return results
}

// Global pool singleton: first-call-wins initialization.
var (
	globalOnce sync.Once
	globalPool atomic.Pointer[CryptoThreadPool]
)

// InitGlobalThreadPool initializes the process-wide pool. The first call
// wins; later calls are no-ops.
func InitGlobalThreadPool(cfg ThreadingConfig) {
	globalOnce.Do(func() {
		globalPool.Store(New(cfg))
	})
}

// GetGlobalThreadPool returns the process-wide pool, or nil if
// InitGlobalThreadPool has never been called.
func GetGlobalThreadPool() *CryptoThreadPool {
	return globalPool.Load()
}

// ProcessKeccakStatesGlobal processes a batch on the process-wide pool,
// falling back to an on-demand default-configured pool if none was
// initialized.
func ProcessKeccakStatesGlobal(states [][25]uint64, level keccak.OptimizationLevel) ([][25]uint64, error) {
	if p := GetGlobalThreadPool(); p != nil {
		return p.ProcessKeccakStates(states, level)
	}
	return New(DefaultConfig()).ProcessKeccakStates(states, level)
}

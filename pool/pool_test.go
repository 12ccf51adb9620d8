package pool //nolint:testpackage // testing internals

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codahale/p1600/hazmat/keccak"
	"github.com/codahale/p1600/internal/testdata"
)

func randomStates(drbg *testdata.DRBG, n int) [][25]uint64 {
	states := make([][25]uint64, n)
	for i := range states {
		states[i] = drbg.State()
	}
	return states
}

func permuteAll(states [][25]uint64) [][25]uint64 {
	want := make([][25]uint64, len(states))
	for i := range states {
		want[i] = states[i]
		keccak.Permute(&want[i], keccak.RoundCount)
	}
	return want
}

func TestProcessKeccakStatesSequentialPath(t *testing.T) {
	drbg := testdata.New("pool sequential")
	states := randomStates(drbg, 100)
	want := permuteAll(states)

	// Below MinWorkSize the batch runs on the calling goroutine.
	p := New(DefaultConfig())
	got, err := p.ProcessKeccakStates(states, keccak.Reference)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// A single-threaded pool always takes the sequential path.
	p = New(SecurityOptimized())
	got, err = p.ProcessKeccakStates(states, keccak.Reference)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestProcessKeccakStatesOrderInvariance(t *testing.T) {
	drbg := testdata.New("pool order")
	states := randomStates(drbg, 300)
	want := permuteAll(states)

	// Result i must be states[i] permuted regardless of thread count, chunk
	// size, or optimization level.
	for _, threads := range []int{2, 4, 8} {
		for _, chunk := range []int{1, 3, 7, 64} {
			p := New(ThreadingConfig{
				NumThreads:       threads,
				MinWorkSize:      1,
				MaxWorkPerThread: chunk,
				Timeout:          30 * time.Second,
			})
			for level := keccak.Reference; level <= keccak.Maximum; level++ {
				got, err := p.ProcessKeccakStates(states, level)
				require.NoError(t, err)
				require.Equal(t, want, got, "threads=%d chunk=%d level=%v", threads, chunk, level)
			}
		}
	}
}

func TestProcessKeccakStatesInputUntouched(t *testing.T) {
	drbg := testdata.New("pool input untouched")
	states := randomStates(drbg, 200)
	before := make([][25]uint64, len(states))
	copy(before, states)

	p := New(ThreadingConfig{NumThreads: 4, MinWorkSize: 1, MaxWorkPerThread: 16, Timeout: 30 * time.Second})
	_, err := p.ProcessKeccakStates(states, keccak.BestAvailable())
	require.NoError(t, err)
	require.Equal(t, before, states)
}

func TestProcessKeccakStatesEmptyBatch(t *testing.T) {
	p := New(DefaultConfig())
	got, err := p.ProcessKeccakStates(nil, keccak.Reference)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestProcessKeccakStatesParallelMatchesSequential(t *testing.T) {
	drbg := testdata.New("pool fallback equivalence")
	states := randomStates(drbg, 500)

	sequential := New(ThreadingConfig{NumThreads: 1, MinWorkSize: 1, MaxWorkPerThread: 1})
	parallel := New(ThreadingConfig{NumThreads: 8, MinWorkSize: 1, MaxWorkPerThread: 9, Timeout: 30 * time.Second})

	for level := keccak.Reference; level <= keccak.Maximum; level++ {
		want, err := sequential.ProcessKeccakStates(states, level)
		require.NoError(t, err)
		got, err := parallel.ProcessKeccakStates(states, level)
		require.NoError(t, err)
		require.Equal(t, want, got, "level=%v", level)
	}
}

func TestProcessKeccakStatesWorkerPanic(t *testing.T) {
	drbg := testdata.New("pool worker panic")
	states := randomStates(drbg, 100)

	// An invalid level panics inside the worker; the pool must surface it as
	// a PoolError instead of crashing the process.
	p := New(ThreadingConfig{NumThreads: 4, MinWorkSize: 1, MaxWorkPerThread: 16, Timeout: 30 * time.Second})
	_, err := p.ProcessKeccakStates(states, keccak.OptimizationLevel(42))
	require.Error(t, err)

	var perr *PoolError
	require.ErrorAs(t, err, &perr)
	assert.GreaterOrEqual(t, perr.Worker, 0)
	assert.Less(t, perr.Worker, 4)
	assert.ErrorContains(t, perr, "worker panic")
}

func TestShutdownRejectsNewBatches(t *testing.T) {
	drbg := testdata.New("pool shutdown")
	states := randomStates(drbg, 10)

	p := New(DefaultConfig())
	p.Shutdown()
	_, err := p.ProcessKeccakStates(states, keccak.Reference)
	require.ErrorIs(t, err, ErrShutdown)
}

func TestShutdownDuringBatch(t *testing.T) {
	drbg := testdata.New("pool shutdown in flight")
	states := randomStates(drbg, 2000)
	want := permuteAll(states)

	// Polling workers either finish the batch or stop at a chunk boundary
	// with ErrShutdown. Either way the input is never half-processed output.
	p := New(ThreadingConfig{
		NumThreads:            4,
		MinWorkSize:           1,
		MaxWorkPerThread:      1,
		Timeout:               30 * time.Second,
		ShutdownCheckInterval: 1,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var got [][25]uint64
	var err error
	go func() {
		defer wg.Done()
		got, err = p.ProcessKeccakStates(states, keccak.Reference)
	}()
	p.Shutdown()
	wg.Wait()

	if err != nil {
		require.ErrorIs(t, err, ErrShutdown)
	} else {
		require.Equal(t, want, got)
	}
}

func TestShutdownIgnoredWithoutPolling(t *testing.T) {
	drbg := testdata.New("pool no polling")
	states := randomStates(drbg, 500)
	want := permuteAll(states)

	// With polling disabled a batch that got past the entry check always
	// runs to completion, even if Shutdown lands mid-flight.
	p := New(ThreadingConfig{
		NumThreads:       4,
		MinWorkSize:      1,
		MaxWorkPerThread: 8,
		Timeout:          30 * time.Second,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var got [][25]uint64
	var err error
	go func() {
		defer wg.Done()
		got, err = p.ProcessKeccakStates(states, keccak.Reference)
	}()
	p.Shutdown()
	wg.Wait()

	// The goroutine may observe the flag at the entry check if Shutdown wins
	// the race; once running, it must finish.
	if !errors.Is(err, ErrShutdown) {
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestProcessKeccakStatesTimeout(t *testing.T) {
	drbg := testdata.New("pool timeout")
	states := randomStates(drbg, 50_000)

	p := New(ThreadingConfig{
		NumThreads:       2,
		MinWorkSize:      1,
		MaxWorkPerThread: 1,
		Timeout:          time.Nanosecond,
	})
	_, err := p.ProcessKeccakStates(states, keccak.Reference)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestGlobalThreadPool(t *testing.T) {
	drbg := testdata.New("pool global")
	states := randomStates(drbg, 50)
	want := permuteAll(states)

	// Before initialization the global accessor is nil and the convenience
	// entry point falls back to an on-demand pool.
	require.Nil(t, GetGlobalThreadPool())
	got, err := ProcessKeccakStatesGlobal(states, keccak.Reference)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// First initialization wins; later calls are no-ops.
	first := ThreadingConfig{NumThreads: 3, MinWorkSize: 7, MaxWorkPerThread: 11, Timeout: 30 * time.Second}
	InitGlobalThreadPool(first)
	InitGlobalThreadPool(ThreadingConfig{NumThreads: 99, MinWorkSize: 99, MaxWorkPerThread: 99})

	p := GetGlobalThreadPool()
	require.NotNil(t, p)
	require.Equal(t, first, p.Config())

	got, err = ProcessKeccakStatesGlobal(states, keccak.Reference)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestProcessKeccakStatesSoak(t *testing.T) {
	reps, size := 10, 5000
	if testing.Short() {
		reps, size = 2, 1000
	}

	drbg := testdata.New("pool soak")
	states := randomStates(drbg, size)
	want := permuteAll(states)

	p := New(ThreadingConfig{
		NumThreads:       8,
		MinWorkSize:      1,
		MaxWorkPerThread: 64,
		Timeout:          60 * time.Second,
	})
	level := keccak.BestAvailable()
	for r := 0; r < reps; r++ {
		got, err := p.ProcessKeccakStates(states, level)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestNewClampsConfig(t *testing.T) {
	p := New(ThreadingConfig{NumThreads: -3, MaxWorkPerThread: 0})
	assert.Equal(t, 1, p.Config().NumThreads)
	assert.Equal(t, 1, p.Config().MaxWorkPerThread)
}

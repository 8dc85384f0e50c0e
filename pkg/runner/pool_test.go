package runner

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ResultsInInputOrder(t *testing.T) {
	inputs := make([]string, 10)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("2.16.840.1.%d", i)
	}

	pool := NewPool(3)
	results := pool.Run(context.Background(), inputs, func(_ context.Context, job Job) Result {
		// Later jobs may finish before earlier ones.
		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		return Result{Input: job.Input, OID: job.Input}
	}, nil)

	require.Len(t, results, len(inputs))
	for i, res := range results {
		assert.Equal(t, inputs[i], res.Input, "result slot %d", i)
	}
}

func TestPool_ConcurrencyBound(t *testing.T) {
	const workers = 3
	var inFlight, maxInFlight atomic.Int64

	inputs := make([]string, 10)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("1.2.%d", i)
	}

	pool := NewPool(workers)
	pool.Run(context.Background(), inputs, func(_ context.Context, job Job) Result {
		current := inFlight.Add(1)
		for {
			observed := maxInFlight.Load()
			if current <= observed || maxInFlight.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return Result{Input: job.Input}
	}, nil)

	assert.LessOrEqual(t, maxInFlight.Load(), int64(workers),
		"never more than %d jobs in flight", workers)
	assert.Positive(t, maxInFlight.Load())
}

func TestPool_EveryJobExactlyOnce(t *testing.T) {
	inputs := make([]string, 50)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("1.2.%d", i)
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	pool := NewPool(8)
	pool.Run(context.Background(), inputs, func(_ context.Context, job Job) Result {
		mu.Lock()
		seen[job.Input]++
		mu.Unlock()
		return Result{Input: job.Input}
	}, nil)

	require.Len(t, seen, len(inputs))
	for input, count := range seen {
		assert.Equal(t, 1, count, "job %s attempted %d times", input, count)
	}
}

func TestPool_FailureIsolation(t *testing.T) {
	inputs := []string{"1.2.0", "1.2.1", "1.2.2", "1.2.3"}

	pool := NewPool(2)
	results := pool.Run(context.Background(), inputs, func(_ context.Context, job Job) Result {
		if job.Index == 1 {
			return Result{Input: job.Input, Err: fmt.Errorf("boom")}
		}
		return Result{Input: job.Input, OID: job.Input}
	}, nil)

	assert.Error(t, results[1].Err)
	for _, i := range []int{0, 2, 3} {
		assert.NoError(t, results[i].Err, "sibling job %d must be unaffected", i)
	}
}

func TestPool_OnDoneObservesEveryCompletion(t *testing.T) {
	inputs := []string{"1.2.0", "1.2.1", "1.2.2"}

	var completions atomic.Int64
	pool := NewPool(2)
	pool.Run(context.Background(), inputs, func(_ context.Context, job Job) Result {
		return Result{Input: job.Input}
	}, func(Result) {
		completions.Add(1)
	})

	assert.Equal(t, int64(3), completions.Load())
}

func TestPool_ClampsWorkersToJobCount(t *testing.T) {
	var inFlight, maxInFlight atomic.Int64

	pool := NewPool(16)
	results := pool.Run(context.Background(), []string{"1.2.0", "1.2.1"}, func(_ context.Context, job Job) Result {
		current := inFlight.Add(1)
		for {
			observed := maxInFlight.Load()
			if current <= observed || maxInFlight.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return Result{Input: job.Input}
	}, nil)

	require.Len(t, results, 2)
	assert.LessOrEqual(t, maxInFlight.Load(), int64(2))
}

func TestPool_NoJobs(t *testing.T) {
	pool := NewPool(4)
	results := pool.Run(context.Background(), nil, func(_ context.Context, job Job) Result {
		t.Error("job func must not be called")
		return Result{}
	}, nil)
	assert.Empty(t, results)
}

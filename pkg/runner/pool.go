// Package runner schedules the per-identifier fetch pipeline across a
// fixed number of concurrent workers.
package runner

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"vsacfetch/pkg/fhir"
)

// Job is one identifier paired with its position in the original input
// ordering. Immutable once created.
type Job struct {
	Input string
	Index int
}

// Result is the outcome of one job. It is stored in the result slot for
// the job's original input position, regardless of completion order.
type Result struct {
	Input      string
	OID        string
	Version    string
	Definition *fhir.ValueSet
	Expanded   *fhir.ValueSet
	Err        error
}

// JobFunc runs the per-identifier pipeline for one job. Failures are
// returned inside the Result, never as a panic or shared error.
type JobFunc func(ctx context.Context, job Job) Result

// Pool runs jobs across a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given concurrency limit (minimum 1).
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes fn for every input and returns results indexed by input
// position. It spawns min(workers, len(inputs)) goroutines that claim
// jobs from a shared cursor; each job is attempted exactly once and at
// most `workers` jobs are in flight at any time. A job failure is
// recorded in its result slot and never stops the other workers. onDone,
// if non-nil, is called once per job as it completes (in completion
// order).
func (p *Pool) Run(ctx context.Context, inputs []string, fn JobFunc, onDone func(Result)) []Result {
	jobs := make([]Job, len(inputs))
	for i, input := range inputs {
		jobs[i] = Job{Input: input, Index: i}
	}
	results := make([]Result, len(jobs))

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	log.Debug().
		Int("jobs", len(jobs)).
		Int("workers", workers).
		Msg("Starting worker pool")

	var cursor atomic.Int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				claimed := cursor.Add(1) - 1
				if claimed >= int64(len(jobs)) {
					return nil
				}
				job := jobs[claimed]
				result := fn(ctx, job)
				results[job.Index] = result
				if onDone != nil {
					onDone(result)
				}
			}
		})
	}
	// Workers never return errors; failures live in the result slots.
	_ = g.Wait()

	return results
}

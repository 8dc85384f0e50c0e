// Package progress tracks job completions and renders the end-of-run
// summary.
package progress

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var vsacJobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vsac_jobs_completed_total",
	Help: "Total completed fetch jobs by outcome",
}, []string{"outcome"}) // "success", "failure"

// Tracker observes job completions as they occur, in any order. Safe for
// concurrent use by the worker pool.
type Tracker struct {
	total     int
	start     time.Time
	completed atomic.Int64
	failed    atomic.Int64
	logger    zerolog.Logger
}

// Summary holds the end-of-run counts.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// NewTracker starts tracking a run of the given size.
func NewTracker(total int) *Tracker {
	return &Tracker{
		total:  total,
		start:  time.Now(),
		logger: log.With().Str("component", "progress").Logger(),
	}
}

// JobDone records one completion. err is the job's recorded error, nil on
// success.
func (t *Tracker) JobDone(identifier string, err error) {
	completed := t.completed.Add(1)

	if err != nil {
		t.failed.Add(1)
		vsacJobsCompleted.WithLabelValues("failure").Inc()
		t.logger.Error().
			Err(err).
			Str("identifier", identifier).
			Int64("completed", completed).
			Int("total", t.total).
			Msg("Job failed")
		return
	}

	vsacJobsCompleted.WithLabelValues("success").Inc()
	t.logger.Info().
		Str("identifier", identifier).
		Int64("completed", completed).
		Int("total", t.total).
		Msg("Job complete")
}

// Summary returns the counts so far and the elapsed wall time.
func (t *Tracker) Summary() Summary {
	completed := int(t.completed.Load())
	failed := int(t.failed.Load())
	return Summary{
		Total:     completed,
		Succeeded: completed - failed,
		Failed:    failed,
		Elapsed:   time.Since(t.start),
	}
}

// LogSummary renders the final report.
func (t *Tracker) LogSummary() {
	s := t.Summary()
	t.logger.Info().
		Int("total", s.Total).
		Int("succeeded", s.Succeeded).
		Int("failed", s.Failed).
		Dur("elapsed", s.Elapsed).
		Msg("Run complete")
}

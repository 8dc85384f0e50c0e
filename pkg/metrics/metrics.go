// Package metrics provides the central Prometheus registry reference for
// the fetch pipeline. All metrics are defined in their respective
// packages (client, cache, progress) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - vsac_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - vsac_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//
// Retry Metrics (pkg/client):
//   - vsac_retries_total (Counter): Retry attempts
//   - vsac_retry_backoff_seconds (Histogram): Backoff duration per retry
//   - vsac_retry_exhausted_total (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - vsac_cache_hits_total{backend} (Counter): Cache hits by backend (file, redis)
//   - vsac_cache_misses_total (Counter): Cache misses
//   - vsac_cache_errors_total{operation} (Counter): Cache operation errors (get, put)
//
// Job Metrics (pkg/progress):
//   - vsac_jobs_completed_total{outcome} (Counter): Completed jobs by outcome (success, failure)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(vsac_cache_hits_total[5m])) /
//   (sum(rate(vsac_cache_hits_total[5m])) + sum(rate(vsac_cache_misses_total[5m])))
//
//   # Request Error Rate
//   sum(rate(vsac_requests_total{status=~"4..|5.."}[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(vsac_request_duration_seconds_bucket[5m]))
//
//   # Job Failure Rate
//   rate(vsac_jobs_completed_total{outcome="failure"}[5m])

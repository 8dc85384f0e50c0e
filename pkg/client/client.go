// Package client provides the VSAC FHIR terminology client with
// authentication, retry, and rate limiting.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for VSAC client operations.
var (
	vsacRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vsac_requests_total",
		Help: "Total VSAC requests by endpoint and status",
	}, []string{"endpoint", "status"})

	vsacRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vsac_request_duration_seconds",
		Help:    "VSAC request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	vsacRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vsac_retries_total",
		Help: "Total number of retry attempts",
	})

	vsacRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vsac_retry_backoff_seconds",
		Help:    "Backoff duration for retries",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	vsacRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vsac_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})
)

// DefaultBaseURL is the VSAC FHIR terminology service endpoint.
const DefaultBaseURL = "https://cts.nlm.nih.gov/fhir"

// VSAC uses HTTP basic auth with a fixed username and the UMLS API key as
// password.
const authUsername = "apikey"

// Config holds the client configuration.
type Config struct {
	// BaseURL of the terminology service (default: DefaultBaseURL).
	BaseURL string

	// APIKey is the UMLS API key (REQUIRED).
	APIKey string

	// Retry policy for transient failures.
	Retry RetryConfig

	// RateLimit in requests per second across all workers (0 = unlimited).
	RateLimit float64

	// Timeout per HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		APIKey:    apiKey,
		Retry:     DefaultRetryConfig(),
		RateLimit: 0,
		Timeout:   30 * time.Second,
	}
}

// Client is the VSAC terminology client.
type Client struct {
	httpClient *http.Client
	config     Config
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// New creates a new VSAC client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = DefaultRetryConfig().BaseDelay
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:  cfg,
		limiter: limiter,
		logger:  log.With().Str("component", "vsac-client").Logger(),
	}, nil
}

// GetJSON performs an authenticated GET against the given service path
// and returns the response body. Transient failures (429, 5xx) are
// retried per the configured policy; other failures propagate
// immediately.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	requestURL := c.config.BaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	startTime := time.Now()
	defer func() {
		vsacRequestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	var body []byte
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.SetBasicAuth(authUsername, c.config.APIKey)
		req.Header.Set("Accept", "application/fhir+json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			vsacRequestsTotal.WithLabelValues(path, "network_error").Inc()
			c.logger.Error().Err(err).Str("endpoint", path).Msg("HTTP request failed")
			return err
		}
		defer resp.Body.Close()

		vsacRequestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			c.logger.Warn().
				Str("endpoint", path).
				Int("status", resp.StatusCode).
				Msg("VSAC request error")
			return &APIError{
				StatusCode: resp.StatusCode,
				Endpoint:   path,
				Message:    resp.Status,
			}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("endpoint", path).
		Int("bytes", len(body)).
		Msg("VSAC request complete")

	return body, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

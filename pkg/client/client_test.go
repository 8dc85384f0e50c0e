package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig("test-api-key")
	cfg.BaseURL = baseURL
	cfg.Retry = RetryConfig{MaxRetries: 3, BaseDelay: 5 * time.Millisecond}
	return cfg
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("New() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestGetJSON_Success(t *testing.T) {
	var gotUser, gotPass string
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/fhir+json")
		w.Write([]byte(`{"resourceType":"ValueSet","id":"1.2.3"}`))
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	body, err := c.GetJSON(context.Background(), "/ValueSet/1.2.3", nil)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if string(body) != `{"resourceType":"ValueSet","id":"1.2.3"}` {
		t.Errorf("GetJSON() body = %s", body)
	}
	if gotUser != "apikey" || gotPass != "test-api-key" {
		t.Errorf("basic auth = %q/%q, want apikey/test-api-key", gotUser, gotPass)
	}
	if gotAccept != "application/fhir+json" {
		t.Errorf("Accept = %q, want application/fhir+json", gotAccept)
	}
}

func TestGetJSON_QueryEncoding(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	query := url.Values{}
	query.Set("offset", "500")
	query.Set("count", "500")
	query.Set("valueSetVersion", "20240301")

	if _, err := c.GetJSON(context.Background(), "/ValueSet/1.2/$expand", query); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if gotQuery.Get("offset") != "500" || gotQuery.Get("count") != "500" {
		t.Errorf("query = %v, want offset=500 count=500", gotQuery)
	}
	if gotQuery.Get("valueSetVersion") != "20240301" {
		t.Errorf("valueSetVersion = %q, want 20240301", gotQuery.Get("valueSetVersion"))
	}
}

func TestGetJSON_RetriesOn429(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"resourceType":"ValueSet"}`))
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	start := time.Now()
	body, err := c.GetJSON(context.Background(), "/ValueSet/1.2", nil)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3 (initial + 2 retries)", got)
	}
	// Backoff schedule is base*2^k: 5ms + 10ms minimum before success.
	if elapsed < 15*time.Millisecond {
		t.Errorf("elapsed %v, want at least 15ms of backoff", elapsed)
	}
	if len(body) == 0 {
		t.Error("GetJSON() returned empty body after retries")
	}
}

func TestGetJSON_NoRetryOn404(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.GetJSON(context.Background(), "/ValueSet/9.9.9", nil)

	if got := requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry on 404)", got)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("GetJSON() error = %v, want 404 APIError", err)
	}
}

func TestGetJSON_RetryExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry = RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.GetJSON(context.Background(), "/ValueSet/1.2", nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("GetJSON() error = %v, want ErrRetryExhausted", err)
	}
}

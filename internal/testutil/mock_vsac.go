// Package testutil provides testing utilities for the VSAC fetch pipeline.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"vsacfetch/pkg/fhir"
)

// MockVSAC is a configurable mock VSAC FHIR server for testing.
type MockVSAC struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount int
	pathCounts   map[string]int
	lastAuthUser string
}

// NewMockVSAC creates a new mock VSAC server.
func NewMockVSAC() *MockVSAC {
	mock := &MockVSAC{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		if user, _, ok := r.BasicAuth(); ok {
			mock.lastAuthUser = user
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/fhir+json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"resourceType":"OperationOutcome","issue":[{"severity":"error","code":"not-found"}]}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockVSAC) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockVSAC) Close() {
	m.server.Close()
}

// Handle registers a custom handler for a path.
func (m *MockVSAC) Handle(path string, fn http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = fn
}

// Requests returns the total number of requests received.
func (m *MockVSAC) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathRequests returns the number of requests received for one path.
func (m *MockVSAC) PathRequests(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastAuthUser returns the basic auth username of the last request.
func (m *MockVSAC) LastAuthUser() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAuthUser
}

// Reset clears all tracking counters.
func (m *MockVSAC) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastAuthUser = ""
}

// ServeDefinition registers a definition resource for an OID.
func (m *MockVSAC) ServeDefinition(oid string, vs fhir.ValueSet) {
	payload, _ := json.Marshal(vs)
	m.Handle("/ValueSet/"+oid, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/fhir+json")
		w.Write(payload)
	})
}

// ServeExpansion registers a paging $expand handler for an OID, slicing
// the given concepts by the offset and count query parameters. When
// declareTotal is false the pages carry no expansion.total, so a client
// must page until it sees an empty page.
func (m *MockVSAC) ServeExpansion(oid, version string, concepts []fhir.Concept, declareTotal bool) {
	m.Handle("/ValueSet/"+oid+"/$expand", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		count, _ := strconv.Atoi(r.URL.Query().Get("count"))
		if count <= 0 {
			count = len(concepts)
		}

		var slice []fhir.Concept
		if offset < len(concepts) {
			end := offset + count
			if end > len(concepts) {
				end = len(concepts)
			}
			slice = concepts[offset:end]
		}

		expansion := &fhir.Expansion{
			Offset:   &offset,
			Contains: slice,
		}
		if declareTotal {
			total := len(concepts)
			expansion.Total = &total
		}

		page := fhir.ValueSet{
			ResourceType: "ValueSet",
			ID:           oid,
			Version:      version,
			Status:       "active",
			Expansion:    expansion,
		}

		w.Header().Set("Content-Type", "application/fhir+json")
		json.NewEncoder(w).Encode(page)
	})
}

package testing

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// CountingServer is an [httptest.Server] that records every request's query.
type CountingServer struct {
	*httptest.Server

	mu      sync.Mutex
	queries []url.Values
}

// NewCountingServer starts a server that records requests and then calls handler.
func NewCountingServer(t *testing.T, handler http.HandlerFunc) *CountingServer {
	t.Helper()

	cs := &CountingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.queries = append(cs.queries, r.URL.Query())
		cs.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

// Count returns the number of requests received.
func (cs *CountingServer) Count() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.queries)
}

// Queries returns the recorded query parameters in arrival order.
func (cs *CountingServer) Queries() []url.Values {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]url.Values(nil), cs.queries...)
}

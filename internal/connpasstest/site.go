// Package connpasstest serves a fake connpass group over httptest for
// crawler tests. Pages are registered by request URI and every request is
// counted so tests can assert on fetch sequences.
package connpasstest

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// Site is an in-memory connpass group.
type Site struct {
	Server *httptest.Server

	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   map[string]int
	order  []string
}

// NewSite starts a fake site. Close it when done.
func NewSite() *Site {
	s := &Site{
		pages:  make(map[string]string),
		status: make(map[string]int),
		hits:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.RequestURI()

	s.mu.Lock()
	s.hits[uri]++
	s.order = append(s.order, uri)
	body, ok := s.pages[uri]
	status, failing := s.status[uri]
	s.mu.Unlock()

	if failing {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

// URL returns the site root without a trailing slash.
func (s *Site) URL() string {
	return s.Server.URL
}

// Page registers body under uri (path plus query, e.g. "/event/?page=2").
func (s *Site) Page(uri, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[uri] = body
}

// Fail makes uri answer with status.
func (s *Site) Fail(uri string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[uri] = status
}

// Hits returns how many times uri was requested.
func (s *Site) Hits(uri string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[uri]
}

// Requests returns every requested URI in order.
func (s *Site) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Close shuts the server down.
func (s *Site) Close() {
	s.Server.Close()
}

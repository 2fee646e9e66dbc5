// Package registrytest provides an httptest-backed identity registry that
// counts calls and captures request headers.
package registrytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"padron/internal/identity/registry/mockregistry"
)

// Responder writes the stub's answer for one request.
type Responder func(w http.ResponseWriter, r *http.Request)

// Request is what the stub observed for one call.
type Request struct {
	Query  map[string][]string
	Header http.Header
}

// Server is a stub registry. Use URL as the client's base URL.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	responder Responder
	requests  []Request
}

// New starts a stub registry answering with respond; it is closed on test cleanup.
func New(t testing.TB, respond Responder) *Server {
	t.Helper()
	s := &Server{responder: respond}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// NewDeterministic starts a stub serving mockregistry records.
func NewDeterministic(t testing.TB) *Server {
	t.Helper()
	h := mockregistry.Handler("numero", "")
	return New(t, h.ServeHTTP)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{Query: r.URL.Query(), Header: r.Header.Clone()})
	respond := s.responder
	s.mu.Unlock()
	respond(w, r)
}

// Respond swaps the responder for subsequent calls.
func (s *Server) Respond(respond Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = respond
}

// Calls returns how many requests reached the stub.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every observed request, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or false if none arrived.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// JSON answers with status and body encoded as JSON.
func JSON(status int, body any) Responder {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Raw answers with status and body written verbatim.
func Raw(status int, body string) Responder {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// Hang never answers; it returns once the client gives up or release is closed.
func Hang(release <-chan struct{}) Responder {
	return func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}
}

// Gate blocks every call until release is closed, then delegates to next.
// Entered receives one value per call that reached the gate.
func Gate(entered chan<- struct{}, release <-chan struct{}, next Responder) Responder {
	return func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		next(w, r)
	}
}

// Package session holds the process-wide authenticated principal and
// notifies watchers when it changes, so subscription owners can tear
// down one principal's streams before opening the next one's.
package session

import (
	"sort"
	"sync"
)

// Session is the explicit lifecycle home for the current principal:
// created on startup, updated on sign-in/sign-out, injected into every
// component that needs store access.
type Session struct {
	mu        sync.Mutex
	principal string
	nextID    int
	watchers  map[int]func(principal string)
}

func New() *Session {
	return &Session{watchers: make(map[int]func(string))}
}

// Principal returns the current principal id; ok is false when nobody
// is signed in.
func (s *Session) Principal() (principal string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal, s.principal != ""
}

// SetPrincipal switches the signed-in principal. Watchers run
// synchronously, in registration order, only when the value actually
// changed; an empty principal means sign-out.
func (s *Session) SetPrincipal(principal string) {
	s.mu.Lock()
	if s.principal == principal {
		s.mu.Unlock()
		return
	}
	s.principal = principal
	fns := make([]func(string), 0, len(s.watchers))
	ids := make([]int, 0, len(s.watchers))
	for id := range s.watchers {
		ids = append(ids, id)
	}
	// map iteration order is random; keep registration order
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.watchers[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(principal)
	}
}

// Clear signs the current principal out.
func (s *Session) Clear() {
	s.SetPrincipal("")
}

// Watch registers a principal-change callback and returns its cancel
// function. The callback does not fire for the current value.
func (s *Session) Watch(fn func(principal string)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

package blanketorderhttp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/blanketorder/internal/form"
)

// ErrSessionNotFound is returned for an unknown or expired session id.
var ErrSessionNotFound = errors.New("blanketorder: form session not found")

// Gauge receives the number of open sessions.
type Gauge interface {
	Set(float64)
}

type session struct {
	form     *form.Form
	lastUsed time.Time
}

// Store holds open form sessions and closes the ones left idle.
type Store struct {
	ttl   time.Duration
	gauge Gauge
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewStore builds a store expiring sessions idle for longer than ttl.
func NewStore(ttl time.Duration, gauge Gauge) *Store {
	return &Store{ttl: ttl, gauge: gauge, now: time.Now, sessions: make(map[string]*session)}
}

// Put registers f and returns its session id.
func (s *Store) Put(f *form.Form) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{form: f, lastUsed: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()
	s.report(n)
	return id
}

// Get returns the form of session id and marks it used.
func (s *Store) Get(id string) (*form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastUsed = s.now()
	return sess.form, nil
}

// Delete closes and forgets session id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.form.Close()
	s.report(n)
	return nil
}

// Sweep closes sessions idle past the ttl and returns how many it closed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	var expired []*form.Form
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			expired = append(expired, sess.form)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	for _, f := range expired {
		f.Close()
	}
	if len(expired) > 0 {
		s.report(n)
	}
	return len(expired)
}

// Run sweeps every interval until ctx ends, then closes every session.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.CloseAll()
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// CloseAll closes every session.
func (s *Store) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	for _, sess := range all {
		sess.form.Close()
	}
	s.report(0)
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) report(n int) {
	if s.gauge != nil {
		s.gauge.Set(float64(n))
	}
}

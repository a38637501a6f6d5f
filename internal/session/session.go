// Package session keeps live navigators for pages that report their layout
// and scroll position to the service.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/google/uuid"
)

// Session is one page view with its own navigator.
type Session struct {
	ID        string
	Nav       *navigator.Navigator
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch marks the session as active.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// LastSeen returns the last time the session was used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a navigator and returns its session.
func (s *Store) Create(nav *navigator.Navigator) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Nav:       nav,
		CreatedAt: now,
		lastSeen:  now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns a session and marks it active, or nil.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess != nil {
		sess.Touch()
	}
	return sess
}

// Delete removes a session. It reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen()) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Start runs periodic cleanup until Stop or ctx is done.
func (s *Store) Start(ctx context.Context, every time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop ends periodic cleanup.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

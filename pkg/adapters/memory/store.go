package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/relview/pkg/domain"
)

type storedSession struct {
	sess    *domain.Session
	expires time.Time
}

// Store implements ports.SessionStore in memory. Sessions are copied on the
// way in and out, so callers never share maps with the store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]storedSession
	ttl      time.Duration
	now      func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL expires sessions ttl after their last save.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewStore creates an empty store. Sessions never expire unless WithTTL is given.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]storedSession),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) expired(e storedSession) bool {
	return !e.expires.IsZero() && !s.now().Before(e.expires)
}

func (s *Store) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	e := storedSession{sess: sess.Snapshot()}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = e
	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || s.expired(e) {
		return nil, domain.ErrSessionNotFound
	}
	return e.sess.Snapshot(), nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// List returns the live session IDs in lexical order and forgets expired ones.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

package intake

import (
	"time"

	"github.com/google/uuid"

	"intake/internal/cache"
)

// Store keeps live form sessions in a bounded idle-expiring cache. A reload
// creates a new session, so unsent state is never resumed.
type Store struct {
	sessions *cache.LRUCache[*Session]
	opts     []SessionOption
	newToken func() string
}

func NewStore(maxSessions int, idleTTL time.Duration, cacheOpts []cache.Option, opts ...SessionOption) *Store {
	return &Store{
		sessions: cache.NewLRUCache[*Session](maxSessions, idleTTL, cacheOpts...),
		opts:     opts,
		newToken: uuid.NewString,
	}
}

// Create starts a new session under a random token.
func (s *Store) Create() *Session {
	sess := NewSession(s.newToken(), s.opts...)
	s.sessions.Set(sess.ID, sess)
	return sess
}

// Get returns a live session.
func (s *Store) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	return s.sessions.Get(token)
}

func (s *Store) Delete(token string) {
	s.sessions.Delete(token)
}

func (s *Store) Size() int {
	return s.sessions.Size()
}

// Cleaner exposes the backing cache to a cache.Manager.
func (s *Store) Cleaner() cache.Cleaner {
	return s.sessions
}

package session

import (
	"sync"
	"time"

	"github.com/wakala/interop/internal/domain"
)

// Store holds pending saga sessions keyed by correlation id between the
// collection request and its asynchronous callback. Put overwrites, Take
// consumes: a session can be taken at most once, which is what keeps a
// duplicate callback from triggering a second disbursement.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]domain.PendingSession
}

// NewStore creates a session store. A ttl of zero means sessions never
// expire; a positive ttl makes sessions older than it behave as absent,
// checked lazily on Take.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]domain.PendingSession),
	}
}

// Put stores the session under its correlation id, replacing any existing
// entry for that id (last write wins).
func (s *Store) Put(correlationID string, sess domain.PendingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	s.sessions[correlationID] = sess
}

// Take removes and returns the session for the correlation id. The read and
// the remove are one atomic operation, so under concurrent duplicate
// callbacks exactly one caller gets the session; every later call (and any
// call for an expired or unknown id) reports false.
func (s *Store) Take(correlationID string) (domain.PendingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[correlationID]
	if !ok {
		return domain.PendingSession{}, false
	}
	delete(s.sessions, correlationID)

	if s.ttl > 0 && time.Since(sess.CreatedAt) > s.ttl {
		return domain.PendingSession{}, false
	}
	return sess, true
}

// Len reports the number of sessions currently pending.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

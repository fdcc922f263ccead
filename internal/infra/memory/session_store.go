package memory

import (
	"sync"
	"time"

	"quiz-chat-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// A session untouched for ttl is evicted; ttl <= 0 keeps sessions until Delete.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]storedSession
}

type storedSession struct {
	session  *app.QuizSession
	lastSeen time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Save(session *app.QuizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	s.sweepLocked(now)
	s.sessions[session.ID()] = storedSession{session: session, lastSeen: now}
}

func (s *SessionStore) Get(sessionID string) (*app.QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	now := s.clock()
	if s.expired(stored, now) {
		delete(s.sessions, sessionID)
		return nil, false
	}
	stored.lastSeen = now
	s.sessions[sessionID] = stored
	return stored.session, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len reports how many sessions are held, expired ones included until the next sweep.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(stored storedSession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(stored.lastSeen) >= s.ttl
}

func (s *SessionStore) sweepLocked(now time.Time) {
	for id, stored := range s.sessions {
		if s.expired(stored, now) {
			delete(s.sessions, id)
		}
	}
}

package redis

import (
	"context"
	"sync"
	"time"

	"quiz-chat-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions live in a local map; Redis only marks liveness per session so other
//     instances and operators can see which quizzes are in progress.
//   - The marker carries the course id and expires after ttl of inactivity. Once it is
//     gone the local session is dropped too.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time

	mu       sync.Mutex
	sessions map[string]localSession
}

type localSession struct {
	session  *app.QuizSession
	lastSeen time.Time
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]localSession),
	}
}

func (s *SessionStore) Save(session *app.QuizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	// Sessions nobody came back for would otherwise stay in the map forever.
	for id, local := range s.sessions {
		if s.idle(local, now) {
			delete(s.sessions, id)
		}
	}
	s.sessions[session.ID()] = localSession{session: session, lastSeen: now}
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.CourseID(), s.ttl).Err()
}

func (s *SessionStore) Get(sessionID string) (*app.QuizSession, bool) {
	s.mu.Lock()
	local, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	alive, err := s.client.Expire(context.Background(), s.key(sessionID), s.ttl).Result()
	now := s.clock()
	// Redis decides when it answers; the local clock covers outages.
	if (err == nil && !alive) || (err != nil && s.idle(local, now)) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return nil, false
	}

	s.mu.Lock()
	if current, ok := s.sessions[sessionID]; ok && current.session == local.session {
		current.lastSeen = now
		s.sessions[sessionID] = current
	}
	s.mu.Unlock()
	return local.session, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) idle(local localSession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(local.lastSeen) >= s.ttl
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}

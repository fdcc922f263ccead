package app

import (
	"context"
	"fmt"
	"time"

	"quiz-chat-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *QuizSession)
	Get(sessionID string) (*QuizSession, bool)
	Delete(sessionID string)
}

// PoolRepository loads the question pool of a course (from cache/backing store).
type PoolRepository interface {
	GetPool(ctx context.Context, courseID string) ([]domain.Question, error)
}

// ResultLog keeps submitted results for per-course summaries.
type ResultLog interface {
	Record(ctx context.Context, result domain.QuizResult) error
	Summary(ctx context.Context, courseID string) (domain.ResultSummary, error)
}

// DefaultFetchTimeout bounds collaborator calls when none is configured.
const DefaultFetchTimeout = 15 * time.Second

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions     SessionRepository
	pools        PoolRepository
	results      ResultLog
	perm         Permuter
	fetchTimeout time.Duration
	newID        func() string
	logger       *zap.Logger
}

// QuizOption customizes a QuizService.
type QuizOption func(*QuizService)

// WithPermuter replaces the random source used for selection and shuffling.
func WithPermuter(p Permuter) QuizOption {
	return func(s *QuizService) { s.perm = p }
}

// WithLogger sets the logger used for failures that do not reach the caller.
func WithLogger(l *zap.Logger) QuizOption {
	return func(s *QuizService) { s.logger = l }
}

// WithFetchTimeout bounds pool loading.
func WithFetchTimeout(d time.Duration) QuizOption {
	return func(s *QuizService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

func NewQuizService(sessions SessionRepository, pools PoolRepository, results ResultLog, opts ...QuizOption) *QuizService {
	s := &QuizService{
		sessions:     sessions,
		pools:        pools,
		results:      results,
		perm:         DefaultPermuter,
		fetchTimeout: DefaultFetchTimeout,
		newID:        func() string { return uuid.New().String() },
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the course pool, selects rawCount questions and shuffles their options.
func (s *QuizService) Start(ctx context.Context, courseID, rawCount string) (SessionView, error) {
	count, err := ParseCount(rawCount)
	if err != nil {
		return SessionView{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	pool, err := s.pools.GetPool(fetchCtx, courseID)
	if err != nil {
		return SessionView{}, fmt.Errorf("load pool %s: %w", courseID, err)
	}

	selected, err := SelectSubset(pool, count, s.perm)
	if err != nil {
		return SessionView{}, err
	}
	for i, q := range selected {
		shuffled, err := ShuffleOptions(q, s.perm)
		if err != nil {
			return SessionView{}, err
		}
		selected[i] = shuffled
	}

	session := NewQuizSession(s.newID(), courseID, selected)
	s.sessions.Save(session)
	return session.View(), nil
}

// View returns the current state of a session.
func (s *QuizService) View(_ context.Context, sessionID string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	return session.View(), nil
}

// Answer records the user's letter for a question.
func (s *QuizService) Answer(_ context.Context, sessionID, questionID, letter string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	if err := session.RecordAnswer(questionID, letter); err != nil {
		return SessionView{}, err
	}
	return session.View(), nil
}

// Next moves the session forward one question.
func (s *QuizService) Next(_ context.Context, sessionID string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	session.Next()
	return session.View(), nil
}

// Previous moves the session back one question.
func (s *QuizService) Previous(_ context.Context, sessionID string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	session.Previous()
	return session.View(), nil
}

// Submit grades the session and records the result. A failure to record is logged
// and does not undo the grading.
func (s *QuizService) Submit(ctx context.Context, sessionID string) (domain.QuizResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.QuizResult{}, domain.ErrSessionNotFound
	}
	result, err := session.Submit()
	if err != nil {
		return domain.QuizResult{}, err
	}
	if s.results != nil {
		if err := s.results.Record(ctx, result); err != nil {
			s.logger.Warn("record quiz result", zap.String("session_id", result.SessionID), zap.Error(err))
		}
	}
	return result, nil
}

// Summary aggregates recorded results for a course.
func (s *QuizService) Summary(ctx context.Context, courseID string) (domain.ResultSummary, error) {
	if s.results == nil {
		return domain.ResultSummary{CourseID: courseID, Grades: map[string]int{}}, nil
	}
	return s.results.Summary(ctx, courseID)
}

// End drops the session; the user left the quiz.
func (s *QuizService) End(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

package app

import (
	"math"
	"strings"
	"sync"
	"time"

	"quiz-chat-service/internal/domain"
)

// SessionView is a read-only snapshot of a quiz session for the transport layer.
// Answer keys are withheld until the session is submitted.
type SessionView struct {
	ID        string            `json:"id"`
	CourseID  string            `json:"courseId"`
	Position  int               `json:"position"`
	Total     int               `json:"total"`
	Current   QuestionView      `json:"current"`
	Answers   map[string]string `json:"answers"`
	Submitted bool              `json:"submitted"`
	CreatedAt time.Time         `json:"createdAt"`
}

// QuestionView is a question as presented to the user.
type QuestionView struct {
	ID      string          `json:"id"`
	Prompt  string          `json:"prompt"`
	Options []domain.Option `json:"options"`
}

// QuizSession holds one user's pass through a selected, shuffled set of questions.
type QuizSession struct {
	id        string
	courseID  string
	createdAt time.Time
	now       func() time.Time

	mu        sync.RWMutex
	questions []domain.Question
	index     map[string]int
	answers   map[string]string
	position  int
	submitted bool
	result    domain.QuizResult
}

// NewQuizSession is exported for infrastructure layers and tests that seed sessions.
// questions must already be shuffled and non-empty.
func NewQuizSession(id, courseID string, questions []domain.Question) *QuizSession {
	return NewQuizSessionWithClock(id, courseID, questions, time.Now)
}

// NewQuizSessionWithClock allows deterministic timestamps in tests.
func NewQuizSessionWithClock(id, courseID string, questions []domain.Question, now func() time.Time) *QuizSession {
	index := make(map[string]int, len(questions))
	for i, q := range questions {
		index[q.ID] = i
	}
	return &QuizSession{
		id:        id,
		courseID:  courseID,
		createdAt: now(),
		now:       now,
		questions: questions,
		index:     index,
		answers:   make(map[string]string),
	}
}

// ID returns the session identifier.
func (s *QuizSession) ID() string { return s.id }

// CourseID returns the course the questions were drawn from.
func (s *QuizSession) CourseID() string { return s.courseID }

// RecordAnswer upserts the chosen letter for a question.
func (s *QuizSession) RecordAnswer(questionID, letter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.ErrAlreadySubmitted
	}
	i, ok := s.index[questionID]
	if !ok {
		return domain.ErrUnknownQuestion
	}
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if !s.questions[i].HasOption(letter) {
		return domain.ErrInvalidAnswer
	}
	s.answers[questionID] = letter
	return nil
}

// Next advances to the following question; it is a no-op on the last one.
func (s *QuizSession) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submitted && s.position < len(s.questions)-1 {
		s.position++
	}
}

// Previous moves back one question; it is a no-op on the first one.
func (s *QuizSession) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submitted && s.position > 0 {
		s.position--
	}
}

// Submit grades the session and freezes it.
func (s *QuizSession) Submit() (domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.QuizResult{}, domain.ErrAlreadySubmitted
	}

	total := len(s.questions)
	review := make([]domain.ReviewItem, 0, total)
	score := 0
	for _, q := range s.questions {
		chosen, answered := s.answers[q.ID]
		correct := answered && chosen == q.Answer
		if correct {
			score++
		}
		review = append(review, domain.ReviewItem{
			QuestionID:  q.ID,
			Chosen:      chosen,
			Answer:      q.Answer,
			Correct:     correct,
			Skipped:     !answered,
			Explanation: q.Explanation,
		})
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(100 * float64(score) / float64(total)))
	}
	s.result = domain.QuizResult{
		SessionID:   s.id,
		CourseID:    s.courseID,
		Score:       score,
		Total:       total,
		Skipped:     total - len(s.answers),
		Percentage:  percentage,
		Grade:       domain.GradeFor(percentage),
		Review:      review,
		SubmittedAt: s.now(),
	}
	s.submitted = true
	return s.result, nil
}

// Result returns the frozen result once submitted.
func (s *QuizSession) Result() (domain.QuizResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.submitted
}

// View snapshots the session for presentation.
func (s *QuizSession) View() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	var current QuestionView
	if len(s.questions) > 0 {
		q := s.questions[s.position]
		current = QuestionView{ID: q.ID, Prompt: q.Prompt, Options: append([]domain.Option(nil), q.Options...)}
	}
	return SessionView{
		ID:        s.id,
		CourseID:  s.courseID,
		Position:  s.position,
		Total:     len(s.questions),
		Current:   current,
		Answers:   answers,
		Submitted: s.submitted,
		CreatedAt: s.createdAt,
	}
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// Letters addresses option slots in display order.
var Letters = []string{"A", "B", "C", "D"}

// MaxOptions is the number of option slots a question can carry.
const MaxOptions = 4

// Option is one answer choice of a question.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question models an MCQ question with up to four option slots and a lettered answer key.
type Question struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Options     []Option `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// HasOption reports whether letter names one of the question's options (case-insensitive).
func (q Question) HasOption(letter string) bool {
	for _, opt := range q.Options {
		if strings.EqualFold(opt.Letter, letter) {
			return true
		}
	}
	return false
}

// Validate checks that the answer key points at a non-blank option.
func (q Question) Validate() error {
	if len(q.Options) > MaxOptions {
		return ErrAnswerKeyMismatch
	}
	for _, opt := range q.Options {
		if strings.EqualFold(opt.Letter, q.Answer) && strings.TrimSpace(opt.Text) != "" {
			return nil
		}
	}
	return ErrAnswerKeyMismatch
}

// ReviewItem is the per-question line of a submitted quiz.
type ReviewItem struct {
	QuestionID  string `json:"questionId"`
	Chosen      string `json:"chosen,omitempty"`
	Answer      string `json:"answer"`
	Correct     bool   `json:"correct"`
	Skipped     bool   `json:"skipped"`
	Explanation string `json:"explanation,omitempty"`
}

// QuizResult summarizes a submitted session.
type QuizResult struct {
	SessionID   string       `json:"sessionId"`
	CourseID    string       `json:"courseId"`
	Score       int          `json:"score"`
	Total       int          `json:"total"`
	Skipped     int          `json:"skipped"`
	Percentage  int          `json:"percentage"`
	Grade       string       `json:"grade"`
	Review      []ReviewItem `json:"review"`
	SubmittedAt time.Time    `json:"submittedAt"`
}

// GradeFor maps a percentage onto the fixed grade bands (inclusive lower bounds).
func GradeFor(percentage int) string {
	switch {
	case percentage >= 90:
		return "A1"
	case percentage >= 80:
		return "B2"
	case percentage >= 70:
		return "B3"
	case percentage >= 60:
		return "C4"
	case percentage >= 50:
		return "C6"
	default:
		return "F9"
	}
}

// ResultSummary aggregates the results recorded for a course.
type ResultSummary struct {
	CourseID string         `json:"courseId"`
	Attempts int            `json:"attempts"`
	Mean     float64        `json:"mean"`
	Median   float64        `json:"median"`
	Best     float64        `json:"best"`
	Grades   map[string]int `json:"grades"`
}

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser    Role = "user"
	RoleSupport Role = "support"
)

// Provenance tells authoritative server copies apart from locally inserted ones.
type Provenance int

const (
	ProvenanceAuthoritative Provenance = iota
	ProvenancePending
)

func (p Provenance) String() string {
	if p == ProvenancePending {
		return "pending"
	}
	return "authoritative"
}

// MarshalText renders the provenance as its name in JSON payloads.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names written by MarshalText.
func (p *Provenance) UnmarshalText(text []byte) error {
	switch string(text) {
	case "authoritative":
		*p = ProvenanceAuthoritative
	case "pending":
		*p = ProvenancePending
	default:
		return fmt.Errorf("unknown provenance %q", text)
	}
	return nil
}

// ChatMessage is one entry of a support conversation.
type ChatMessage struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Sender     Role       `json:"sender"`
	SentAt     time.Time  `json:"sentAt"`
	Provenance Provenance `json:"provenance"`
}

// Pending reports whether the message is an optimistic local copy.
func (m ChatMessage) Pending() bool {
	return m.Provenance == ProvenancePending
}

// ChatUpdate is pushed to conversation observers whenever the local list changes.
type ChatUpdate struct {
	Appended []ChatMessage `json:"appended,omitempty"`
	Replaced []ChatMessage `json:"replaced,omitempty"`
	Messages []ChatMessage `json:"messages"`
	Reloaded bool          `json:"reloaded,omitempty"`
}

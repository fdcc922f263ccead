package app

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"quiz-chat-service/internal/domain"
)

// Permuter yields a random permutation of [0, n). *rand.Rand satisfies it.
type Permuter interface {
	Perm(n int) []int
}

type globalPermuter struct{}

// Perm uses the package-level source, which is safe for concurrent use.
func (globalPermuter) Perm(n int) []int { return rand.Perm(n) }

// DefaultPermuter is the unseeded source used outside tests.
var DefaultPermuter Permuter = globalPermuter{}

// ParseCount validates a user-supplied question count.
func ParseCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidCount, raw)
	}
	return n, nil
}

// SelectSubset returns count distinct questions from pool in random order.
// The pool is never modified. Question ids must be unique within the pool.
func SelectSubset(pool []domain.Question, count int, perm Permuter) ([]domain.Question, error) {
	if count < 1 || count > len(pool) {
		return nil, fmt.Errorf("%w: %d (pool has %d)", domain.ErrInvalidCount, count, len(pool))
	}
	seen := make(map[string]struct{}, len(pool))
	for _, q := range pool {
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateQuestion, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	order := perm.Perm(len(pool))
	selected := make([]domain.Question, 0, count)
	for _, idx := range order[:count] {
		selected = append(selected, pool[idx])
	}
	return selected, nil
}

// ShuffleOptions drops blank options, permutes the rest, reletters them from A and
// remaps the answer key onto the new position of the originally correct option.
func ShuffleOptions(q domain.Question, perm Permuter) (domain.Question, error) {
	type candidate struct {
		letter string
		text   string
	}
	kept := make([]candidate, 0, len(q.Options))
	for _, opt := range q.Options {
		if strings.TrimSpace(opt.Text) == "" {
			continue
		}
		kept = append(kept, candidate{letter: opt.Letter, text: opt.Text})
	}
	if len(kept) > len(domain.Letters) {
		return domain.Question{}, fmt.Errorf("question %s: %w", q.ID, domain.ErrAnswerKeyMismatch)
	}

	out := q
	out.Options = make([]domain.Option, 0, len(kept))
	out.Answer = ""
	for i, idx := range perm.Perm(len(kept)) {
		c := kept[idx]
		letter := domain.Letters[i]
		out.Options = append(out.Options, domain.Option{Letter: letter, Text: c.text})
		if strings.EqualFold(c.letter, q.Answer) {
			out.Answer = letter
		}
	}
	if out.Answer == "" {
		return domain.Question{}, fmt.Errorf("question %s: %w", q.ID, domain.ErrAnswerKeyMismatch)
	}
	return out, nil
}

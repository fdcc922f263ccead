package postgres

import (
	"context"
	"fmt"

	"quiz-chat-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// PoolLoader loads a course's questions from Postgres.
type PoolLoader struct {
	pool *pgxpool.Pool
}

func NewPoolLoader(pool *pgxpool.Pool) *PoolLoader {
	return &PoolLoader{pool: pool}
}

const selectPoolSQL = `
	SELECT id, prompt, option_a, option_b, option_c, option_d, answer, explanation
	FROM questions
	WHERE course_id = $1
	ORDER BY position, id`

func (l *PoolLoader) LoadPool(ctx context.Context, courseID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, selectPoolSQL, courseID)
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q    domain.Question
			opts [domain.MaxOptions]string
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &opts[0], &opts[1], &opts[2], &opts[3], &q.Answer, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Options = optionsFromSlots(opts)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrCourseNotFound
	}
	return questions, nil
}

// optionsFromSlots keeps every slot, blank ones included; blanks are dropped at shuffle time.
func optionsFromSlots(slots [domain.MaxOptions]string) []domain.Option {
	opts := make([]domain.Option, 0, domain.MaxOptions)
	for i, text := range slots {
		opts = append(opts, domain.Option{Letter: domain.Letters[i], Text: text})
	}
	return opts
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"quiz-chat-service/internal/domain"

	"github.com/montanaflynn/stats"
)

// ResultLog keeps submitted quiz results per course in memory.
type ResultLog struct {
	mu      sync.RWMutex
	results map[string][]domain.QuizResult
}

func NewResultLog() *ResultLog {
	return &ResultLog{results: make(map[string][]domain.QuizResult)}
}

func (l *ResultLog) Record(_ context.Context, result domain.QuizResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[result.CourseID] = append(l.results[result.CourseID], result)
	return nil
}

func (l *ResultLog) Summary(_ context.Context, courseID string) (domain.ResultSummary, error) {
	l.mu.RLock()
	results := append([]domain.QuizResult(nil), l.results[courseID]...)
	l.mu.RUnlock()

	return Summarize(courseID, results)
}

// Summarize computes attempt statistics over a set of results.
func Summarize(courseID string, results []domain.QuizResult) (domain.ResultSummary, error) {
	summary := domain.ResultSummary{CourseID: courseID, Attempts: len(results), Grades: map[string]int{}}
	if len(results) == 0 {
		return summary, nil
	}

	data := make(stats.Float64Data, 0, len(results))
	for _, r := range results {
		data = append(data, float64(r.Percentage))
		summary.Grades[r.Grade]++
	}

	var err error
	if summary.Mean, err = data.Mean(); err != nil {
		return summary, fmt.Errorf("mean: %w", err)
	}
	if summary.Median, err = data.Median(); err != nil {
		return summary, fmt.Errorf("median: %w", err)
	}
	if summary.Best, err = data.Max(); err != nil {
		return summary, fmt.Errorf("max: %w", err)
	}
	summary.Mean, _ = stats.Round(summary.Mean, 2)
	return summary, nil
}

package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-chat-service/internal/app"
	"quiz-chat-service/internal/domain"
	"quiz-chat-service/internal/infra/memory"

	"github.com/stretchr/testify/require"
)

type identityPermuter struct{}

func (identityPermuter) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

type failingResultLog struct{}

func (failingResultLog) Record(context.Context, domain.QuizResult) error {
	return errors.New("disk full")
}

func (failingResultLog) Summary(_ context.Context, courseID string) (domain.ResultSummary, error) {
	return domain.ResultSummary{CourseID: courseID}, nil
}

func newTestService(results app.ResultLog) *app.QuizService {
	pools := memory.NewPoolRepository(memory.NewStaticPoolLoader(map[string][]domain.Question{
		"course-1": numberedPool(5),
	}), time.Minute)
	return app.NewQuizService(memory.NewSessionStore(time.Hour), pools, results, app.WithPermuter(identityPermuter{}))
}

func TestServiceStartAnswerSubmit(t *testing.T) {
	ctx := context.Background()
	results := memory.NewResultLog()
	service := newTestService(results)

	view, err := service.Start(ctx, "course-1", "3")
	require.NoError(t, err)
	require.Equal(t, 3, view.Total)
	require.Equal(t, "qa", view.Current.ID)

	for _, id := range []string{"qa", "qb", "qc"} {
		_, err := service.Answer(ctx, view.ID, id, "A")
		require.NoError(t, err)
	}
	result, err := service.Submit(ctx, view.ID)
	require.NoError(t, err)
	require.Equal(t, 3, result.Score)
	require.Equal(t, 100, result.Percentage)
	require.Equal(t, "A1", result.Grade)

	summary, err := service.Summary(ctx, "course-1")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Attempts)
	require.Equal(t, 1, summary.Grades["A1"])

	_, err = service.Submit(ctx, view.ID)
	require.ErrorIs(t, err, domain.ErrAlreadySubmitted)
}

func TestServiceStartRejectsCount(t *testing.T) {
	service := newTestService(memory.NewResultLog())
	for _, raw := range []string{"", "x", "0", "6"} {
		_, err := service.Start(context.Background(), "course-1", raw)
		require.ErrorIs(t, err, domain.ErrInvalidCount, "count %q", raw)
	}
	_, err := service.Start(context.Background(), "missing", "1")
	require.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestServiceSubmitSurvivesResultLogFailure(t *testing.T) {
	ctx := context.Background()
	service := newTestService(failingResultLog{})

	view, err := service.Start(ctx, "course-1", "1")
	require.NoError(t, err)
	result, err := service.Submit(ctx, view.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
}

func TestServiceEndForgetsSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(nil)

	view, err := service.Start(ctx, "course-1", "2")
	require.NoError(t, err)
	service.End(ctx, view.ID)

	_, err = service.View(ctx, view.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = service.Next(ctx, view.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

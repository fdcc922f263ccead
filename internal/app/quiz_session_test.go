package app_test

import (
	"testing"
	"time"

	"quiz-chat-service/internal/app"
	"quiz-chat-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }

func TestSessionAllCorrect(t *testing.T) {
	session := app.NewQuizSessionWithClock("s1", "course-1", numberedPool(3), fixedClock)
	for _, id := range []string{"qa", "qb", "qc"} {
		require.NoError(t, session.RecordAnswer(id, "a"))
	}

	result, err := session.Submit()
	require.NoError(t, err)
	require.Equal(t, 3, result.Score)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 0, result.Skipped)
	require.Equal(t, 100, result.Percentage)
	require.Equal(t, "A1", result.Grade)
	require.Equal(t, fixedClock(), result.SubmittedAt)
	require.Len(t, result.Review, 3)
}

func TestSessionPartialWithSkip(t *testing.T) {
	session := app.NewQuizSession("s1", "course-1", numberedPool(4))
	require.NoError(t, session.RecordAnswer("qa", "A"))
	require.NoError(t, session.RecordAnswer("qb", "A"))
	require.NoError(t, session.RecordAnswer("qc", "B"))

	result, err := session.Submit()
	require.NoError(t, err)
	require.Equal(t, 2, result.Score)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 50, result.Percentage)
	require.Equal(t, "C6", result.Grade)

	require.True(t, result.Review[3].Skipped)
	require.False(t, result.Review[2].Correct)
	require.Equal(t, "B", result.Review[2].Chosen)
}

func TestSessionRoundsPercentage(t *testing.T) {
	session := app.NewQuizSession("s1", "course-1", numberedPool(3))
	require.NoError(t, session.RecordAnswer("qa", "A"))
	require.NoError(t, session.RecordAnswer("qb", "A"))

	result, err := session.Submit()
	require.NoError(t, err)
	require.Equal(t, 67, result.Percentage)
	require.Equal(t, "C4", result.Grade)
}

func TestSessionAnswerValidation(t *testing.T) {
	session := app.NewQuizSession("s1", "course-1", numberedPool(2))

	require.ErrorIs(t, session.RecordAnswer("zz", "A"), domain.ErrUnknownQuestion)
	require.ErrorIs(t, session.RecordAnswer("qa", "D"), domain.ErrInvalidAnswer)

	require.NoError(t, session.RecordAnswer("qa", "B"))
	require.NoError(t, session.RecordAnswer("qa", "A"))
	require.Equal(t, "A", session.View().Answers["qa"])
}

func TestSessionSubmitTwice(t *testing.T) {
	session := app.NewQuizSession("s1", "course-1", numberedPool(1))
	_, err := session.Submit()
	require.NoError(t, err)

	_, err = session.Submit()
	require.ErrorIs(t, err, domain.ErrAlreadySubmitted)
	require.ErrorIs(t, session.RecordAnswer("qa", "A"), domain.ErrAlreadySubmitted)

	result, ok := session.Result()
	require.True(t, ok)
	require.Equal(t, 0, result.Score)
}

func TestSessionNavigationClamps(t *testing.T) {
	session := app.NewQuizSession("s1", "course-1", numberedPool(2))

	session.Previous()
	require.Equal(t, 0, session.View().Position)

	session.Next()
	session.Next()
	view := session.View()
	require.Equal(t, 1, view.Position)
	require.Equal(t, "qb", view.Current.ID)

	session.Previous()
	require.Equal(t, 0, session.View().Position)
}

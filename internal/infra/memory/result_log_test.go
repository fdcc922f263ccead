package memory

import (
	"context"
	"testing"

	"quiz-chat-service/internal/domain"
)

func TestResultLogSummary(t *testing.T) {
	ctx := context.Background()
	log := NewResultLog()

	for _, pct := range []int{100, 50, 75} {
		if err := log.Record(ctx, domain.QuizResult{CourseID: "course-1", Percentage: pct, Grade: domain.GradeFor(pct)}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	_ = log.Record(ctx, domain.QuizResult{CourseID: "course-2", Percentage: 10, Grade: "F9"})

	summary, err := log.Summary(ctx, "course-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Attempts != 3 || summary.Mean != 75 || summary.Median != 75 || summary.Best != 100 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Grades["A1"] != 1 || summary.Grades["B3"] != 1 || summary.Grades["C6"] != 1 {
		t.Fatalf("unexpected grade distribution %+v", summary.Grades)
	}
}

func TestResultLogEmptySummary(t *testing.T) {
	summary, err := NewResultLog().Summary(context.Background(), "course-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Attempts != 0 || summary.Grades == nil {
		t.Fatalf("unexpected empty summary %+v", summary)
	}
}

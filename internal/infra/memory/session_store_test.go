package memory

import (
	"testing"
	"time"

	"quiz-chat-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(time.Minute)

	store.Save(app.NewQuizSession("s1", "course-1", samplePool()))
	session, ok := store.Get("s1")
	if !ok || session.CourseID() != "course-1" {
		t.Fatalf("expected session present, got ok=%v", ok)
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreEvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Minute)
	store.clock = func() time.Time { return now }

	store.Save(app.NewQuizSession("active", "course-1", samplePool()))
	store.Save(app.NewQuizSession("abandoned", "course-1", samplePool()))

	now = now.Add(40 * time.Second)
	if _, ok := store.Get("active"); !ok {
		t.Fatalf("expected active session present")
	}

	now = now.Add(40 * time.Second)
	if _, ok := store.Get("active"); !ok {
		t.Fatalf("expected access to extend the session")
	}
	if _, ok := store.Get("abandoned"); ok {
		t.Fatalf("expected idle session evicted")
	}

	// Saving sweeps sessions nobody asks for again.
	now = now.Add(2 * time.Minute)
	store.Save(app.NewQuizSession("fresh", "course-1", samplePool()))
	if got := store.Len(); got != 1 {
		t.Fatalf("expected only the fresh session kept, got %d", got)
	}
}

package redis

import (
	"context"
	"testing"

	"quiz-chat-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestMessageStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewMessageStore(newClient(mr))

	if err := store.SendMessage(ctx, "u1", "my quiz will not load"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := store.Post(ctx, "u1", domain.RoleSupport, "which course?"); err != nil {
		t.Fatalf("post: %v", err)
	}

	msgs, err := store.FetchMessages(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "1" || msgs[0].Sender != domain.RoleUser || msgs[1].ID != "2" || msgs[1].Sender != domain.RoleSupport {
		t.Fatalf("unexpected history %+v", msgs)
	}

	other, err := store.FetchMessages(ctx, "u2")
	if err != nil || len(other) != 0 {
		t.Fatalf("expected empty history for other user, got %v %v", other, err)
	}
}

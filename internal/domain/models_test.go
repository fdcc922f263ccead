package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestChatMessageJSONRoundTrip(t *testing.T) {
	sent := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	in := []ChatMessage{
		{ID: "m1", Text: "welcome", Sender: RoleSupport, SentAt: sent},
		{ID: "tmp-1", Text: "hi", Sender: RoleUser, SentAt: sent, Provenance: ProvenancePending},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []ChatMessage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d messages, got %d", len(in), len(out))
	}
	for i := range in {
		got, want := out[i], in[i]
		if got.ID != want.ID || got.Text != want.Text || got.Sender != want.Sender || !got.SentAt.Equal(want.SentAt) {
			t.Fatalf("message %d mismatch: got %+v want %+v", i, got, want)
		}
	}
	if out[0].Pending() || !out[1].Pending() {
		t.Fatalf("expected provenance preserved, got %v and %v", out[0].Provenance, out[1].Provenance)
	}
}

func TestProvenanceRejectsUnknownName(t *testing.T) {
	var msg ChatMessage
	err := json.Unmarshal([]byte(`{"id":"m1","provenance":"guessed"}`), &msg)
	if err == nil {
		t.Fatalf("expected error for unknown provenance")
	}
}

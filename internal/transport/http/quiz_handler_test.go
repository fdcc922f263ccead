package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-chat-service/internal/app"
	"quiz-chat-service/internal/domain"
	"quiz-chat-service/internal/infra/memory"

	"go.uber.org/zap"
)

type identityPermuter struct{}

func (identityPermuter) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func newQuizServer(t *testing.T) *httptest.Server {
	t.Helper()
	pools := memory.NewPoolRepository(memory.NewStaticPoolLoader(samplePools()), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(time.Hour), pools, memory.NewResultLog(), app.WithPermuter(identityPermuter{}))
	chat := app.NewChatService(memory.NewMessageBoard(), app.ChatConfig{}, zap.NewNop())
	server := httptest.NewServer(NewRouter(NewQuizHandler(service, zap.NewNop()), NewChatHandler(chat, zap.NewNop())))
	t.Cleanup(server.Close)
	return server
}

func TestQuizRESTFlow(t *testing.T) {
	server := newQuizServer(t)

	var view app.SessionView
	status := doJSON(t, http.MethodPost, server.URL+"/api/courses/course-1/sessions", map[string]any{"count": "2"}, &view)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if view.Total != 2 || view.Current.ID != "q1" || len(view.Current.Options) != 3 {
		t.Fatalf("unexpected session view %+v", view)
	}

	base := server.URL + "/api/sessions/" + view.ID
	if status := doJSON(t, http.MethodPut, base+"/answers/q1", map[string]any{"letter": "b"}, &view); status != http.StatusOK {
		t.Fatalf("expected 200 on answer, got %d", status)
	}
	if view.Answers["q1"] != "B" {
		t.Fatalf("expected answer recorded, got %+v", view.Answers)
	}
	if status := doJSON(t, http.MethodPost, base+"/next", nil, &view); status != http.StatusOK || view.Position != 1 {
		t.Fatalf("expected to move to position 1, got %d (%d)", view.Position, status)
	}
	if status := doJSON(t, http.MethodPost, base+"/next", nil, &view); status != http.StatusOK || view.Position != 1 {
		t.Fatalf("expected next on last question to be a no-op, got %d", view.Position)
	}

	var result domain.QuizResult
	if status := doJSON(t, http.MethodPost, base+"/submit", nil, &result); status != http.StatusOK {
		t.Fatalf("expected 200 on submit, got %d", status)
	}
	if result.Score != 1 || result.Skipped != 1 || result.Percentage != 50 || result.Grade != "C6" {
		t.Fatalf("unexpected result %+v", result)
	}
	if status := doJSON(t, http.MethodPost, base+"/submit", nil, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 on second submit, got %d", status)
	}

	var summary domain.ResultSummary
	if status := doJSON(t, http.MethodGet, server.URL+"/api/courses/course-1/results/summary", nil, &summary); status != http.StatusOK {
		t.Fatalf("expected 200 on summary, got %d", status)
	}
	if summary.Attempts != 1 || summary.Best != 50 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if status := doJSON(t, http.MethodDelete, base, nil, nil); status != http.StatusNoContent {
		t.Fatalf("expected 204 on end, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, base, nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 after end, got %d", status)
	}
}

func TestQuizRESTValidation(t *testing.T) {
	server := newQuizServer(t)

	cases := []struct {
		name   string
		count  any
		course string
		want   int
	}{
		{name: "not an integer", count: "three", course: "course-1", want: http.StatusBadRequest},
		{name: "zero", count: 0, course: "course-1", want: http.StatusBadRequest},
		{name: "exceeds pool", count: "5", course: "course-1", want: http.StatusBadRequest},
		{name: "unknown course", count: "1", course: "nope", want: http.StatusNotFound},
		{name: "broken answer key", count: "1", course: "broken", want: http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := doJSON(t, http.MethodPost, server.URL+"/api/courses/"+tc.course+"/sessions", map[string]any{"count": tc.count}, nil)
			if status != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, status)
			}
		})
	}
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func samplePools() map[string][]domain.Question {
	return map[string][]domain.Question{
		"course-1": {
			{
				ID:     "q1",
				Prompt: "What is 2 + 2?",
				Options: []domain.Option{
					{Letter: "A", Text: "3"},
					{Letter: "B", Text: "4"},
					{Letter: "C", Text: "5"},
					{Letter: "D", Text: ""},
				},
				Answer: "B",
			},
			{
				ID:     "q2",
				Prompt: "Capital of France?",
				Options: []domain.Option{
					{Letter: "A", Text: "Paris"},
					{Letter: "B", Text: "Lyon"},
				},
				Answer: "A",
			},
		},
		"broken": {
			{
				ID:      "q1",
				Prompt:  "Key points at a blank slot",
				Options: []domain.Option{{Letter: "A", Text: "one"}, {Letter: "B", Text: ""}},
				Answer:  "B",
			},
		},
	}
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the quiz REST API, the chat websocket and the health probe.
func NewRouter(quiz *QuizHandler, chat *ChatHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/courses/{courseID}/sessions", quiz.Start)
		r.Get("/courses/{courseID}/results/summary", quiz.Summary)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", quiz.View)
			r.Delete("/", quiz.End)
			r.Put("/answers/{questionID}", quiz.Answer)
			r.Post("/next", quiz.Next)
			r.Post("/previous", quiz.Previous)
			r.Post("/submit", quiz.Submit)
		})
	})
	r.Get("/ws/chat", chat.ServeWS)
	return r
}

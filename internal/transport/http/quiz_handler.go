package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quiz-chat-service/internal/app"
	"quiz-chat-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QuizHandler exposes the quiz use cases over JSON.
type QuizHandler struct {
	service *app.QuizService
	logger  *zap.Logger
}

func NewQuizHandler(service *app.QuizService, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{service: service, logger: logger}
}

type startRequest struct {
	// Count is a string because it comes straight from a text field.
	Count json.RawMessage `json:"count"`
}

type answerRequest struct {
	Letter string `json:"letter"`
}

type errorPayload struct {
	Message string `json:"message"`
	Draft   string `json:"draft,omitempty"`
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return
	}
	view, err := h.service.Start(r.Context(), chi.URLParam(r, "courseID"), rawCount(req.Count))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *QuizHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return
	}
	view, err := h.service.Answer(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "questionID"), req.Letter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Next(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Previous(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Previous(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *QuizHandler) End(w http.ResponseWriter, r *http.Request) {
	h.service.End(r.Context(), chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuizHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *QuizHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("quiz request failed", zap.Error(err))
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCount),
		errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAnswerKeyMismatch),
		errors.Is(err, domain.ErrDuplicateQuestion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUnknownQuestion),
		errors.Is(err, domain.ErrCourseNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadySubmitted):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// rawCount accepts both "3" and 3.
func rawCount(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

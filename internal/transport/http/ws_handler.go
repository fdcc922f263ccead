package http

import (
	"encoding/json"
	"net/http"

	"quiz-chat-service/internal/app"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ChatHandler serves one support conversation per websocket connection.
type ChatHandler struct {
	service  *app.ChatService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewChatHandler(service *app.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type sendPayload struct {
	Text string `json:"text"`
}

type typingPayload struct {
	Active bool `json:"active"`
}

type draftPayload struct {
	Text string `json:"text"`
}

type sentPayload struct {
	HighWaterMark string `json:"highWaterMark"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a conversation.
func (h *ChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conv, err := h.service.Open(r.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer conv.Close()

	updates, cancel := conv.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "update", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "history", Payload: conv.Messages()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "send":
			var payload sendPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid send payload"}}
				continue
			}
			if err := conv.Send(r.Context(), payload.Text); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Draft: conv.Draft()}}
				continue
			}
			send <- outboundMessage[any]{Type: "sent", Payload: sentPayload{HighWaterMark: conv.HighWaterMark()}}
		case "typing":
			var payload typingPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid typing payload"}}
				continue
			}
			conv.SetComposing(payload.Active)
		case "draft":
			var payload draftPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid draft payload"}}
				continue
			}
			conv.SetDraft(payload.Text)
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

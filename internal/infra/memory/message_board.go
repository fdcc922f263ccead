package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"quiz-chat-service/internal/domain"
)

// MessageBoard is an in-process app.MessageGateway. It stands in for the support
// backend in demos and tests.
type MessageBoard struct {
	clock func() time.Time

	mu       sync.Mutex
	nextID   int
	messages map[string][]domain.ChatMessage
}

func NewMessageBoard() *MessageBoard {
	return &MessageBoard{
		clock:    time.Now,
		messages: make(map[string][]domain.ChatMessage),
	}
}

func (b *MessageBoard) FetchMessages(_ context.Context, userID string) ([]domain.ChatMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ChatMessage(nil), b.messages[userID]...), nil
}

func (b *MessageBoard) SendMessage(_ context.Context, userID, text string) error {
	b.Post(userID, domain.RoleUser, text)
	return nil
}

// Post appends a message authored by role, e.g. a support agent's reply.
func (b *MessageBoard) Post(userID string, role domain.Role, text string) domain.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	msg := domain.ChatMessage{
		ID:     strconv.Itoa(b.nextID),
		Text:   text,
		Sender: role,
		SentAt: b.clock(),
	}
	b.messages[userID] = append(b.messages[userID], msg)
	return msg
}

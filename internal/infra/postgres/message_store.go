package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"quiz-chat-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// MessageStore reads and writes support conversations in the chat_messages table.
type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) FetchMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, body, sender, created_at FROM chat_messages WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var (
			id     int64
			msg    domain.ChatMessage
			sender string
			sentAt time.Time
		)
		if err := rows.Scan(&id, &msg.Text, &sender, &sentAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ID = strconv.FormatInt(id, 10)
		msg.Sender = domain.Role(sender)
		msg.SentAt = sentAt
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func (s *MessageStore) SendMessage(ctx context.Context, userID, text string) error {
	_, err := s.Post(ctx, userID, domain.RoleUser, text)
	return err
}

// Post inserts a message authored by role and returns it with its assigned id.
func (s *MessageStore) Post(ctx context.Context, userID string, role domain.Role, text string) (domain.ChatMessage, error) {
	var (
		id     int64
		sentAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (user_id, sender, body) VALUES ($1, $2, $3) RETURNING id, created_at`,
		userID, string(role), text,
	).Scan(&id, &sentAt)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("insert message: %w", err)
	}
	return domain.ChatMessage{
		ID:     strconv.FormatInt(id, 10),
		Text:   text,
		Sender: role,
		SentAt: sentAt,
	}, nil
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"quiz-chat-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// MessageStore keeps support conversations in Redis lists, one per user:
//
//	INCR  chat:{userID}:seq
//	RPUSH chat:{userID}:messages <json>
type MessageStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewMessageStore(client *redis.Client) *MessageStore {
	return &MessageStore{client: client, clock: time.Now}
}

type storedMessage struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Sender string    `json:"sender"`
	SentAt time.Time `json:"sentAt"`
}

func (s *MessageStore) FetchMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, s.listKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange messages: %w", err)
	}
	msgs := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var stored storedMessage
		if err := json.Unmarshal([]byte(item), &stored); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		msgs = append(msgs, domain.ChatMessage{
			ID:     stored.ID,
			Text:   stored.Text,
			Sender: domain.Role(stored.Sender),
			SentAt: stored.SentAt,
		})
	}
	return msgs, nil
}

func (s *MessageStore) SendMessage(ctx context.Context, userID, text string) error {
	_, err := s.Post(ctx, userID, domain.RoleUser, text)
	return err
}

// Post appends a message authored by role and returns it with its assigned id.
func (s *MessageStore) Post(ctx context.Context, userID string, role domain.Role, text string) (domain.ChatMessage, error) {
	seq, err := s.client.Incr(ctx, s.seqKey(userID)).Result()
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("incr message seq: %w", err)
	}
	msg := domain.ChatMessage{
		ID:     strconv.FormatInt(seq, 10),
		Text:   text,
		Sender: role,
		SentAt: s.clock().UTC(),
	}
	data, err := json.Marshal(storedMessage{ID: msg.ID, Text: msg.Text, Sender: string(msg.Sender), SentAt: msg.SentAt})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, s.listKey(userID), data).Err(); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("rpush message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) listKey(userID string) string {
	return "chat:" + userID + ":messages"
}

func (s *MessageStore) seqKey(userID string) string {
	return "chat:" + userID + ":seq"
}

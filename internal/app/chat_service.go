package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ChatConfig tunes the background behaviour of opened conversations.
type ChatConfig struct {
	PollInterval time.Duration
	ResyncDelay  time.Duration
	FetchTimeout time.Duration
}

const defaultPollInterval = 3 * time.Second

// ChatService opens conversation views and keeps them in sync with the gateway.
type ChatService struct {
	gateway MessageGateway
	cfg     ChatConfig
	logger  *zap.Logger
}

func NewChatService(gateway MessageGateway, cfg ChatConfig, logger *zap.Logger) *ChatService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{gateway: gateway, cfg: cfg, logger: logger}
}

// Open loads the user's history and starts polling. The caller owns the returned
// conversation and must Close it when the view goes away.
func (s *ChatService) Open(ctx context.Context, userID string) (*Conversation, error) {
	conv := NewConversation(userID, s.gateway, ConversationConfig{
		FetchTimeout: s.cfg.FetchTimeout,
		ResyncDelay:  s.cfg.ResyncDelay,
	})
	if err := conv.LoadFull(ctx); err != nil {
		conv.Close()
		return nil, err
	}
	go s.poll(conv)
	return conv, nil
}

func (s *ChatService) poll(conv *Conversation) {
	// Background failures stay invisible; the next tick retries.
	conv.Run(context.Background(), s.cfg.PollInterval, func(err error) {
		s.logger.Debug("chat poll failed", zap.String("user_id", conv.UserID()), zap.Error(err))
	})
}

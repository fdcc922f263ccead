package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-chat-service/internal/app"
	"quiz-chat-service/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenGateway struct{}

func (brokenGateway) FetchMessages(context.Context, string) ([]domain.ChatMessage, error) {
	return nil, errors.New("upstream unavailable")
}

func (brokenGateway) SendMessage(context.Context, string, string) error {
	return errors.New("upstream unavailable")
}

func TestChatServicePollsForReplies(t *testing.T) {
	gateway := &fakeGateway{}
	gateway.post(domain.RoleSupport, "welcome")
	service := app.NewChatService(gateway, app.ChatConfig{PollInterval: 5 * time.Millisecond}, zap.NewNop())

	conv, err := service.Open(context.Background(), "u1")
	require.NoError(t, err)
	defer conv.Close()
	require.Len(t, conv.Messages(), 1)

	gateway.post(domain.RoleSupport, "still there?")
	require.Eventually(t, func() bool { return len(conv.Messages()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestChatServiceOpenFailsOnUnreachableGateway(t *testing.T) {
	service := app.NewChatService(brokenGateway{}, app.ChatConfig{}, nil)
	_, err := service.Open(context.Background(), "u1")
	require.Error(t, err)
}

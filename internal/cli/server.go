package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quiz-chat-service/internal/app"
	"quiz-chat-service/internal/config"
	"quiz-chat-service/internal/domain"
	"quiz-chat-service/internal/infra/memory"
	"quiz-chat-service/internal/infra/postgres"
	infraredis "quiz-chat-service/internal/infra/redis"
	"quiz-chat-service/internal/infra/remote"
	"quiz-chat-service/internal/logger"
	transport "quiz-chat-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz and chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	deps, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     deps.handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: chat websockets stay open.
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting quiz-chat service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type dependencies struct {
	handler http.Handler
	closers []func()
}

func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// wire picks a backend per concern: the legacy API wins over Postgres, Postgres over
// Redis, and the in-process stores are the fallback for local runs.
func wire(ctx context.Context, cfg config.Config, log *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.closers = append(deps.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.closers = append(deps.closers, pool.Close)
	}

	var client *remote.Client
	if cfg.Remote.BaseURL != "" {
		client = remote.NewClient(cfg.Remote.BaseURL, config.TTLDuration(cfg.Remote.Timeout, app.DefaultFetchTimeout))
	}

	var loader memory.PoolLoader = memory.NewStaticPoolLoader(samplePools())
	switch {
	case client != nil:
		loader = client
	case pool != nil:
		loader = postgres.NewPoolLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var pools app.PoolRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		pools = infraredis.NewPoolRepository(redisClient, loader, quizTTL)
		sessions = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		pools = memory.NewPoolRepository(loader, quizTTL)
		sessions = memory.NewSessionStore(redisTTL)
	}

	var gateway app.MessageGateway
	switch {
	case client != nil:
		gateway = client
	case pool != nil:
		gateway = postgres.NewMessageStore(pool)
	case redisClient != nil:
		gateway = infraredis.NewMessageStore(redisClient)
	default:
		board := memory.NewMessageBoard()
		board.Post("demo", domain.RoleSupport, "Hi! Ask us anything about your course.")
		gateway = board
	}
	log.Info("backends selected",
		zap.Bool("remote", client != nil),
		zap.Bool("postgres", pool != nil),
		zap.Bool("redis", redisClient != nil))

	quiz := app.NewQuizService(sessions, pools, memory.NewResultLog(),
		app.WithLogger(log),
		app.WithFetchTimeout(config.TTLDuration(cfg.Chat.FetchTimeout, app.DefaultFetchTimeout)))
	chat := app.NewChatService(gateway, app.ChatConfig{
		PollInterval: config.TTLDuration(cfg.Chat.PollInterval, 3*time.Second),
		ResyncDelay:  config.TTLDuration(cfg.Chat.ResyncDelay, time.Second),
		FetchTimeout: config.TTLDuration(cfg.Chat.FetchTimeout, app.DefaultFetchTimeout),
	}, log)

	deps.handler = transport.NewRouter(
		transport.NewQuizHandler(quiz, log),
		transport.NewChatHandler(chat, log),
	)
	return deps, nil
}

// samplePools provides a minimal course for local runs without a database.
func samplePools() map[string][]domain.Question {
	return map[string][]domain.Question{
		"demo": {
			{
				ID:     "q1",
				Prompt: "What is 2 + 2?",
				Options: []domain.Option{
					{Letter: "A", Text: "3"},
					{Letter: "B", Text: "4"},
					{Letter: "C", Text: "5"},
					{Letter: "D", Text: ""},
				},
				Answer:      "B",
				Explanation: "Two pairs make four.",
			},
			{
				ID:     "q2",
				Prompt: "Which planet is closest to the sun?",
				Options: []domain.Option{
					{Letter: "A", Text: "Venus"},
					{Letter: "B", Text: "Earth"},
					{Letter: "C", Text: "Mercury"},
					{Letter: "D", Text: "Mars"},
				},
				Answer: "C",
			},
			{
				ID:     "q3",
				Prompt: "How many sides does a hexagon have?",
				Options: []domain.Option{
					{Letter: "A", Text: "5"},
					{Letter: "B", Text: "6"},
					{Letter: "C", Text: "8"},
				},
				Answer: "B",
			},
		},
	}
}

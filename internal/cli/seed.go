package cli

import (
	"context"

	"quiz-chat-service/internal/config"
	"quiz-chat-service/internal/infra/postgres"
	"quiz-chat-service/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads question pools from a YAML file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert course questions from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Env)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runSeed(cmd.Context(), cfg, file, log)
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/questions.yaml", "seed file with courses and questions")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, file string, log *zap.Logger) error {
	seed, err := postgres.LoadSeedFile(file)
	if err != nil {
		return err
	}
	// Every malformed question is reported before anything is written.
	pools, err := seed.Pools()
	if err != nil {
		return err
	}

	if err := runMigrations(ctx, cfg, log); err != nil {
		return err
	}
	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := postgres.NewSeeder(db).Seed(ctx, pools)
	if err != nil {
		return err
	}
	log.Info("questions seeded", zap.Int("questions", n), zap.Int("courses", len(pools)))
	return nil
}

package cli

import (
	"context"

	"github.com/spf13/cobra"
	"heritage-quiz-service/internal/config"
	"heritage-quiz-service/internal/infra/postgres"
	"heritage-quiz-service/internal/logger"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level)
	applied, err := postgres.Migrate(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		log.Info().Msg("database is up to date")
		return nil
	}
	log.Info().Strs("migrations", applied).Msg("migrations applied")
	return nil
}

package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"heritage-quiz-service/internal/app"
	"heritage-quiz-service/internal/config"
	"heritage-quiz-service/internal/logger"
)

// NewResetWeeklyCmd runs the weekly rollover once, outside the schedule.
func NewResetWeeklyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-weekly",
		Short: "Snapshot and reset weekly scores and mark last week's winners",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("reset-weekly requires postgres.url")
			}
			log := logger.New(cfg.Log.Level)
			st, err := openStores(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			rollover := app.NewRolloverService(st.users, st.locker,
				config.TTLDuration(cfg.Rollover.LockTTL, app.DefaultRolloverLockTTL), log)
			_, err = rollover.Run(cmd.Context())
			return err
		},
	}
}

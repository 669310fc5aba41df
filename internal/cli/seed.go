package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"heritage-quiz-service/internal/config"
	"heritage-quiz-service/internal/logger"
	"heritage-quiz-service/internal/seed"
)

// NewSeedCmd imports heritage records, themes and users into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import heritage records, quiz themes and users from a YAML/JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("seed requires postgres.url; demo mode loads seed.file on start")
			}
			if file == "" {
				file = cfg.Seed.File
			}
			if file == "" {
				return errors.New("no seed file given")
			}
			log := logger.New(cfg.Log.Level)

			data, err := seed.Load(file)
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			summary, err := seed.Apply(cmd.Context(), data, st.writers)
			if err != nil {
				return err
			}
			log.Info().
				Str("file", file).
				Int("themes", summary.Themes).
				Int("users", summary.Users).
				Int("heritages", summary.Heritages).
				Msg("seed applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed file (defaults to seed.file from config)")
	return cmd
}

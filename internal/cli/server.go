package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"heritage-quiz-service/internal/app"
	"heritage-quiz-service/internal/config"
	"heritage-quiz-service/internal/infra/areas"
	"heritage-quiz-service/internal/logger"
	"heritage-quiz-service/internal/scheduler"
	"heritage-quiz-service/internal/seed"
	transport "heritage-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level)

	quizLoc, err := time.LoadLocation(cfg.Quiz.Timezone)
	if err != nil {
		return fmt.Errorf("quiz timezone: %w", err)
	}
	partial, err := app.ParsePartialPolicy(cfg.Quiz.PartialPolicy)
	if err != nil {
		return err
	}
	auth, err := transport.NewAuthenticator(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if !st.persistent && cfg.Seed.File != "" {
		data, err := seed.Load(cfg.Seed.File)
		if err != nil {
			return err
		}
		summary, err := seed.Apply(ctx, data, st.writers)
		if err != nil {
			return err
		}
		log.Info().
			Str("file", cfg.Seed.File).
			Int("themes", summary.Themes).
			Int("users", summary.Users).
			Int("heritages", summary.Heritages).
			Msg("demo data loaded")
	}

	areaTimeout := config.TTLDuration(cfg.Areas.Timeout, app.DefaultAreaTimeout)
	resolver := app.NewAreaResolver(
		areas.NewClient(cfg.Areas.ProvincesURL, cfg.Areas.WardsURL, areaTimeout),
		st.areaCache,
		config.TTLDuration(cfg.Areas.TTL, app.DefaultAreaTTL),
		areaTimeout,
		log,
	)

	warmCtx, cancelWarm := context.WithTimeout(ctx, areaTimeout)
	if _, err := resolver.Refresh(warmCtx); err != nil {
		log.Warn().Err(err).Msg("area cache not warmed, province quizzes will retry on demand")
	}
	cancelWarm()

	quiz := app.NewQuizService(st.quizRepositories(), resolver, log,
		app.WithLocation(quizLoc),
		app.WithPartialPolicy(partial),
	)
	rollover := app.NewRolloverService(st.users, st.locker,
		config.TTLDuration(cfg.Rollover.LockTTL, app.DefaultRolloverLockTTL), log)

	var sched *scheduler.Scheduler
	if cfg.RolloverEnabled() {
		loc, err := time.LoadLocation(cfg.Rollover.Timezone)
		if err != nil {
			return fmt.Errorf("rollover timezone: %w", err)
		}
		sched, err = scheduler.New(cfg.Rollover.Schedule, loc, rollover, log)
		if err != nil {
			return err
		}
		sched.Start()
	}

	handler := transport.NewHandler(transport.Services{
		Quiz:        quiz,
		Themes:      app.NewThemeService(st.themes),
		Leaderboard: app.NewLeaderboardService(st.users),
		History:     app.NewHistoryService(st.attempts),
		Rollover:    rollover,
	}, auth, log)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting heritage quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	return server.Shutdown(shutdownCtx)
}

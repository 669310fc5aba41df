package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"heritage-quiz-service/internal/app"
	"heritage-quiz-service/internal/config"
	"heritage-quiz-service/internal/infra/memory"
	"heritage-quiz-service/internal/infra/postgres"
	infraredis "heritage-quiz-service/internal/infra/redis"
	"heritage-quiz-service/internal/seed"
)

// stores bundles the adapters chosen from config: Postgres or memory for
// data, Redis or memory for the area cache and rollover lock.
type stores struct {
	themes    app.ThemeRepository
	heritages app.HeritageRepository
	attempts  app.AttemptRepository
	users     app.UserRepository
	areaCache app.AreaCache
	locker    app.Locker
	writers   seed.Writers

	persistent bool
	closers    []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *stores) quizRepositories() app.QuizRepositories {
	return app.QuizRepositories{Themes: s.themes, Heritages: s.heritages, Attempts: s.attempts, Users: s.users}
}

func openStores(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Postgres.URL != "" {
		applied, err := postgres.Migrate(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		if len(applied) > 0 {
			logger.Info().Strs("migrations", applied).Msg("migrations applied")
		}
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		heritages := postgres.NewHeritageRepository(pool)
		themes := postgres.NewThemeRepository(pool)
		users := postgres.NewUserRepository(pool)
		s.heritages, s.themes, s.users = heritages, themes, users
		s.attempts = postgres.NewAttemptRepository(pool)
		s.writers = seed.Writers{Heritages: heritages, Themes: themes, Users: users}
		s.persistent = true
	} else {
		logger.Warn().Msg("postgres url not configured, using in-memory stores")
		heritages := memory.NewHeritageRepository(nil)
		themes := memory.NewThemeRepository()
		users := memory.NewUserRepository()
		s.heritages, s.themes, s.users = heritages, themes, users
		s.attempts = memory.NewAttemptRepository()
		s.writers = seed.Writers{Heritages: heritages, Themes: themes, Users: users}
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			s.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.areaCache = infraredis.NewAreaCache(client)
		s.locker = infraredis.NewLocker(client)
	} else {
		s.areaCache = memory.NewAreaCache()
		s.locker = memory.NewLocker()
	}
	return s, nil
}

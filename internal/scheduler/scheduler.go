package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"heritage-quiz-service/internal/domain"
)

// RolloverRunner is satisfied by app.RolloverService.
type RolloverRunner interface {
	Run(ctx context.Context) (domain.RolloverResult, error)
}

// Scheduler triggers the weekly rollover on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	runner  RolloverRunner
	logger  zerolog.Logger
	timeout time.Duration
}

// New parses spec (standard five-field cron) in loc.
func New(spec string, loc *time.Location, runner RolloverRunner, logger zerolog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		runner:  runner,
		logger:  logger,
		timeout: 5 * time.Minute,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid rollover schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info().Time("next_run", e.Next).Msg("weekly rollover scheduled")
	}
}

// Stop waits for a running rollover to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stopped before rollover finished")
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled weekly rollover failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

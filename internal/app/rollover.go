package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"heritage-quiz-service/internal/domain"
)

const (
	RolloverLockKey        = "rollover:weekly"
	DefaultRolloverLockTTL = 10 * time.Minute
)

// RolloverService snapshots and resets weekly scores and marks last week's
// winners.
type RolloverService struct {
	users   UserRepository
	locker  Locker
	lockTTL time.Duration
	logger  zerolog.Logger
}

func NewRolloverService(users UserRepository, locker Locker, lockTTL time.Duration, logger zerolog.Logger) *RolloverService {
	if lockTTL <= 0 {
		lockTTL = DefaultRolloverLockTTL
	}
	return &RolloverService{users: users, locker: locker, lockTTL: lockTTL, logger: logger}
}

// Run performs one rollover. A failure after the snapshot leaves the reset in
// place; the next run recomputes winners from the stored snapshot.
func (s *RolloverService) Run(ctx context.Context) (domain.RolloverResult, error) {
	unlock, ok, err := s.locker.TryLock(ctx, RolloverLockKey, s.lockTTL)
	if err != nil {
		return domain.RolloverResult{}, fmt.Errorf("acquire rollover lock: %w", err)
	}
	if !ok {
		return domain.RolloverResult{}, domain.ErrRolloverInProgress
	}
	defer unlock()

	s.logger.Info().Msg("weekly rollover started")

	reset, err := s.users.SnapshotWeekly(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("weekly snapshot failed")
		return domain.RolloverResult{}, fmt.Errorf("snapshot weekly scores: %w", err)
	}

	score, winners, err := s.users.AwardWeeklyWinners(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int64("users_reset", reset).Msg("weekly winner assignment failed")
		return domain.RolloverResult{UsersReset: reset}, fmt.Errorf("award weekly winners: %w", err)
	}

	result := domain.RolloverResult{UsersReset: reset, WinningScore: score, Winners: winners}
	if len(winners) == 0 {
		s.logger.Info().Int64("users_reset", reset).Msg("weekly rollover finished, nobody scored last week")
		return result, nil
	}
	s.logger.Info().
		Int64("users_reset", reset).
		Int("winning_score", score).
		Strs("winners", winners).
		Msg("weekly rollover finished")
	return result, nil
}

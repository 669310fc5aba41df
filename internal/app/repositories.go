package app

import (
	"context"
	"time"

	"heritage-quiz-service/internal/domain"
)

// HeritageRepository reads heritage content for quiz generation.
type HeritageRepository interface {
	// Sample returns up to size records matching filter, drawn uniformly at
	// random without replacement.
	Sample(ctx context.Context, filter domain.CandidateFilter, size int) ([]domain.HeritageRecord, error)
	// WardCodes maps each known hid to its ward codename.
	WardCodes(ctx context.Context, hids []string) (map[string]string, error)
}

// ThemeRepository stores quiz themes. Get, Update and Delete return
// domain.ErrThemeNotFound for unknown ids.
type ThemeRepository interface {
	List(ctx context.Context) ([]domain.QuizTheme, error)
	Get(ctx context.Context, id string) (domain.QuizTheme, error)
	Create(ctx context.Context, theme domain.QuizTheme) error
	Update(ctx context.Context, theme domain.QuizTheme) error
	Delete(ctx context.Context, id string) error
}

// AttemptRepository is the append-only attempt history.
type AttemptRepository interface {
	Create(ctx context.Context, attempt domain.QuizAttempt) error
	ListByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error)
	Get(ctx context.Context, userID, attemptID string) (domain.QuizAttempt, error)
}

// UserRepository owns the per-user aggregate. Every mutating method must be
// atomic per user row.
type UserRepository interface {
	Get(ctx context.Context, id string) (domain.UserAggregate, error)
	ApplyQuizResult(ctx context.Context, id string, delta domain.QuizResultDelta) (domain.UserAggregate, error)
	// SnapshotWeekly copies weekly score into last weekly score (clamped at 0),
	// zeroes the weekly score and clears the last-week rank for every user.
	SnapshotWeekly(ctx context.Context) (int64, error)
	// AwardWeeklyWinners marks every user holding the top positive last weekly
	// score. It returns the winning score and winner ids (0, nil when nobody scored).
	AwardWeeklyWinners(ctx context.Context) (int, []string, error)
	Leaderboard(ctx context.Context, q domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error)
}

// AreaProvider resolves the ward -> province map.
type AreaProvider interface {
	Provinces(ctx context.Context) (domain.AreaMap, error)
}

// AreaFetcher loads raw area data from the external reference service.
type AreaFetcher interface {
	Fetch(ctx context.Context) ([]domain.Province, []domain.Ward, error)
}

// AreaCache holds the derived area map between refetches.
type AreaCache interface {
	Get(ctx context.Context) (domain.AreaMap, bool)
	Set(ctx context.Context, m domain.AreaMap, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// Locker provides a best-effort mutual exclusion across instances.
type Locker interface {
	// TryLock returns ok=false without error when the key is already held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

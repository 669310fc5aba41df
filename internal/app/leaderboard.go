package app

import (
	"context"

	"heritage-quiz-service/internal/domain"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// ClampLimit bounds a requested page size to [1, MaxLeaderboardLimit]. The
// default applies only when the caller sent no limit at all.
func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	}
	return limit
}

type LeaderboardService struct {
	users UserRepository
}

func NewLeaderboardService(users UserRepository) *LeaderboardService {
	return &LeaderboardService{users: users}
}

// Top returns the ranked users of a board, optionally restricted to a province.
func (s *LeaderboardService) Top(ctx context.Context, board domain.Board, provinceCode string, limit int) ([]domain.LeaderboardEntry, error) {
	switch board {
	case domain.BoardOverall, domain.BoardWeekly, domain.BoardLastWeekly:
	default:
		return nil, domain.Invalid("unknown leaderboard %q", board)
	}
	entries, err := s.users.Leaderboard(ctx, domain.LeaderboardQuery{
		Board:        board,
		ProvinceCode: provinceCode,
		Limit:        ClampLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

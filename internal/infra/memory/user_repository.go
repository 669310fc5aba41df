package memory

import (
	"context"
	"sort"
	"sync"

	"heritage-quiz-service/internal/app"
	"heritage-quiz-service/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository.
// A single mutex makes every mutation atomic per user.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.UserAggregate
}

func NewUserRepository(users ...domain.UserAggregate) *UserRepository {
	r := &UserRepository{users: make(map[string]*domain.UserAggregate, len(users))}
	for _, u := range users {
		r.Put(u)
	}
	return r
}

// Put inserts or replaces a user.
func (r *UserRepository) Put(u domain.UserAggregate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	r.users[u.ID] = &u
}

// Upsert creates users or refreshes their profile fields, keeping scores.
func (r *UserRepository) Upsert(_ context.Context, users []domain.UserAggregate) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		if u.Role == "" {
			u.Role = domain.RoleUser
		}
		existing, ok := r.users[u.ID]
		if !ok {
			r.users[u.ID] = &u
			continue
		}
		existing.Name = u.Name
		existing.Avatar = u.Avatar
		existing.Role = u.Role
		existing.ProvinceCode = u.ProvinceCode
	}
	return len(users), nil
}

func (r *UserRepository) Get(_ context.Context, id string) (domain.UserAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.UserAggregate{}, domain.ErrUserNotFound
	}
	return *u, nil
}

func (r *UserRepository) ApplyQuizResult(_ context.Context, id string, delta domain.QuizResultDelta) (domain.UserAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.UserAggregate{}, domain.ErrUserNotFound
	}
	u.Experience += delta.XP
	u.WeeklyScore += delta.Weekly
	u.Streak = app.ApplyStreak(u.Streak, delta.Streak)
	if delta.Streak.Action != domain.StreakKeep {
		at := delta.Streak.At
		u.LastQuizCompletion = &at
	}
	return *u, nil
}

func (r *UserRepository) SnapshotWeekly(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		u.LastWeeklyScore = max(u.WeeklyScore, 0)
		u.WeeklyScore = 0
		u.LastWeekRank = 0
	}
	return int64(len(r.users)), nil
}

func (r *UserRepository) AwardWeeklyWinners(_ context.Context) (int, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	top := 0
	for _, u := range r.users {
		top = max(top, u.LastWeeklyScore)
	}
	if top <= 0 {
		return 0, nil, nil
	}
	var winners []string
	for _, u := range r.users {
		if u.LastWeeklyScore == top {
			u.LastWeekRank = 1
			u.WeeklyWins++
			winners = append(winners, u.ID)
		}
	}
	sort.Strings(winners)
	return top, winners, nil
}

func (r *UserRepository) Leaderboard(_ context.Context, q domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []domain.UserAggregate
	for _, u := range r.users {
		if u.Role != domain.RoleUser {
			continue
		}
		if q.ProvinceCode != "" && u.ProvinceCode != q.ProvinceCode {
			continue
		}
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		si, sj := users[i].Score(q.Board), users[j].Score(q.Board)
		if si != sj {
			return si > sj
		}
		return users[i].ID < users[j].ID
	})
	if q.Limit > 0 && len(users) > q.Limit {
		users = users[:q.Limit]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:         i + 1,
			UserID:       u.ID,
			Name:         u.Name,
			Avatar:       u.Avatar,
			ProvinceCode: u.ProvinceCode,
			Score:        u.Score(q.Board),
			LastWeekRank: u.LastWeekRank,
		})
	}
	return entries, nil
}

package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"heritage-quiz-service/internal/domain"
)

const userColumns = `id, name, avatar, role, province_code, experience, weekly_score, last_weekly_score,
	streak, last_quiz_completion, last_week_rank, weekly_wins`

// scoreColumns whitelists the column each board orders by.
var scoreColumns = map[domain.Board]string{
	domain.BoardOverall:    "experience",
	domain.BoardWeekly:     "weekly_score",
	domain.BoardLastWeekly: "last_weekly_score",
}

// UserRepository keeps every aggregate mutation in a single statement so
// concurrent submissions never read-modify-write in application code.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.UserAggregate, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if isNoRows(err) {
		return domain.UserAggregate{}, domain.ErrUserNotFound
	}
	return u, err
}

// Upsert creates users or refreshes their profile fields; scores are left untouched.
func (r *UserRepository) Upsert(ctx context.Context, users []domain.UserAggregate) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, u := range users {
		role := u.Role
		if role == "" {
			role = domain.RoleUser
		}
		batch.Queue(`
			INSERT INTO users (id, name, avatar, role, province_code)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				avatar = EXCLUDED.avatar,
				role = EXCLUDED.role,
				province_code = EXCLUDED.province_code`,
			u.ID, u.Name, u.Avatar, role, u.ProvinceCode)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for _, u := range users {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("upsert user %s: %w", u.ID, err)
		}
	}
	return len(users), nil
}

func (r *UserRepository) ApplyQuizResult(ctx context.Context, id string, delta domain.QuizResultDelta) (domain.UserAggregate, error) {
	var at *time.Time
	if delta.Streak.Action != domain.StreakKeep {
		t := delta.Streak.At
		at = &t
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET
			experience = experience + $2,
			weekly_score = weekly_score + $3,
			streak = CASE $4::text
				WHEN 'increment' THEN streak + 1
				WHEN 'reset' THEN 1
				ELSE streak
			END,
			last_quiz_completion = CASE WHEN $4::text = 'keep' THEN last_quiz_completion ELSE $5::timestamptz END
		WHERE id = $1
		RETURNING `+userColumns,
		id, delta.XP, delta.Weekly, string(delta.Streak.Action), at))
	if isNoRows(err) {
		return domain.UserAggregate{}, domain.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) SnapshotWeekly(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			last_weekly_score = GREATEST(weekly_score, 0),
			weekly_score = 0,
			last_week_rank = 0`)
	if err != nil {
		return 0, fmt.Errorf("snapshot weekly scores: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *UserRepository) AwardWeeklyWinners(ctx context.Context) (int, []string, error) {
	rows, err := r.pool.Query(ctx, `
		WITH top AS (
			SELECT MAX(last_weekly_score) AS score FROM users WHERE last_weekly_score > 0
		)
		UPDATE users u SET
			last_week_rank = 1,
			weekly_wins = u.weekly_wins + 1
		FROM top
		WHERE u.last_weekly_score = top.score
		RETURNING u.id, u.last_weekly_score`)
	if err != nil {
		return 0, nil, fmt.Errorf("award weekly winners: %w", err)
	}
	defer rows.Close()

	var (
		score   int
		winners []string
	)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id, &score); err != nil {
			return 0, nil, fmt.Errorf("scan winner: %w", err)
		}
		winners = append(winners, id)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("award weekly winners: %w", err)
	}
	if len(winners) == 0 {
		return 0, nil, nil
	}
	sort.Strings(winners)
	return score, winners, nil
}

func (r *UserRepository) Leaderboard(ctx context.Context, q domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error) {
	col, ok := scoreColumns[q.Board]
	if !ok {
		return nil, domain.Invalid("unknown leaderboard %q", q.Board)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, avatar, province_code, `+col+`, last_week_rank
		FROM users
		WHERE role = 'user' AND ($1::text = '' OR province_code = $1)
		ORDER BY `+col+` DESC, id
		LIMIT $2`, q.ProvinceCode, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard %s: %w", q.Board, err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Avatar, &e.ProvinceCode, &e.Score, &e.LastWeekRank); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanUser(row pgx.Row) (domain.UserAggregate, error) {
	var u domain.UserAggregate
	err := row.Scan(&u.ID, &u.Name, &u.Avatar, &u.Role, &u.ProvinceCode, &u.Experience, &u.WeeklyScore,
		&u.LastWeeklyScore, &u.Streak, &u.LastQuizCompletion, &u.LastWeekRank, &u.WeeklyWins)
	if isNoRows(err) {
		return domain.UserAggregate{}, err
	}
	if err != nil {
		return domain.UserAggregate{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

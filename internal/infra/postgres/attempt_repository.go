package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"heritage-quiz-service/internal/domain"
)

const attemptColumns = `id, theme_id, user_id, difficulty, total_questions, correct_count, percent,
	xp_gained, answers, started_at, finished_at`

// AttemptRepository stores graded attempts with their answers as jsonb.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) Create(ctx context.Context, a domain.QuizAttempt) error {
	answers := a.Answers
	if answers == nil {
		answers = []domain.AnswerRecord{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (`+attemptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, a.ThemeID, a.UserID, string(a.Difficulty), a.TotalQuestions, a.CorrectCount, a.Percent,
		a.XPGained, string(raw), a.StartedAt, a.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert attempt %s: %w", a.ID, err)
	}
	return nil
}

func (r *AttemptRepository) ListByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+attemptColumns+`
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY finished_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	var attempts []domain.QuizAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *AttemptRepository) Get(ctx context.Context, userID, attemptID string) (domain.QuizAttempt, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1 AND user_id = $2`, attemptID, userID)
	a, err := scanAttempt(row)
	if isNoRows(err) {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	return a, err
}

func scanAttempt(row pgx.Row) (domain.QuizAttempt, error) {
	var (
		a   domain.QuizAttempt
		raw []byte
	)
	err := row.Scan(&a.ID, &a.ThemeID, &a.UserID, &a.Difficulty, &a.TotalQuestions, &a.CorrectCount, &a.Percent,
		&a.XPGained, &raw, &a.StartedAt, &a.FinishedAt)
	if isNoRows(err) {
		return domain.QuizAttempt{}, err
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	if err := json.Unmarshal(raw, &a.Answers); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("decode answers of %s: %w", a.ID, err)
	}
	return a, nil
}

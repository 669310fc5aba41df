package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"heritage-quiz-service/internal/domain"
)

const themeColumns = `id, type, description, easy_count, medium_count, hard_count, created_at, updated_at`

type ThemeRepository struct {
	pool *pgxpool.Pool
}

func NewThemeRepository(pool *pgxpool.Pool) *ThemeRepository {
	return &ThemeRepository{pool: pool}
}

func (r *ThemeRepository) List(ctx context.Context) ([]domain.QuizTheme, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+themeColumns+` FROM quiz_themes ORDER BY type, id`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()
	var themes []domain.QuizTheme
	for rows.Next() {
		var t domain.QuizTheme
		if err := rows.Scan(&t.ID, &t.Type, &t.Description, &t.Levels.Easy, &t.Levels.Medium, &t.Levels.Hard, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

func (r *ThemeRepository) Get(ctx context.Context, id string) (domain.QuizTheme, error) {
	var t domain.QuizTheme
	err := r.pool.QueryRow(ctx, `SELECT `+themeColumns+` FROM quiz_themes WHERE id = $1`, id).
		Scan(&t.ID, &t.Type, &t.Description, &t.Levels.Easy, &t.Levels.Medium, &t.Levels.Hard, &t.CreatedAt, &t.UpdatedAt)
	if isNoRows(err) {
		return domain.QuizTheme{}, domain.ErrThemeNotFound
	}
	if err != nil {
		return domain.QuizTheme{}, fmt.Errorf("get theme %s: %w", id, err)
	}
	return t, nil
}

// Create inserts a theme, replacing an existing one with the same id.
func (r *ThemeRepository) Create(ctx context.Context, t domain.QuizTheme) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_themes (id, type, description, easy_count, medium_count, hard_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()), COALESCE($8, now()))
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			easy_count = EXCLUDED.easy_count,
			medium_count = EXCLUDED.medium_count,
			hard_count = EXCLUDED.hard_count,
			updated_at = now()`,
		t.ID, string(t.Type), t.Description, t.Levels.Easy, t.Levels.Medium, t.Levels.Hard,
		nullTime(t.CreatedAt), nullTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create theme %s: %w", t.ID, err)
	}
	return nil
}

func (r *ThemeRepository) Update(ctx context.Context, t domain.QuizTheme) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quiz_themes
		SET type = $2, description = $3, easy_count = $4, medium_count = $5, hard_count = $6,
			updated_at = COALESCE($7, now())
		WHERE id = $1`,
		t.ID, string(t.Type), t.Description, t.Levels.Easy, t.Levels.Medium, t.Levels.Hard, nullTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("update theme %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrThemeNotFound
	}
	return nil
}

func (r *ThemeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quiz_themes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete theme %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrThemeNotFound
	}
	return nil
}

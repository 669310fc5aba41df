package memory

import (
	"context"
	"sort"
	"sync"

	"heritage-quiz-service/internal/domain"
)

type ThemeRepository struct {
	mu     sync.RWMutex
	themes map[string]domain.QuizTheme
}

func NewThemeRepository(themes ...domain.QuizTheme) *ThemeRepository {
	r := &ThemeRepository{themes: make(map[string]domain.QuizTheme, len(themes))}
	for _, t := range themes {
		r.themes[t.ID] = t
	}
	return r
}

// List orders themes by type, then id.
func (r *ThemeRepository) List(_ context.Context) ([]domain.QuizTheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.QuizTheme, 0, len(r.themes))
	for _, t := range r.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ThemeRepository) Get(_ context.Context, id string) (domain.QuizTheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.themes[id]
	if !ok {
		return domain.QuizTheme{}, domain.ErrThemeNotFound
	}
	return t, nil
}

// Create also serves as an upsert for seeding.
func (r *ThemeRepository) Create(_ context.Context, theme domain.QuizTheme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[theme.ID] = theme
	return nil
}

func (r *ThemeRepository) Update(_ context.Context, theme domain.QuizTheme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.themes[theme.ID]; !ok {
		return domain.ErrThemeNotFound
	}
	r.themes[theme.ID] = theme
	return nil
}

func (r *ThemeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.themes[id]; !ok {
		return domain.ErrThemeNotFound
	}
	delete(r.themes, id)
	return nil
}

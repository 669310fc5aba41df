package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"heritage-quiz-service/internal/domain"
)

// ThemeInput creates a theme. Nil levels fall back to the defaults.
type ThemeInput struct {
	Type        domain.ThemeType
	Description string
	Levels      *domain.LevelSettings
}

// ThemePatch updates only the non-nil fields.
type ThemePatch struct {
	Type        *domain.ThemeType
	Description *string
	Levels      *domain.LevelSettings
}

// ThemeService manages quiz themes.
type ThemeService struct {
	themes ThemeRepository
	now    func() time.Time
}

func NewThemeService(themes ThemeRepository) *ThemeService {
	return &ThemeService{themes: themes, now: time.Now}
}

func (s *ThemeService) List(ctx context.Context) ([]domain.QuizTheme, error) {
	themes, err := s.themes.List(ctx)
	if err != nil {
		return nil, err
	}
	if themes == nil {
		themes = []domain.QuizTheme{}
	}
	return themes, nil
}

func (s *ThemeService) Get(ctx context.Context, id string) (domain.QuizTheme, error) {
	return s.themes.Get(ctx, id)
}

func (s *ThemeService) Create(ctx context.Context, in ThemeInput) (domain.QuizTheme, error) {
	now := s.now().UTC()
	theme := domain.QuizTheme{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Description: in.Description,
		Levels:      domain.DefaultLevelSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Levels != nil {
		theme.Levels = *in.Levels
	}
	if err := theme.Validate(); err != nil {
		return domain.QuizTheme{}, err
	}
	if err := s.themes.Create(ctx, theme); err != nil {
		return domain.QuizTheme{}, err
	}
	return theme, nil
}

func (s *ThemeService) Update(ctx context.Context, id string, patch ThemePatch) (domain.QuizTheme, error) {
	theme, err := s.themes.Get(ctx, id)
	if err != nil {
		return domain.QuizTheme{}, err
	}
	if patch.Type != nil {
		theme.Type = *patch.Type
	}
	if patch.Description != nil {
		theme.Description = *patch.Description
	}
	if patch.Levels != nil {
		theme.Levels = *patch.Levels
	}
	if err := theme.Validate(); err != nil {
		return domain.QuizTheme{}, err
	}
	theme.UpdatedAt = s.now().UTC()
	if err := s.themes.Update(ctx, theme); err != nil {
		return domain.QuizTheme{}, err
	}
	return theme, nil
}

func (s *ThemeService) Delete(ctx context.Context, id string) error {
	return s.themes.Delete(ctx, id)
}

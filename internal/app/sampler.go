package app

import (
	"context"
	"fmt"

	"heritage-quiz-service/internal/domain"
)

const (
	optionsPerQuestion = 4
	distractorCount    = optionsPerQuestion - 1
	minSampleSize      = 50
)

// SampleSize is how many candidates are drawn for a quiz of count questions.
// It bounds distractor search while leaving room for variety.
func SampleSize(count int) int {
	return max(optionsPerQuestion*count, minSampleSize)
}

// MinCandidates is the smallest eligible population that can seed count questions.
func MinCandidates(count int) int {
	return max(optionsPerQuestion, count)
}

// CandidateSampler draws eligible heritage records for a theme.
type CandidateSampler struct {
	repo HeritageRepository
}

func NewCandidateSampler(repo HeritageRepository) CandidateSampler {
	return CandidateSampler{repo: repo}
}

// Sample returns a random candidate set, or domain.ErrInsufficientData when
// fewer than MinCandidates(count) records pass the theme filter.
func (s CandidateSampler) Sample(ctx context.Context, theme domain.ThemeType, count int) ([]domain.HeritageRecord, error) {
	filter := theme.CandidateFilter()
	candidates, err := s.repo.Sample(ctx, filter, SampleSize(count))
	if err != nil {
		return nil, fmt.Errorf("sample heritages (%s): %w", filter, err)
	}
	if need := MinCandidates(count); len(candidates) < need {
		return nil, domain.Insufficient("only %d heritage records match theme %s, need at least %d to build %d questions",
			len(candidates), theme, need, count)
	}
	return candidates, nil
}

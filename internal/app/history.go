package app

import (
	"context"

	"heritage-quiz-service/internal/domain"
)

// HistoryService exposes a user's own attempts.
type HistoryService struct {
	attempts AttemptRepository
}

func NewHistoryService(attempts AttemptRepository) *HistoryService {
	return &HistoryService{attempts: attempts}
}

// List returns the user's attempts, newest first.
func (s *HistoryService) List(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []domain.QuizAttempt{}
	}
	return attempts, nil
}

// Get returns one attempt; attempts of other users are reported as not found.
func (s *HistoryService) Get(ctx context.Context, userID, attemptID string) (domain.QuizAttempt, error) {
	return s.attempts.Get(ctx, userID, attemptID)
}

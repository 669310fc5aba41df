package memory

import (
	"context"
	"sync"

	"heritage-quiz-service/internal/domain"
)

// AttemptRepository is an append-only in-memory attempt log.
type AttemptRepository struct {
	mu       sync.RWMutex
	attempts []domain.QuizAttempt
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{}
}

func (r *AttemptRepository) Create(_ context.Context, attempt domain.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == attempt.ID {
			return nil
		}
	}
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *AttemptRepository) ListByUser(_ context.Context, userID string) ([]domain.QuizAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.QuizAttempt
	for i := len(r.attempts) - 1; i >= 0; i-- {
		if r.attempts[i].UserID == userID {
			out = append(out, r.attempts[i])
		}
	}
	return out, nil
}

func (r *AttemptRepository) Get(_ context.Context, userID, attemptID string) (domain.QuizAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.attempts {
		if a.ID == attemptID && a.UserID == userID {
			return a, nil
		}
	}
	return domain.QuizAttempt{}, domain.ErrAttemptNotFound
}

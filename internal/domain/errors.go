package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed requests (bad difficulty, empty answers, ...).
	ErrInvalidInput = errors.New("invalid input")
	// ErrThemeNotFound indicates the quiz theme could not be loaded.
	ErrThemeNotFound = errors.New("quiz theme not found")
	// ErrUserNotFound is returned when the submitting user has no aggregate row.
	ErrUserNotFound = errors.New("user not found")
	// ErrAttemptNotFound indicates a quiz attempt does not exist or belongs to someone else.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrInsufficientData means there is not enough content to build a quiz.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrAreaDataUnavailable is returned when the administrative-area reference could not be loaded.
	ErrAreaDataUnavailable = errors.New("area data unavailable")
	// ErrPersistence wraps storage failures while recording a submission.
	ErrPersistence = errors.New("persistence failure")
	// ErrRolloverInProgress is returned when another weekly rollover holds the lock.
	ErrRolloverInProgress = errors.New("weekly rollover already in progress")
)

// Invalid wraps ErrInvalidInput with a user-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Insufficient wraps ErrInsufficientData with a user-facing message.
func Insufficient(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, fmt.Sprintf(format, args...))
}

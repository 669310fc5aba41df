package domain

import "time"

// AnswerSubmission is one answer as sent by the client. Display fields are
// stored for history only and never used for grading.
type AnswerSubmission struct {
	QuestionID         string `json:"questionId" validate:"required"`
	SelectedValue      string `json:"selectedValue"`
	QuestionText       string `json:"questionText,omitempty"`
	QuestionImage      string `json:"questionImage,omitempty"`
	SelectedAnswerText string `json:"selectedAnswerText,omitempty"`
}

// AnswerRecord is a graded answer inside an attempt.
type AnswerRecord struct {
	QuestionID         string `json:"questionId"`
	QuestionText       string `json:"questionText,omitempty"`
	QuestionImage      string `json:"questionImage,omitempty"`
	SelectedValue      string `json:"selectedValue"`
	SelectedAnswerText string `json:"selectedAnswerText,omitempty"`
	Correct            bool   `json:"isCorrect"`
}

// QuizAttempt is an immutable record of one completed quiz.
type QuizAttempt struct {
	ID             string         `json:"id"`
	ThemeID        string         `json:"themeId"`
	UserID         string         `json:"userId"`
	Difficulty     Difficulty     `json:"difficulty"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectCount   int            `json:"correctCount"`
	Percent        int            `json:"percent"`
	StartedAt      time.Time      `json:"startDate"`
	FinishedAt     time.Time      `json:"finishedAt"`
	XPGained       int            `json:"xpGained"`
	Answers        []AnswerRecord `json:"answers"`
}

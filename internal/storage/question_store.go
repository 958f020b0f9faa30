// Package storage is the Quiz Bank: persistent storage for questions
// curated through the admin surface, and assembly of quiz ids into the
// ordered game.Quiz snapshots a Room plays through.
package storage

import (
	"context"
	"errors"

	"github.com/hallvik/quizrelay/internal/game"
)

// ErrNoQuestions is returned when a quiz id resolves to zero active
// questions.
var ErrNoQuestions = errors.New("quiz has no active questions")

// ErrQuestionNotFound is returned by SetQuestionActive for an unknown id.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionRow is one curated question, scoped to a quiz id and ordered
// within it by Position.
type QuestionRow struct {
	ID           int64         `json:"id"`
	QuizID       string        `json:"quiz_id"`
	Position     int           `json:"position"`
	Prompt       string        `json:"prompt"`
	Options      []game.Option `json:"options"`
	CorrectIndex int           `json:"correct_index"`
	ImageRef     string        `json:"image_ref,omitempty"`
	IsBonus      bool          `json:"is_bonus"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    string        `json:"created_at"`
}

// CreateQuestionInput is the admin-supplied shape for a new question.
type CreateQuestionInput struct {
	QuizID       string        `json:"quiz_id"`
	Position     int           `json:"position"`
	Prompt       string        `json:"prompt"`
	Options      []game.Option `json:"options"`
	CorrectIndex int           `json:"correct_index"`
	ImageRef     string        `json:"image_ref,omitempty"`
	IsBonus      bool          `json:"is_bonus,omitempty"`
	IsActive     bool          `json:"is_active"`
}

// QuestionStore is the admin-facing curation surface over the Quiz Bank.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, in CreateQuestionInput) (QuestionRow, error)
	ListQuestions(ctx context.Context, includeInactive bool) ([]QuestionRow, error)
	SetQuestionActive(ctx context.Context, id int64, active bool) (QuestionRow, error)
	QuestionsForQuiz(ctx context.Context, quizID string) ([]QuestionRow, error)
}

package storage

import (
	"context"
	"strconv"

	"github.com/hallvik/quizrelay/internal/game"
)

// QuizBank resolves a quiz id to the ordered, immutable Quiz snapshot
// a Room plays through (spec.md §3 supplement). It is the assembly
// step between the admin-curated QuestionStore and C4's Quiz Holder.
type QuizBank interface {
	GetQuiz(ctx context.Context, quizID string) (game.Quiz, error)
}

// questionStoreBank assembles a Quiz directly from a QuestionStore on
// every call, with no caching of its own.
type questionStoreBank struct {
	qs QuestionStore
}

// NewQuizBank builds a QuizBank that reads straight through to qs.
func NewQuizBank(qs QuestionStore) QuizBank {
	return &questionStoreBank{qs: qs}
}

func (b *questionStoreBank) GetQuiz(ctx context.Context, quizID string) (game.Quiz, error) {
	rows, err := b.qs.QuestionsForQuiz(ctx, quizID)
	if err != nil {
		return game.Quiz{}, err
	}
	questions := make([]game.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, game.Question{
			ID:           strconv.FormatInt(r.ID, 10),
			Prompt:       r.Prompt,
			Options:      r.Options,
			CorrectIndex: r.CorrectIndex,
			ImageRef:     r.ImageRef,
			IsBonus:      r.IsBonus,
		})
	}
	return game.NewQuiz(quizID, quizID, questions)
}

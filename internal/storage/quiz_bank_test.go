package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hallvik/quizrelay/internal/game"
)

type mockQuestionStore struct {
	mock.Mock
}

func (m *mockQuestionStore) CreateQuestion(ctx context.Context, in CreateQuestionInput) (QuestionRow, error) {
	args := m.Called(ctx, in)
	row, _ := args.Get(0).(QuestionRow)
	return row, args.Error(1)
}

func (m *mockQuestionStore) ListQuestions(ctx context.Context, includeInactive bool) ([]QuestionRow, error) {
	args := m.Called(ctx, includeInactive)
	rows, _ := args.Get(0).([]QuestionRow)
	return rows, args.Error(1)
}

func (m *mockQuestionStore) SetQuestionActive(ctx context.Context, id int64, active bool) (QuestionRow, error) {
	args := m.Called(ctx, id, active)
	row, _ := args.Get(0).(QuestionRow)
	return row, args.Error(1)
}

func (m *mockQuestionStore) QuestionsForQuiz(ctx context.Context, quizID string) ([]QuestionRow, error) {
	args := m.Called(ctx, quizID)
	rows, _ := args.Get(0).([]QuestionRow)
	return rows, args.Error(1)
}

func TestQuizBank_GetQuiz_AssemblesOrderedQuestions(t *testing.T) {
	qs := new(mockQuestionStore)
	rows := []QuestionRow{
		{ID: 1, QuizID: "quiz-1", Position: 0, Prompt: "first", Options: []game.Option{{Text: "a"}, {Text: "b"}}, CorrectIndex: 1},
		{ID: 2, QuizID: "quiz-1", Position: 1, Prompt: "second", Options: []game.Option{{Text: "a"}, {Text: "b"}}, CorrectIndex: 0},
	}
	qs.On("QuestionsForQuiz", mock.Anything, "quiz-1").Return(rows, nil).Once()

	bank := NewQuizBank(qs)
	quiz, err := bank.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "quiz-1", quiz.ID)
	require.Len(t, quiz.Questions, 2)
	require.Equal(t, "first", quiz.Questions[0].Prompt)
	require.Equal(t, "1", quiz.Questions[0].ID)
	require.Equal(t, "second", quiz.Questions[1].Prompt)

	qs.AssertExpectations(t)
}

func TestQuizBank_GetQuiz_PropagatesNoQuestions(t *testing.T) {
	qs := new(mockQuestionStore)
	qs.On("QuestionsForQuiz", mock.Anything, "quiz-empty").Return([]QuestionRow(nil), ErrNoQuestions).Once()

	bank := NewQuizBank(qs)
	_, err := bank.GetQuiz(context.Background(), "quiz-empty")
	require.ErrorIs(t, err, ErrNoQuestions)
}

package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleQuestions() []Question {
	return []Question{
		{ID: "q1", Prompt: "2+2?", Options: []Option{{Text: "3"}, {Text: "4"}, {Text: "5"}, {Text: "6"}}, CorrectIndex: 1},
		{ID: "q2", Prompt: "sky color?", Options: []Option{{Text: "blue"}, {Text: "green"}}, CorrectIndex: 0, IsBonus: true},
	}
}

func TestNewQuiz_ValidSnapshot(t *testing.T) {
	q, err := NewQuiz("quiz-1", "General Knowledge", sampleQuestions())
	require.NoError(t, err)
	require.Len(t, q.Questions, 2)
}

func TestNewQuiz_RejectsBadOptionCount(t *testing.T) {
	qs := sampleQuestions()
	qs[0].Options = qs[0].Options[:3]
	_, err := NewQuiz("quiz-1", "t", qs)
	require.ErrorIs(t, err, ErrInvalidQuiz)
}

func TestNewQuiz_RejectsOutOfRangeCorrectIndex(t *testing.T) {
	qs := sampleQuestions()
	qs[0].CorrectIndex = 9
	_, err := NewQuiz("quiz-1", "t", qs)
	require.ErrorIs(t, err, ErrInvalidQuiz)
}

func TestNewQuiz_RejectsNoQuestions(t *testing.T) {
	_, err := NewQuiz("quiz-1", "t", nil)
	require.ErrorIs(t, err, ErrInvalidQuiz)
}

func TestQuestion_SupportsFiftyFifty(t *testing.T) {
	qs := sampleQuestions()
	require.True(t, qs[0].SupportsFiftyFifty())
	require.False(t, qs[1].SupportsFiftyFifty())
}

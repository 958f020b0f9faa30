package game

import "fmt"

// NewQuiz validates a quiz snapshot before it is handed to a Room (C4).
// A quiz is immutable for the lifetime of the room that plays it —
// validation happens once, here, rather than being re-checked on every
// question transition.
func NewQuiz(id, title string, questions []Question) (Quiz, error) {
	if id == "" {
		return Quiz{}, fmt.Errorf("%w: quiz id is empty", ErrInvalidQuiz)
	}
	if len(questions) == 0 {
		return Quiz{}, fmt.Errorf("%w: quiz has no questions", ErrInvalidQuiz)
	}
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return Quiz{}, fmt.Errorf("%w: question %d: %v", ErrInvalidQuiz, i, err)
		}
	}
	return Quiz{ID: id, Title: title, Questions: questions}, nil
}

func validateQuestion(q Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("empty prompt")
	}
	switch len(q.Options) {
	case 2, 4:
	default:
		return fmt.Errorf("question %q has %d options, want 2 or 4", q.ID, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("question %q correct_index %d out of range", q.ID, q.CorrectIndex)
	}
	for i, opt := range q.Options {
		if opt.Text == "" && opt.ImageRef == "" {
			return fmt.Errorf("question %q option %d has neither text nor image", q.ID, i)
		}
	}
	return nil
}

// SupportsFiftyFifty reports whether a question has enough options for
// the fifty_fifty power-up to make sense (spec.md §9's Open Question
// resolution: rejected outright on 2-option questions, not silently
// downgraded).
func (q Question) SupportsFiftyFifty() bool {
	return len(q.Options) == 4
}

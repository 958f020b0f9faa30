package service

import (
	"context"
	"errors"
	"strings"

	"github.com/hallvik/quizrelay/internal/storage"
)

var errInvalidQuestionPayload = errors.New("invalid question payload")
var errInvalidQuestionID = errors.New("invalid question id")

// AdminService curates the Quiz Bank behind the bearer-token-gated
// admin endpoints (spec.md §6 control-plane table).
type AdminService interface {
	CreateQuestion(ctx context.Context, in storage.CreateQuestionInput) (storage.QuestionRow, error)
	ListQuestions(ctx context.Context, includeInactive bool) ([]storage.QuestionRow, error)
	SetQuestionActive(ctx context.Context, id int64, active bool) (storage.QuestionRow, error)
}

type adminService struct {
	qs storage.QuestionStore
}

func NewAdminService(qs storage.QuestionStore) AdminService {
	return &adminService{qs: qs}
}

func (a *adminService) CreateQuestion(ctx context.Context, in storage.CreateQuestionInput) (storage.QuestionRow, error) {
	in.QuizID = strings.TrimSpace(in.QuizID)
	in.Prompt = strings.TrimSpace(in.Prompt)
	if err := validateQuestionInput(in); err != nil {
		return storage.QuestionRow{}, err
	}
	return a.qs.CreateQuestion(ctx, in)
}

func (a *adminService) ListQuestions(ctx context.Context, includeInactive bool) ([]storage.QuestionRow, error) {
	return a.qs.ListQuestions(ctx, includeInactive)
}

func (a *adminService) SetQuestionActive(ctx context.Context, id int64, active bool) (storage.QuestionRow, error) {
	if id <= 0 {
		return storage.QuestionRow{}, errInvalidQuestionID
	}
	return a.qs.SetQuestionActive(ctx, id, active)
}

func validateQuestionInput(in storage.CreateQuestionInput) error {
	if in.QuizID == "" || in.Prompt == "" {
		return errInvalidQuestionPayload
	}
	if len(in.Options) != 2 && len(in.Options) != 4 {
		return errInvalidQuestionPayload
	}
	if in.CorrectIndex < 0 || in.CorrectIndex >= len(in.Options) {
		return errInvalidQuestionPayload
	}
	for _, opt := range in.Options {
		if strings.TrimSpace(opt.Text) == "" && opt.ImageRef == "" {
			return errInvalidQuestionPayload
		}
	}
	return nil
}

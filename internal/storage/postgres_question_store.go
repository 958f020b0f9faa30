package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hallvik/quizrelay/internal/game"
)

// PostgresQuestionStore is the Quiz Bank's Postgres-backed QuestionStore.
type PostgresQuestionStore struct {
	db *pgxpool.Pool
}

func NewPostgresQuestionStore(db *pgxpool.Pool) *PostgresQuestionStore {
	return &PostgresQuestionStore{db: db}
}

func (s *PostgresQuestionStore) CreateQuestion(ctx context.Context, in CreateQuestionInput) (QuestionRow, error) {
	optsJSON, err := json.Marshal(in.Options)
	if err != nil {
		return QuestionRow{}, err
	}

	var row QuestionRow
	var createdAt time.Time

	err = s.db.QueryRow(ctx, `
		INSERT INTO questions (quiz_id, position, prompt, options, correct_index, image_ref, is_bonus, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, quiz_id, position, prompt, options, correct_index, image_ref, is_bonus, is_active, created_at
	`, in.QuizID, in.Position, in.Prompt, optsJSON, in.CorrectIndex, in.ImageRef, in.IsBonus, in.IsActive).Scan(
		&row.ID, &row.QuizID, &row.Position, &row.Prompt, &optsJSON, &row.CorrectIndex, &row.ImageRef, &row.IsBonus, &row.IsActive, &createdAt,
	)
	if err != nil {
		return QuestionRow{}, err
	}

	var opts []game.Option
	if err := json.Unmarshal(optsJSON, &opts); err != nil {
		return QuestionRow{}, err
	}
	row.Options = opts
	row.CreatedAt = createdAt.Format(time.RFC3339)

	return row, nil
}

func (s *PostgresQuestionStore) ListQuestions(ctx context.Context, includeInactive bool) ([]QuestionRow, error) {
	q := `
		SELECT id, quiz_id, position, prompt, options, correct_index, image_ref, is_bonus, is_active, created_at
		FROM questions
	`
	if !includeInactive {
		q += ` WHERE is_active = true`
	}
	q += ` ORDER BY quiz_id, position, id`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]QuestionRow, 0)
	for rows.Next() {
		r, err := scanQuestionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresQuestionStore) SetQuestionActive(ctx context.Context, id int64, active bool) (QuestionRow, error) {
	var r QuestionRow
	var optsJSON []byte
	var createdAt time.Time

	err := s.db.QueryRow(ctx, `
		UPDATE questions
		SET is_active = $2
		WHERE id = $1
		RETURNING id, quiz_id, position, prompt, options, correct_index, image_ref, is_bonus, is_active, created_at
	`, id, active).Scan(&r.ID, &r.QuizID, &r.Position, &r.Prompt, &optsJSON, &r.CorrectIndex, &r.ImageRef, &r.IsBonus, &r.IsActive, &createdAt)
	if err != nil {
		return QuestionRow{}, ErrQuestionNotFound
	}

	var opts []game.Option
	if err := json.Unmarshal(optsJSON, &opts); err != nil {
		return QuestionRow{}, err
	}
	r.Options = opts
	r.CreatedAt = createdAt.Format(time.RFC3339)

	return r, nil
}

func (s *PostgresQuestionStore) QuestionsForQuiz(ctx context.Context, quizID string) ([]QuestionRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, quiz_id, position, prompt, options, correct_index, image_ref, is_bonus, is_active, created_at
		FROM questions
		WHERE quiz_id = $1 AND is_active = true
		ORDER BY position, id
	`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]QuestionRow, 0)
	for rows.Next() {
		r, err := scanQuestionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoQuestions
	}
	return out, nil
}

func scanQuestionRow(scan func(dest ...any) error) (QuestionRow, error) {
	var r QuestionRow
	var optsJSON []byte
	var createdAt time.Time

	if err := scan(&r.ID, &r.QuizID, &r.Position, &r.Prompt, &optsJSON, &r.CorrectIndex, &r.ImageRef, &r.IsBonus, &r.IsActive, &createdAt); err != nil {
		return QuestionRow{}, err
	}

	var opts []game.Option
	if err := json.Unmarshal(optsJSON, &opts); err != nil {
		return QuestionRow{}, err
	}
	r.Options = opts
	r.CreatedAt = createdAt.Format(time.RFC3339)
	return r, nil
}

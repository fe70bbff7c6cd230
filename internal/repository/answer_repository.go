package repository

import (
	"context"
	"fmt"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// AnswerRepository is the sqlx implementation of domain.AnswerRepository.
type AnswerRepository struct {
	db *sqlx.DB
}

func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

const insertAnswer = `INSERT INTO question_answers
	(id, session_id, question_index, question_text, question_type, correct_answer, user_answer, score, answered_at)
	VALUES (:id, :session_id, :question_index, :question_text, :question_type, :correct_answer, :user_answer, :score, :answered_at)`

// Insert relies on the (session_id, question_index) unique key to detect duplicates.
func (r *AnswerRepository) Insert(ctx context.Context, answer *domain.AnswerRecord) (bool, error) {
	query := insertAnswer + ` ON CONFLICT (session_id, question_index) DO NOTHING`
	res, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, models.FromDomainAnswer(answer))
	if err != nil {
		return false, fmt.Errorf("failed to insert answer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *AnswerRepository) Upsert(ctx context.Context, answer *domain.AnswerRecord) error {
	query := insertAnswer + ` ON CONFLICT (session_id, question_index) DO UPDATE SET
		user_answer = EXCLUDED.user_answer,
		score = EXCLUDED.score,
		answered_at = EXCLUDED.answered_at`
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, models.FromDomainAnswer(answer)); err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.AnswerRecord, error) {
	var rows []models.QuestionAnswer
	query := `SELECT id, session_id, question_index, question_text, question_type, correct_answer, user_answer, score, answered_at
		FROM question_answers WHERE session_id = $1 ORDER BY question_index`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list answers for session %s: %w", sessionID, err)
	}
	out := make([]*domain.AnswerRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ domain.AnswerRepository = (*AnswerRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// QuizSessionRepository is the sqlx implementation of domain.QuizSessionRepository.
type QuizSessionRepository struct {
	db *sqlx.DB
}

func NewQuizSessionRepository(db *sqlx.DB) *QuizSessionRepository {
	return &QuizSessionRepository{db: db}
}

const sessionColumns = `id, owner_id, session_type, knowledge_base_ids, question_types, difficulty,
	target_count, questions, cursor_position, completed, score, created_at, completed_at`

func (r *QuizSessionRepository) Create(ctx context.Context, session *domain.QuizSession) error {
	query := `INSERT INTO quiz_sessions (` + sessionColumns + `)
		VALUES (:id, :owner_id, :session_type, :knowledge_base_ids, :question_types, :difficulty,
		:target_count, :questions, :cursor_position, :completed, :score, :created_at, :completed_at)`
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, models.FromDomainSession(session)); err != nil {
		return fmt.Errorf("failed to insert quiz session: %w", err)
	}
	return nil
}

func (r *QuizSessionRepository) GetByID(ctx context.Context, id string) (*domain.QuizSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM quiz_sessions WHERE id = $1`, id)
}

// GetForUpdate must run inside a transaction for the row lock to hold.
func (r *QuizSessionRepository) GetForUpdate(ctx context.Context, id string) (*domain.QuizSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM quiz_sessions WHERE id = $1 FOR UPDATE`, id)
}

func (r *QuizSessionRepository) get(ctx context.Context, query, id string) (*domain.QuizSession, error) {
	var row models.QuizSession
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz session %s: %w", id, err)
	}
	return row.ToDomain(), nil
}

// UpdateProgress writes cursor, completion and score. Questions are immutable once stored.
func (r *QuizSessionRepository) UpdateProgress(ctx context.Context, session *domain.QuizSession) error {
	query := `UPDATE quiz_sessions
		SET cursor_position = :cursor_position, completed = :completed, score = :score, completed_at = :completed_at
		WHERE id = :id`
	res, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, models.FromDomainSession(session))
	if err != nil {
		return fmt.Errorf("failed to update quiz session %s: %w", session.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("quiz session %s not found", session.ID))
	}
	return nil
}

// StatsByOwner aggregates completed sessions per type together with the knowledge base count.
func (r *QuizSessionRepository) StatsByOwner(ctx context.Context, ownerID string) (*domain.UserStats, error) {
	var row struct {
		CompletedQuizzes      int             `db:"completed_quizzes"`
		AverageScore          sql.NullFloat64 `db:"average_score"`
		CompletedFlashcards   int             `db:"completed_flashcards"`
		FlashcardAverageScore sql.NullFloat64 `db:"flashcard_average_score"`
		KnowledgeBaseCount    int             `db:"knowledge_base_count"`
	}
	query := `SELECT
		COUNT(*) FILTER (WHERE session_type = 'custom' AND completed) AS completed_quizzes,
		AVG(score) FILTER (WHERE session_type = 'custom' AND completed) AS average_score,
		COUNT(*) FILTER (WHERE session_type = 'flashcard' AND completed) AS completed_flashcards,
		AVG(score) FILTER (WHERE session_type = 'flashcard' AND completed) AS flashcard_average_score,
		(SELECT COUNT(*) FROM knowledge_bases WHERE owner_id = $1) AS knowledge_base_count
		FROM quiz_sessions WHERE owner_id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &row, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to aggregate stats for %s: %w", ownerID, err)
	}

	stats := &domain.UserStats{
		CompletedQuizzes:    row.CompletedQuizzes,
		CompletedFlashcards: row.CompletedFlashcards,
		KnowledgeBaseCount:  row.KnowledgeBaseCount,
	}
	if row.AverageScore.Valid {
		v := domain.RoundTo(row.AverageScore.Float64, 1)
		stats.AverageScore = &v
	}
	if row.FlashcardAverageScore.Valid {
		v := domain.RoundTo(row.FlashcardAverageScore.Float64, 1)
		stats.FlashcardAverageScore = &v
	}
	return stats, nil
}

var _ domain.QuizSessionRepository = (*QuizSessionRepository)(nil)

package repository

import (
	"context"
	"fmt"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"
	"rag-quiz/internal/repository/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// HistoryRepository is the sqlx implementation of domain.HistoryRepository.
type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append stores entries; a question already recorded for the same owner and fingerprint is skipped.
func (r *HistoryRepository) Append(ctx context.Context, entries []*domain.HistoryEntry) error {
	query := `INSERT INTO history_questions (owner_id, fingerprint, question_hash, payload, created_at)
		VALUES (:owner_id, :fingerprint, :question_hash, :payload, :created_at)
		ON CONFLICT (owner_id, fingerprint, question_hash) DO NOTHING`
	exec := GetExecutor(ctx, r.db)
	for _, e := range entries {
		row, err := models.FromDomainHistory(e)
		if err != nil {
			return err
		}
		if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first. Rows whose payload no longer decodes are skipped.
func (r *HistoryRepository) Recent(ctx context.Context, ownerID, fingerprint string, limit int) ([]*domain.HistoryEntry, error) {
	var rows []models.HistoryQuestion
	query := `SELECT owner_id, fingerprint, question_hash, payload, created_at
		FROM history_questions
		WHERE owner_id = $1 AND fingerprint = $2
		ORDER BY created_at DESC
		LIMIT $3`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, ownerID, fingerprint, limit); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	out := make([]*domain.HistoryEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].ToDomain()
		if err != nil {
			logger.Get().Warn("Skipping undecodable history row",
				zap.String("question_hash", rows[i].QuestionHash),
				zap.Error(err))
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

var _ domain.HistoryRepository = (*HistoryRepository)(nil)

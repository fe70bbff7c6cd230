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

// KnowledgeBaseRepository is the sqlx implementation of domain.KnowledgeBaseRepository.
type KnowledgeBaseRepository struct {
	db *sqlx.DB
}

func NewKnowledgeBaseRepository(db *sqlx.DB) *KnowledgeBaseRepository {
	return &KnowledgeBaseRepository{db: db}
}

func (r *KnowledgeBaseRepository) Create(ctx context.Context, kb *domain.KnowledgeBase) error {
	row := models.KnowledgeBase{
		ID:        kb.ID,
		OwnerID:   kb.OwnerID,
		Name:      kb.Name,
		Content:   kb.Content,
		Summary:   kb.Summary,
		CreatedAt: kb.CreatedAt,
		UpdatedAt: kb.UpdatedAt,
	}
	query := `INSERT INTO knowledge_bases (id, owner_id, name, content, summary, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :content, :summary, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert knowledge base: %w", err)
	}
	return nil
}

func (r *KnowledgeBaseRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeBase, error) {
	var row models.KnowledgeBase
	query := `SELECT kb.id, kb.owner_id, kb.name, kb.content, kb.summary, kb.created_at, kb.updated_at,
		(SELECT COUNT(*) FROM knowledge_chunks c WHERE c.knowledge_base_id = kb.id) AS chunk_count
		FROM knowledge_bases kb WHERE kb.id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get knowledge base %s: %w", id, err)
	}
	return row.ToDomain(), nil
}

func (r *KnowledgeBaseRepository) ExistsByName(ctx context.Context, ownerID, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM knowledge_bases WHERE owner_id = $1 AND name = $2)`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &exists, query, ownerID, name); err != nil {
		return false, fmt.Errorf("failed to check knowledge base name: %w", err)
	}
	return exists, nil
}

// ListByOwner returns the owner's knowledge bases, newest first, without their content.
func (r *KnowledgeBaseRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.KnowledgeBase, error) {
	var rows []models.KnowledgeBase
	query := `SELECT kb.id, kb.owner_id, kb.name, '' AS content, kb.summary, kb.created_at, kb.updated_at,
		COUNT(c.id) AS chunk_count
		FROM knowledge_bases kb
		LEFT JOIN knowledge_chunks c ON c.knowledge_base_id = kb.id
		WHERE kb.owner_id = $1
		GROUP BY kb.id
		ORDER BY kb.created_at DESC`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list knowledge bases: %w", err)
	}
	out := make([]*domain.KnowledgeBase, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// CountOwned counts how many of ids exist and belong to ownerID.
func (r *KnowledgeBaseRepository) CountOwned(ctx context.Context, ownerID string, ids []string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM knowledge_bases WHERE owner_id = $1 AND id = ANY(string_to_array($2, ','))`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &n, query, ownerID, joinIDs(ids)); err != nil {
		return 0, fmt.Errorf("failed to count knowledge bases: %w", err)
	}
	return n, nil
}

// Delete removes the knowledge base; its chunks go with it through ON DELETE CASCADE.
func (r *KnowledgeBaseRepository) Delete(ctx context.Context, id string) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM knowledge_bases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete knowledge base %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("knowledge base %s not found", id))
	}
	return nil
}

var _ domain.KnowledgeBaseRepository = (*KnowledgeBaseRepository)(nil)

package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"rag-quiz/internal/config"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"
	"rag-quiz/internal/repository/models"
	"rag-quiz/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

var errZeroQuery = errors.New("query vector carries no signal")

// ChunkIndex is the pgvector-backed domain.VectorIndex.
type ChunkIndex struct {
	db        *sqlx.DB
	txManager domain.TransactionManager
	dim       int
	lexical   config.LexicalScores
}

func NewChunkIndex(db *sqlx.DB, txManager domain.TransactionManager, dim int, lexical config.LexicalScores) *ChunkIndex {
	return &ChunkIndex{db: db, txManager: txManager, dim: dim, lexical: lexical}
}

// Upsert deletes every chunk of the knowledge base and writes chunks in a
// single transaction. Malformed embeddings are stored as zero vectors so
// chunk_index stays contiguous.
func (ci *ChunkIndex) Upsert(ctx context.Context, knowledgeBaseID string, chunks []domain.ChunkInput) (int, error) {
	l := logger.Get()
	replaced := 0

	err := ci.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, ci.db)
		if _, err := exec.ExecContext(ctx, `DELETE FROM knowledge_chunks WHERE knowledge_base_id = $1`, knowledgeBaseID); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}

		now := time.Now()
		for i, chunk := range chunks {
			vec, ok := util.SanitizeVector(chunk.Embedding, ci.dim)
			if !ok {
				replaced++
			}
			_, err := exec.ExecContext(ctx,
				`INSERT INTO knowledge_chunks (id, knowledge_base_id, content, embedding, chunk_index, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				util.NewULID(), knowledgeBaseID, chunk.Content, pgvector.NewVector(vec), i, now)
			if err != nil {
				return fmt.Errorf("failed to insert chunk %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if replaced > 0 {
		l.Warn("Stored zero vectors for malformed chunk embeddings",
			zap.String("knowledge_base_id", knowledgeBaseID),
			zap.Int("replaced", replaced))
	}
	l.Info("Chunks indexed",
		zap.String("knowledge_base_id", knowledgeBaseID),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// Query ranks chunks of knowledgeBaseIDs by L2 distance to vector. Any vector
// path failure, including a malformed or all-zero query vector, is served by
// the lexical path instead. When both fail the result is empty.
func (ci *ChunkIndex) Query(ctx context.Context, queryText string, vector []float32, knowledgeBaseIDs []string, topK int) []domain.ScoredChunk {
	if topK <= 0 || len(knowledgeBaseIDs) == 0 {
		return []domain.ScoredChunk{}
	}
	l := logger.Get()

	results, err := ci.vectorQuery(ctx, vector, knowledgeBaseIDs, topK)
	if err == nil {
		return results
	}
	l.Warn("Vector search failed, falling back to lexical search",
		zap.Strings("knowledge_base_ids", knowledgeBaseIDs),
		zap.Error(err))

	results, err = ci.lexicalQuery(ctx, queryText, knowledgeBaseIDs, topK)
	if err != nil {
		l.Error("Lexical fallback search failed",
			zap.Strings("knowledge_base_ids", knowledgeBaseIDs),
			zap.Error(err))
		return []domain.ScoredChunk{}
	}
	return results
}

func (ci *ChunkIndex) vectorQuery(ctx context.Context, vector []float32, knowledgeBaseIDs []string, topK int) ([]domain.ScoredChunk, error) {
	if !util.IsValidVector(vector, ci.dim) {
		return nil, fmt.Errorf("malformed query vector of length %d", len(vector))
	}
	if util.IsZeroVector(vector) {
		return nil, errZeroQuery
	}

	var rows []models.ScoredChunk
	query := `SELECT content, knowledge_base_id, chunk_index, (embedding <-> $1) AS score
		FROM knowledge_chunks
		WHERE knowledge_base_id = ANY(string_to_array($2, ','))
		ORDER BY embedding <-> $1, chunk_index
		LIMIT $3`
	if err := GetExecutor(ctx, ci.db).SelectContext(ctx, &rows, query, pgvector.NewVector(vector), joinIDs(knowledgeBaseIDs), topK); err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	out := make([]domain.ScoredChunk, len(rows))
	for i, r := range rows {
		similarity := 0.0
		if r.Score.Valid {
			similarity = util.ClampSimilarity(r.Score.Float64)
		}
		out[i] = domain.ScoredChunk{
			Content:         r.Content,
			KnowledgeBaseID: r.KnowledgeBaseID,
			ChunkIndex:      r.ChunkIndex,
			Similarity:      similarity,
		}
	}
	return rankAndCap(out, topK), nil
}

// lexicalQuery scores chunks by case-insensitive substring match: the full
// query text, then its first half, then no hit. All user text is bound as
// parameters with LIKE metacharacters escaped.
func (ci *ChunkIndex) lexicalQuery(ctx context.Context, queryText string, knowledgeBaseIDs []string, topK int) ([]domain.ScoredChunk, error) {
	full, prefix := lexicalPatterns(queryText)

	var rows []models.ScoredChunk
	query := `SELECT content, knowledge_base_id, chunk_index,
		CASE
			WHEN content ILIKE $2 ESCAPE '\' THEN $4::double precision
			WHEN content ILIKE $3 ESCAPE '\' THEN $5::double precision
			ELSE $6::double precision
		END AS score
		FROM knowledge_chunks
		WHERE knowledge_base_id = ANY(string_to_array($1, ','))
		ORDER BY score DESC, chunk_index
		LIMIT $7`
	err := GetExecutor(ctx, ci.db).SelectContext(ctx, &rows, query,
		joinIDs(knowledgeBaseIDs), full, prefix,
		ci.lexical.FullMatch, ci.lexical.PrefixMatch, ci.lexical.NoMatch, topK)
	if err != nil {
		return nil, fmt.Errorf("lexical query failed: %w", err)
	}

	out := make([]domain.ScoredChunk, len(rows))
	for i, r := range rows {
		out[i] = domain.ScoredChunk{
			Content:         r.Content,
			KnowledgeBaseID: r.KnowledgeBaseID,
			ChunkIndex:      r.ChunkIndex,
			Similarity:      r.Score.Float64,
		}
	}
	return rankAndCap(out, topK), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// lexicalPatterns returns ILIKE patterns for the full text and its first half (by runes).
// An empty half yields a pattern that never matches.
func lexicalPatterns(queryText string) (full, prefix string) {
	text := strings.TrimSpace(queryText)
	runes := []rune(text)
	half := string(runes[:len(runes)/2])

	full = "%" + likeEscaper.Replace(text) + "%"
	if strings.TrimSpace(half) == "" {
		// no row content can contain this control character sequence
		return full, "\x00"
	}
	prefix = "%" + likeEscaper.Replace(half) + "%"
	return full, prefix
}

// rankAndCap enforces descending similarity and the topK bound regardless of backend ordering.
func rankAndCap(in []domain.ScoredChunk, topK int) []domain.ScoredChunk {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].Similarity != in[j].Similarity {
			return in[i].Similarity > in[j].Similarity
		}
		return false
	})
	if len(in) > topK {
		in = in[:topK]
	}
	return in
}

var _ domain.VectorIndex = (*ChunkIndex)(nil)

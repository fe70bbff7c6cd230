package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"rag-quiz/internal/config"
	"rag-quiz/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 3

var testLexical = config.LexicalScores{FullMatch: 0.9, PrefixMatch: 0.7, NoMatch: 0.5}

func newTestChunkIndex(t *testing.T) (*ChunkIndex, sqlmock.Sqlmock) {
	db, mock := setupTestDB(t)
	return NewChunkIndex(db, NewTransactionManagerAdapter(db), testDim, testLexical), mock
}

var chunkColumns = []string{"content", "knowledge_base_id", "chunk_index", "score"}

func TestChunkIndex_Upsert(t *testing.T) {
	idx, mock := newTestChunkIndex(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM knowledge_chunks WHERE knowledge_base_id = $1`)).
		WithArgs("kb1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`INSERT INTO knowledge_chunks`).
		WithArgs(sqlmock.AnyArg(), "kb1", "第一段", sqlmock.AnyArg(), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO knowledge_chunks`).
		WithArgs(sqlmock.AnyArg(), "kb1", "第二段", "[0,0,0]", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	n, err := idx.Upsert(context.Background(), "kb1", []domain.ChunkInput{
		{Content: "第一段", Embedding: []float32{0.1, 0.2, 0.3}},
		{Content: "第二段", Embedding: []float32{1}}, // malformed, stored as zero
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkIndex_UpsertRollsBackOnFailure(t *testing.T) {
	idx, mock := newTestChunkIndex(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM knowledge_chunks`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO knowledge_chunks`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	n, err := idx.Upsert(context.Background(), "kb1", []domain.ChunkInput{{Content: "x", Embedding: []float32{1, 1, 1}}})
	assert.Error(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkIndex_QueryVector(t *testing.T) {
	idx, mock := newTestChunkIndex(t)

	rows := sqlmock.NewRows(chunkColumns).
		AddRow("near", "kb1", 2, 0.2).
		AddRow("far", "kb2", 0, 1.7)
	mock.ExpectQuery(`embedding <-> \$1`).
		WithArgs(sqlmock.AnyArg(), "kb1,kb2", 5).
		WillReturnRows(rows)

	out := idx.Query(context.Background(), "q", []float32{0.1, 0.2, 0.3}, []string{"kb1", "kb2"}, 5)
	require.Len(t, out, 2)
	assert.Equal(t, "near", out[0].Content)
	assert.InDelta(t, 0.8, out[0].Similarity, 1e-9)
	assert.Equal(t, "far", out[1].Content)
	assert.Equal(t, 0.0, out[1].Similarity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkIndex_QueryFallsBackToLexical(t *testing.T) {
	t.Run("vector query error", func(t *testing.T) {
		idx, mock := newTestChunkIndex(t)
		mock.ExpectQuery(`embedding <-> \$1`).WillReturnError(errors.New("extension vector is not installed"))
		mock.ExpectQuery(`ILIKE`).
			WithArgs("kb1", "%光合作用%", "%光合%", 0.9, 0.7, 0.5, 3).
			WillReturnRows(sqlmock.NewRows(chunkColumns).
				AddRow("光合作用是植物的過程", "kb1", 1, 0.9).
				AddRow("其他內容", "kb1", 0, 0.5))

		out := idx.Query(context.Background(), "光合作用", []float32{1, 0, 0}, []string{"kb1"}, 3)
		require.Len(t, out, 2)
		assert.Equal(t, 0.9, out[0].Similarity)
		assert.Equal(t, 0.5, out[1].Similarity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero query vector skips the vector path", func(t *testing.T) {
		idx, mock := newTestChunkIndex(t)
		mock.ExpectQuery(`ILIKE`).
			WillReturnRows(sqlmock.NewRows(chunkColumns).AddRow("a", "kb1", 0, 0.5))

		out := idx.Query(context.Background(), "anything", make([]float32, testDim), []string{"kb1"}, 3)
		require.Len(t, out, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("both paths fail", func(t *testing.T) {
		idx, mock := newTestChunkIndex(t)
		mock.ExpectQuery(`embedding <-> \$1`).WillReturnError(errors.New("boom"))
		mock.ExpectQuery(`ILIKE`).WillReturnError(errors.New("boom again"))

		out := idx.Query(context.Background(), "q", []float32{1, 1, 1}, []string{"kb1"}, 3)
		assert.NotNil(t, out)
		assert.Empty(t, out)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChunkIndex_QueryBounds(t *testing.T) {
	idx, mock := newTestChunkIndex(t)
	assert.Empty(t, idx.Query(context.Background(), "q", []float32{1, 1, 1}, []string{"kb1"}, 0))
	assert.Empty(t, idx.Query(context.Background(), "q", []float32{1, 1, 1}, nil, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

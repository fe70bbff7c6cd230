package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"rag-quiz/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionCols = []string{"id", "owner_id", "session_type", "knowledge_base_ids", "question_types", "difficulty",
	"target_count", "questions", "cursor_position", "completed", "score", "created_at", "completed_at"}

const storedQuestions = `[{"question_text":"水的化學式是？","question_type":"multiple_choice",` +
	`"options":[{"text":"H2O","is_correct":true},{"text":"CO2","is_correct":false}],` +
	`"answer_text":"水由兩個氫原子和一個氧原子組成","explanation":"基本化學"}]`

func TestQuizSessionRepository_Create(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewQuizSessionRepository(db)

	mock.ExpectExec(`INSERT INTO quiz_sessions`).
		WithArgs("s1", "u1", "custom", `["kb1"]`, `["multiple_choice"]`, "medium",
			1, sqlmock.AnyArg(), 0, false, nil, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &domain.QuizSession{
		ID: "s1", OwnerID: "u1", Type: domain.SessionCustom,
		KnowledgeBaseIDs: []string{"kb1"},
		QuestionTypes:    []domain.QuestionType{domain.TypeMultipleChoice},
		Difficulty:       "medium", TargetCount: 1,
		Questions: domain.QuestionList{&domain.MultipleChoice{
			Text:        "水的化學式是？",
			Options:     []domain.Option{{Text: "H2O", IsCorrect: true}, {Text: "CO2"}},
			AnswerText:  "水由兩個氫原子和一個氧原子組成",
			Explanation: "基本化學",
		}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizSessionRepository_GetByID(t *testing.T) {
	now := time.Now()

	t.Run("decodes questions", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectQuery(`FROM quiz_sessions WHERE id = \$1`).
			WithArgs("s1").
			WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(
				"s1", "u1", "custom", []byte(`["kb1"]`), []byte(`["multiple_choice"]`), "medium",
				1, []byte(storedQuestions), 0, false, nil, now, nil))

		s, err := NewQuizSessionRepository(db).GetByID(context.Background(), "s1")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, domain.SessionCustom, s.Type)
		assert.Equal(t, []string{"kb1"}, s.KnowledgeBaseIDs)
		require.Len(t, s.Questions, 1)
		assert.Equal(t, "H2O", s.Questions[0].CorrectAnswer())
		assert.Nil(t, s.Score)
		assert.Nil(t, s.CompletedAt)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectQuery(`FROM quiz_sessions`).WithArgs("s1").WillReturnError(sql.ErrNoRows)
		s, err := NewQuizSessionRepository(db).GetByID(context.Background(), "s1")
		assert.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestQuizSessionRepository_GetForUpdate(t *testing.T) {
	db, mock := setupTestDB(t)
	now := time.Now()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(
			"s1", "u1", "flashcard", `["kb1"]`, `["true_false"]`, "easy",
			1, "[]", 1, true, 100.0, now, now))

	s, err := NewQuizSessionRepository(db).GetForUpdate(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, s.Score)
	assert.Equal(t, 100.0, *s.Score)
	assert.True(t, s.Completed)
	assert.NotNil(t, s.CompletedAt)
}

func TestQuizSessionRepository_UpdateProgress(t *testing.T) {
	score := 51.7
	now := time.Now()
	session := &domain.QuizSession{ID: "s1", Cursor: 3, Completed: true, Score: &score, CompletedAt: &now}

	t.Run("updated", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectExec(`UPDATE quiz_sessions`).
			WithArgs(3, true, 51.7, sqlmock.AnyArg(), "s1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, NewQuizSessionRepository(db).UpdateProgress(context.Background(), session))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectExec(`UPDATE quiz_sessions`).WillReturnResult(sqlmock.NewResult(0, 0))
		err := NewQuizSessionRepository(db).UpdateProgress(context.Background(), session)
		assert.True(t, domain.HasCode(err, domain.ErrNotFound))
	})
}

func TestQuizSessionRepository_StatsByOwner(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectQuery(`FILTER`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{
			"completed_quizzes", "average_score", "completed_flashcards", "flashcard_average_score", "knowledge_base_count",
		}).AddRow(3, 71.66666, 0, nil, 2))

	stats, err := NewQuizSessionRepository(db).StatsByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CompletedQuizzes)
	require.NotNil(t, stats.AverageScore)
	assert.Equal(t, 71.7, *stats.AverageScore)
	assert.Nil(t, stats.FlashcardAverageScore)
	assert.Equal(t, 2, stats.KnowledgeBaseCount)
}

package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/util"
)

// KnowledgeBase maps the knowledge_bases table. ChunkCount is filled by listing queries.
type KnowledgeBase struct {
	ID         string    `db:"id"`
	OwnerID    string    `db:"owner_id"`
	Name       string    `db:"name"`
	Content    string    `db:"content"`
	Summary    string    `db:"summary"`
	ChunkCount int       `db:"chunk_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (m *KnowledgeBase) ToDomain() *domain.KnowledgeBase {
	return &domain.KnowledgeBase{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Name:       m.Name,
		Content:    m.Content,
		Summary:    m.Summary,
		ChunkCount: m.ChunkCount,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// ScoredChunk is a row of either VectorIndex query path.
type ScoredChunk struct {
	Content         string          `db:"content"`
	KnowledgeBaseID string          `db:"knowledge_base_id"`
	ChunkIndex      int             `db:"chunk_index"`
	Score           sql.NullFloat64 `db:"score"`
}

// QuizSession maps the quiz_sessions table.
type QuizSession struct {
	ID               string              `db:"id"`
	OwnerID          string              `db:"owner_id"`
	SessionType      string              `db:"session_type"`
	KnowledgeBaseIDs StringSlice         `db:"knowledge_base_ids"`
	QuestionTypes    StringSlice         `db:"question_types"`
	Difficulty       string              `db:"difficulty"`
	TargetCount      int                 `db:"target_count"`
	Questions        domain.QuestionList `db:"questions"`
	Cursor           int                 `db:"cursor_position"`
	Completed        bool                `db:"completed"`
	Score            sql.NullFloat64     `db:"score"`
	CreatedAt        time.Time           `db:"created_at"`
	CompletedAt      sql.NullTime        `db:"completed_at"`
}

func FromDomainSession(s *domain.QuizSession) *QuizSession {
	types := make(StringSlice, len(s.QuestionTypes))
	for i, t := range s.QuestionTypes {
		types[i] = string(t)
	}
	var completedAt sql.NullTime
	if s.CompletedAt != nil {
		completedAt = util.TimeToNullTime(*s.CompletedAt)
	}
	return &QuizSession{
		ID:               s.ID,
		OwnerID:          s.OwnerID,
		SessionType:      string(s.Type),
		KnowledgeBaseIDs: StringSlice(s.KnowledgeBaseIDs),
		QuestionTypes:    types,
		Difficulty:       s.Difficulty,
		TargetCount:      s.TargetCount,
		Questions:        s.Questions,
		Cursor:           s.Cursor,
		Completed:        s.Completed,
		Score:            util.FloatPtrToNull(s.Score),
		CreatedAt:        s.CreatedAt,
		CompletedAt:      completedAt,
	}
}

func (m *QuizSession) ToDomain() *domain.QuizSession {
	types := make([]domain.QuestionType, len(m.QuestionTypes))
	for i, t := range m.QuestionTypes {
		types[i] = domain.QuestionType(t)
	}
	return &domain.QuizSession{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Type:             domain.SessionType(m.SessionType),
		KnowledgeBaseIDs: []string(m.KnowledgeBaseIDs),
		QuestionTypes:    types,
		Difficulty:       m.Difficulty,
		TargetCount:      m.TargetCount,
		Questions:        m.Questions,
		Cursor:           m.Cursor,
		Completed:        m.Completed,
		Score:            util.NullFloatPtr(m.Score),
		CreatedAt:        m.CreatedAt,
		CompletedAt:      util.NullTimePtr(m.CompletedAt),
	}
}

// QuestionAnswer maps the question_answers table.
type QuestionAnswer struct {
	ID            string    `db:"id"`
	SessionID     string    `db:"session_id"`
	QuestionIndex int       `db:"question_index"`
	QuestionText  string    `db:"question_text"`
	QuestionType  string    `db:"question_type"`
	CorrectAnswer string    `db:"correct_answer"`
	UserAnswer    string    `db:"user_answer"`
	Score         int       `db:"score"`
	AnsweredAt    time.Time `db:"answered_at"`
}

func FromDomainAnswer(a *domain.AnswerRecord) *QuestionAnswer {
	return &QuestionAnswer{
		ID:            a.ID,
		SessionID:     a.SessionID,
		QuestionIndex: a.QuestionIndex,
		QuestionText:  a.QuestionText,
		QuestionType:  string(a.QuestionType),
		CorrectAnswer: a.CorrectAnswer,
		UserAnswer:    a.UserAnswer,
		Score:         a.Score,
		AnsweredAt:    a.AnsweredAt,
	}
}

func (m *QuestionAnswer) ToDomain() *domain.AnswerRecord {
	return &domain.AnswerRecord{
		ID:            m.ID,
		SessionID:     m.SessionID,
		QuestionIndex: m.QuestionIndex,
		QuestionText:  m.QuestionText,
		QuestionType:  domain.QuestionType(m.QuestionType),
		CorrectAnswer: m.CorrectAnswer,
		UserAnswer:    m.UserAnswer,
		Score:         m.Score,
		AnsweredAt:    m.AnsweredAt,
	}
}

// HistoryQuestion maps the history_questions table.
type HistoryQuestion struct {
	OwnerID      string    `db:"owner_id"`
	Fingerprint  string    `db:"fingerprint"`
	QuestionHash string    `db:"question_hash"`
	Payload      []byte    `db:"payload"`
	CreatedAt    time.Time `db:"created_at"`
}

func FromDomainHistory(e *domain.HistoryEntry) (*HistoryQuestion, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history payload: %w", err)
	}
	return &HistoryQuestion{
		OwnerID:      e.OwnerID,
		Fingerprint:  e.Fingerprint,
		QuestionHash: e.QuestionHash,
		Payload:      payload,
		CreatedAt:    e.CreatedAt,
	}, nil
}

func (m *HistoryQuestion) ToDomain() (*domain.HistoryEntry, error) {
	var payload domain.QuestionPayload
	if err := json.Unmarshal(m.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history payload: %w", err)
	}
	return &domain.HistoryEntry{
		OwnerID:      m.OwnerID,
		Fingerprint:  m.Fingerprint,
		QuestionHash: m.QuestionHash,
		Payload:      payload,
		CreatedAt:    m.CreatedAt,
	}, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"rag-quiz/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockKnowledgeBaseRepository ---
type MockKnowledgeBaseRepository struct {
	mock.Mock
}

func (m *MockKnowledgeBaseRepository) Create(ctx context.Context, kb *domain.KnowledgeBase) error {
	args := m.Called(ctx, kb)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeBase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeBase), args.Error(1)
}

func (m *MockKnowledgeBaseRepository) ExistsByName(ctx context.Context, ownerID, name string) (bool, error) {
	args := m.Called(ctx, ownerID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockKnowledgeBaseRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.KnowledgeBase, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeBase), args.Error(1)
}

func (m *MockKnowledgeBaseRepository) CountOwned(ctx context.Context, ownerID string, ids []string) (int, error) {
	args := m.Called(ctx, ownerID, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockKnowledgeBaseRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- MockQuizSessionRepository ---
type MockQuizSessionRepository struct {
	mock.Mock
}

func (m *MockQuizSessionRepository) Create(ctx context.Context, session *domain.QuizSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockQuizSessionRepository) GetByID(ctx context.Context, id string) (*domain.QuizSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizSession), args.Error(1)
}

func (m *MockQuizSessionRepository) GetForUpdate(ctx context.Context, id string) (*domain.QuizSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizSession), args.Error(1)
}

func (m *MockQuizSessionRepository) UpdateProgress(ctx context.Context, session *domain.QuizSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockQuizSessionRepository) StatsByOwner(ctx context.Context, ownerID string) (*domain.UserStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserStats), args.Error(1)
}

// --- MockAnswerRepository ---
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Insert(ctx context.Context, answer *domain.AnswerRecord) (bool, error) {
	args := m.Called(ctx, answer)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnswerRepository) Upsert(ctx context.Context, answer *domain.AnswerRecord) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.AnswerRecord, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AnswerRecord), args.Error(1)
}

// --- MockHistoryRepository ---
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, entries []*domain.HistoryEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockHistoryRepository) Recent(ctx context.Context, ownerID, fingerprint string, limit int) ([]*domain.HistoryEntry, error) {
	args := m.Called(ctx, ownerID, fingerprint, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryEntry), args.Error(1)
}

// --- MockVectorIndex ---
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Upsert(ctx context.Context, knowledgeBaseID string, chunks []domain.ChunkInput) (int, error) {
	args := m.Called(ctx, knowledgeBaseID, chunks)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorIndex) Query(ctx context.Context, queryText string, vector []float32, knowledgeBaseIDs []string, topK int) []domain.ScoredChunk {
	args := m.Called(ctx, queryText, vector, knowledgeBaseIDs, topK)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.ScoredChunk)
}

// fakeEncoder returns a fixed-length vector seeded by text length.
type fakeEncoder struct {
	dim int
}

func (f fakeEncoder) Encode(ctx context.Context, text string) []float32 {
	v := make([]float32, f.dim)
	for i := range v {
		v[i] = float32(len(text))
	}
	return v
}

func (f fakeEncoder) EncodeBatch(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.Encode(ctx, t)
	}
	return out
}

// fakeTxManager runs fn inline.
type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeGenerator is a domain.TextGenerator driven by a function; it records
// the batch size every generation prompt asked for.
type fakeGenerator struct {
	mu      sync.Mutex
	fn      func(ctx context.Context, prompt string) (string, error)
	prompts []string
	sizes   []int
}

var requestedCount = regexp.MustCompile(`請根據內容生成 (\d+) 個題目`)

func (f *fakeGenerator) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	if m := requestedCount.FindStringSubmatch(prompt); m != nil {
		n, _ := strconv.Atoi(m[1])
		f.sizes = append(f.sizes, n)
	}
	f.mu.Unlock()
	return f.fn(ctx, prompt)
}

func (f *fakeGenerator) Ping(ctx context.Context) error { return nil }

// requested returns the batch size asked for by a generation prompt.
func requested(prompt string) int {
	m := requestedCount.FindStringSubmatch(prompt)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// questionsJSON renders n valid questions of type t as a model reply.
func questionsJSON(n int, t domain.QuestionType, offset int) string {
	payloads := make([]domain.QuestionPayload, n)
	for i := range payloads {
		p := domain.QuestionPayload{
			QuestionText: fmt.Sprintf("問題 %d", offset+i),
			QuestionType: t,
			AnswerText:   "參考答案",
			Explanation:  "詳細解釋",
		}
		switch t {
		case domain.TypeTrueFalse:
			p.Options = []domain.Option{{Text: "正確", IsCorrect: true}, {Text: "錯誤"}}
		case domain.TypeMultipleChoice:
			p.Options = []domain.Option{{Text: "甲", IsCorrect: true}, {Text: "乙"}, {Text: "丙"}, {Text: "丁"}}
		}
		payloads[i] = p
	}
	data, _ := json.Marshal(payloads)
	return "```json\n" + string(data) + "\n```"
}

// memCache is an in-memory domain.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error { return nil }
func (c *memCache) Ping(ctx context.Context) error                 { return nil }

package domain

import "context"

// TextGenerator is the generative model capability: given a prompt, return text.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
	// Ping is a cheap availability probe.
	Ping(ctx context.Context) error
}

// Encoder turns text into vectors of length EmbeddingDimension. It never
// fails: unavailable or failing items are encoded as zero vectors.
type Encoder interface {
	Encode(ctx context.Context, text string) []float32
	EncodeBatch(ctx context.Context, texts []string) [][]float32
}

// VectorIndex stores chunk vectors per knowledge base and serves ranked
// nearest-neighbour queries, falling back to lexical matching on failure.
type VectorIndex interface {
	// Upsert replaces every chunk of the knowledge base atomically and
	// returns the number written.
	Upsert(ctx context.Context, knowledgeBaseID string, chunks []ChunkInput) (int, error)
	// Query returns at most topK hits ordered by descending similarity.
	Query(ctx context.Context, queryText string, vector []float32, knowledgeBaseIDs []string, topK int) []ScoredChunk
}

// KnowledgeBaseRepository persists uploaded documents.
type KnowledgeBaseRepository interface {
	Create(ctx context.Context, kb *KnowledgeBase) error
	// GetByID returns nil, nil when the knowledge base does not exist.
	GetByID(ctx context.Context, id string) (*KnowledgeBase, error)
	ExistsByName(ctx context.Context, ownerID, name string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*KnowledgeBase, error)
	CountOwned(ctx context.Context, ownerID string, ids []string) (int, error)
	Delete(ctx context.Context, id string) error
}

// QuizSessionRepository persists quiz sessions and their progress.
type QuizSessionRepository interface {
	Create(ctx context.Context, session *QuizSession) error
	// GetByID returns nil, nil when the session does not exist.
	GetByID(ctx context.Context, id string) (*QuizSession, error)
	// GetForUpdate locks the session row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id string) (*QuizSession, error)
	UpdateProgress(ctx context.Context, session *QuizSession) error
	StatsByOwner(ctx context.Context, ownerID string) (*UserStats, error)
}

// AnswerRepository persists graded answers, one per (session, question index).
type AnswerRepository interface {
	// Insert returns false when an answer for the index already exists.
	Insert(ctx context.Context, answer *AnswerRecord) (bool, error)
	// Upsert overwrites any previous answer for the index.
	Upsert(ctx context.Context, answer *AnswerRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]*AnswerRecord, error)
}

// HistoryRepository is the append-only store behind the history ledger.
type HistoryRepository interface {
	Append(ctx context.Context, entries []*HistoryEntry) error
	Recent(ctx context.Context, ownerID, fingerprint string, limit int) ([]*HistoryEntry, error)
}

// TransactionManager runs fn in a single database transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

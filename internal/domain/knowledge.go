package domain

import "time"

// EmbeddingDimension is the fixed length of every chunk and query vector.
const EmbeddingDimension = 768

// KnowledgeBase is an uploaded plain-text document owned by a single user.
type KnowledgeBase struct {
	ID         string
	OwnerID    string
	Name       string
	Content    string
	Summary    string
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Chunk is a retrieval passage belonging to exactly one KnowledgeBase.
type Chunk struct {
	ID              string
	KnowledgeBaseID string
	Content         string
	Embedding       []float32
	ChunkIndex      int
	CreatedAt       time.Time
}

// ChunkInput is a passage with its vector, ready to be written to the index.
type ChunkInput struct {
	Content   string
	Embedding []float32
}

// ScoredChunk is one ranked VectorIndex hit.
type ScoredChunk struct {
	Content         string  `json:"content"`
	KnowledgeBaseID string  `json:"knowledge_base_id"`
	ChunkIndex      int     `json:"chunk_index"`
	Similarity      float64 `json:"similarity"`
}

// UploadResult reports the outcome of the upload pipeline. Warning is set
// when the knowledge base was stored but its embeddings could not be built.
type UploadResult struct {
	KnowledgeBase *KnowledgeBase
	ChunkCount    int
	Warning       string
}

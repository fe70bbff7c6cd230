package dto

import (
	"time"

	"rag-quiz/internal/domain"
)

// KnowledgeBaseResponse represents an uploaded document in the API response
// @Description Knowledge base metadata; the document body is not returned
type KnowledgeBaseResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Summary    string    `json:"summary"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UploadResponse is returned by upload and reindex.
type UploadResponse struct {
	KnowledgeBase KnowledgeBaseResponse `json:"knowledge_base"`
	ChunkCount    int                   `json:"chunk_count"`
	Warning       string                `json:"warning,omitempty"`
}

// KnowledgeBaseListResponse wraps the owner's knowledge bases.
type KnowledgeBaseListResponse struct {
	KnowledgeBases []KnowledgeBaseResponse `json:"knowledge_bases"`
}

func NewKnowledgeBaseResponse(kb *domain.KnowledgeBase) KnowledgeBaseResponse {
	return KnowledgeBaseResponse{
		ID:         kb.ID,
		Name:       kb.Name,
		Summary:    kb.Summary,
		ChunkCount: kb.ChunkCount,
		CreatedAt:  kb.CreatedAt,
		UpdatedAt:  kb.UpdatedAt,
	}
}

func NewUploadResponse(result *domain.UploadResult) UploadResponse {
	return UploadResponse{
		KnowledgeBase: NewKnowledgeBaseResponse(result.KnowledgeBase),
		ChunkCount:    result.ChunkCount,
		Warning:       result.Warning,
	}
}

package service

import (
	"context"
	"strings"

	"rag-quiz/internal/config"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"go.uber.org/zap"
)

// ContentAssembler builds the generation context for a set of knowledge bases.
type ContentAssembler struct {
	encoder     domain.Encoder
	index       domain.VectorIndex
	typeQueries map[string]string
	topK        int
}

func NewContentAssembler(encoder domain.Encoder, index domain.VectorIndex, cfg config.RAGConfig) *ContentAssembler {
	topK := cfg.TopKPerType
	if topK <= 0 {
		topK = 3
	}
	return &ContentAssembler{encoder: encoder, index: index, typeQueries: cfg.TypeQueries, topK: topK}
}

// Assemble queries the index once per question type with that type's canonical
// retrieval phrase, deduplicates passages by content in query order, keeps at
// most maxChunks and joins them with blank lines.
func (a *ContentAssembler) Assemble(ctx context.Context, knowledgeBaseIDs []string, types []domain.QuestionType, maxChunks int) (string, error) {
	l := logger.Get()
	seen := make(map[string]struct{})
	var passages []string

	for _, t := range types {
		query, ok := a.typeQueries[string(t)]
		if !ok {
			l.Warn("No retrieval query for question type, skipping", zap.String("question_type", string(t)))
			continue
		}
		hits := a.index.Query(ctx, query, a.encoder.Encode(ctx, query), knowledgeBaseIDs, a.topK)
		for _, h := range hits {
			if _, dup := seen[h.Content]; dup {
				continue
			}
			seen[h.Content] = struct{}{}
			passages = append(passages, h.Content)
		}
	}

	if maxChunks > 0 && len(passages) > maxChunks {
		passages = passages[:maxChunks]
	}
	content := strings.Join(passages, "\n\n")
	if strings.TrimSpace(content) == "" {
		return "", domain.NewEmptyContextError()
	}

	l.Info("Assembled generation context",
		zap.Strings("knowledge_base_ids", knowledgeBaseIDs),
		zap.Int("passages", len(passages)))
	return content, nil
}

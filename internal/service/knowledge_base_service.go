package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"rag-quiz/internal/config"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"
	"rag-quiz/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const indexWarning = "Knowledge base saved, but its search index could not be built; quizzes will use keyword matching."

// KnowledgeBaseService handles uploads and the lifecycle of knowledge bases.
type KnowledgeBaseService interface {
	Upload(ctx context.Context, ownerID, name string, content []byte) (*domain.UploadResult, error)
	List(ctx context.Context, ownerID string) ([]*domain.KnowledgeBase, error)
	Get(ctx context.Context, ownerID, id string) (*domain.KnowledgeBase, error)
	Delete(ctx context.Context, ownerID, id string) error
	Reindex(ctx context.Context, ownerID, id string) (*domain.UploadResult, error)
}

type knowledgeBaseService struct {
	repo      domain.KnowledgeBaseRepository
	index     domain.VectorIndex
	encoder   domain.Encoder
	generator domain.TextGenerator
	chunker   *Chunker
	cfg       config.KnowledgeConfig
	language  string
	now       func() time.Time
}

func NewKnowledgeBaseService(
	repo domain.KnowledgeBaseRepository,
	index domain.VectorIndex,
	encoder domain.Encoder,
	generator domain.TextGenerator,
	chunker *Chunker,
	cfg *config.Config,
) KnowledgeBaseService {
	return &knowledgeBaseService{
		repo:      repo,
		index:     index,
		encoder:   encoder,
		generator: generator,
		chunker:   chunker,
		cfg:       cfg.Knowledge,
		language:  cfg.Quiz.Language,
		now:       time.Now,
	}
}

// Upload stores a plain-text document. The summary and the chunk embeddings
// are produced concurrently; neither can fail the upload. A failed index
// write keeps the knowledge base and returns a warning.
func (s *knowledgeBaseService) Upload(ctx context.Context, ownerID, name string, content []byte) (*domain.UploadResult, error) {
	l := logger.Get()
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewInvalidInputError("Knowledge base name is required")
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(content)) > s.cfg.MaxUploadBytes {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("File exceeds the %d byte limit", s.cfg.MaxUploadBytes))
	}
	if !utf8.Valid(content) {
		return nil, domain.NewInvalidInputError("File must be UTF-8 encoded text")
	}

	exists, err := s.repo.ExistsByName(ctx, ownerID, name)
	if err != nil {
		return nil, domain.NewInternalError("Failed to check knowledge base name", err)
	}
	if exists {
		return nil, domain.NewConflictError(fmt.Sprintf("A knowledge base named %q already exists", name))
	}

	text := string(content)
	var summary string
	var chunks []domain.ChunkInput

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = s.summarize(gctx, text)
		return nil
	})
	g.Go(func() error {
		chunks = s.embedChunks(gctx, text)
		return nil
	})
	_ = g.Wait()

	now := s.now()
	kb := &domain.KnowledgeBase{
		ID:        util.NewULID(),
		OwnerID:   ownerID,
		Name:      name,
		Content:   text,
		Summary:   summary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, kb); err != nil {
		return nil, domain.NewInternalError("Failed to save knowledge base", err)
	}

	result := &domain.UploadResult{KnowledgeBase: kb}
	if len(chunks) == 0 {
		l.Info("Knowledge base has no chunks above the noise threshold", zap.String("knowledge_base_id", kb.ID))
		return result, nil
	}

	n, err := s.index.Upsert(ctx, kb.ID, chunks)
	if err != nil {
		l.Error("Failed to index knowledge base chunks",
			zap.String("knowledge_base_id", kb.ID),
			zap.Int("chunks", len(chunks)),
			zap.Error(err))
		result.Warning = indexWarning
		return result, nil
	}
	kb.ChunkCount = n
	result.ChunkCount = n

	l.Info("Knowledge base uploaded",
		zap.String("knowledge_base_id", kb.ID),
		zap.String("owner_id", ownerID),
		zap.Int("chunks", n))
	return result, nil
}

func (s *knowledgeBaseService) embedChunks(ctx context.Context, text string) []domain.ChunkInput {
	passages := s.chunker.Split(text)
	if len(passages) == 0 {
		return nil
	}
	vectors := s.encoder.EncodeBatch(ctx, passages)
	chunks := make([]domain.ChunkInput, len(passages))
	for i, p := range passages {
		chunks[i] = domain.ChunkInput{Content: p}
		if i < len(vectors) {
			chunks[i].Embedding = vectors[i]
		}
	}
	return chunks
}

// summarize asks the model for a short summary of the document opening.
func (s *knowledgeBaseService) summarize(ctx context.Context, text string) string {
	excerpt := truncateRunes(text, s.cfg.SummaryInputRunes)

	callCtx := ctx
	if s.cfg.SummaryTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.SummaryTimeout)
		defer cancel()
	}

	reply, err := s.generator.Complete(callCtx, buildSummaryPrompt(excerpt, s.language, s.cfg.SummaryMaxRunes), 0.5)
	if err != nil {
		logger.Get().Warn("Summary generation failed, using fallback", zap.Error(err))
		return s.cfg.SummaryFallback
	}
	summary := strings.TrimSpace(reply)
	if summary == "" {
		return s.cfg.SummaryFallback
	}
	return truncateRunes(summary, s.cfg.SummaryMaxRunes)
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (s *knowledgeBaseService) List(ctx context.Context, ownerID string) ([]*domain.KnowledgeBase, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list knowledge bases", err)
	}
	return list, nil
}

// Get returns NOT_FOUND for knowledge bases owned by someone else.
func (s *knowledgeBaseService) Get(ctx context.Context, ownerID, id string) (*domain.KnowledgeBase, error) {
	kb, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get knowledge base", err)
	}
	if kb == nil || kb.OwnerID != ownerID {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Knowledge base %s not found", id))
	}
	return kb, nil
}

func (s *knowledgeBaseService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if domain.HasCode(err, domain.ErrNotFound) {
			return err
		}
		return domain.NewInternalError("Failed to delete knowledge base", err)
	}
	logger.Get().Info("Knowledge base deleted", zap.String("knowledge_base_id", id), zap.String("owner_id", ownerID))
	return nil
}

// Reindex rebuilds the chunk embeddings of a stored knowledge base.
func (s *knowledgeBaseService) Reindex(ctx context.Context, ownerID, id string) (*domain.UploadResult, error) {
	kb, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	chunks := s.embedChunks(ctx, kb.Content)
	n, err := s.index.Upsert(ctx, kb.ID, chunks)
	if err != nil {
		return nil, domain.NewInternalError("Failed to rebuild search index", err)
	}
	kb.ChunkCount = n
	return &domain.UploadResult{KnowledgeBase: kb, ChunkCount: n}, nil
}

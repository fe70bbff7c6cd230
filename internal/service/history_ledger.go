package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"go.uber.org/zap"
)

// HistoryLedger remembers generated questions per owner and knowledge base set
// so later prompts can ask the model not to repeat them. It never fails its caller.
type HistoryLedger struct {
	repo domain.HistoryRepository
	now  func() time.Time
}

func NewHistoryLedger(repo domain.HistoryRepository) *HistoryLedger {
	return &HistoryLedger{repo: repo, now: time.Now}
}

// Fingerprint is the order-independent key of a knowledge base set.
func Fingerprint(knowledgeBaseIDs []string) string {
	ids := append([]string(nil), knowledgeBaseIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// QuestionHash identifies a question by its text.
func QuestionHash(questionText string) string {
	sum := md5.Sum([]byte(questionText))
	return hex.EncodeToString(sum[:])
}

func (h *HistoryLedger) Record(ctx context.Context, ownerID string, knowledgeBaseIDs []string, questions []domain.Question) {
	if len(questions) == 0 {
		return
	}
	fp := Fingerprint(knowledgeBaseIDs)
	now := h.now()
	entries := make([]*domain.HistoryEntry, len(questions))
	for i, q := range questions {
		entries[i] = &domain.HistoryEntry{
			OwnerID:      ownerID,
			Fingerprint:  fp,
			QuestionHash: QuestionHash(q.Prompt()),
			Payload:      q.Payload(),
			// keeps batch order stable under created_at DESC
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		}
	}
	if err := h.repo.Append(ctx, entries); err != nil {
		logger.Get().Error("Failed to record question history",
			zap.String("owner_id", ownerID),
			zap.String("fingerprint", fp),
			zap.Error(err))
	}
}

// Recent returns up to limit payloads for the knowledge base set, newest first.
func (h *HistoryLedger) Recent(ctx context.Context, ownerID string, knowledgeBaseIDs []string, limit int) []domain.QuestionPayload {
	if limit <= 0 {
		return nil
	}
	fp := Fingerprint(knowledgeBaseIDs)
	entries, err := h.repo.Recent(ctx, ownerID, fp, limit)
	if err != nil {
		logger.Get().Error("Failed to read question history",
			zap.String("owner_id", ownerID),
			zap.String("fingerprint", fp),
			zap.Error(err))
		return nil
	}
	out := make([]domain.QuestionPayload, len(entries))
	for i, e := range entries {
		out[i] = e.Payload
	}
	return out
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rag-quiz/internal/cache"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"go.uber.org/zap"
)

// ResultCache holds results of finished linear quizzes, which can no longer change.
type ResultCache interface {
	Get(ctx context.Context, sessionID string) (*domain.SessionResult, bool)
	Put(ctx context.Context, result *domain.SessionResult)
}

type resultCache struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewResultCache falls back to a no-op implementation when c is nil.
func NewResultCache(c domain.Cache, ttl time.Duration) ResultCache {
	if c == nil {
		return noopResultCache{}
	}
	return &resultCache{cache: c, ttl: ttl}
}

func resultCacheKey(sessionID string) string {
	return cache.GenerateCacheKey("quiz", "result", sessionID)
}

func (r *resultCache) Get(ctx context.Context, sessionID string) (*domain.SessionResult, bool) {
	key := resultCacheKey(sessionID)
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Result cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var result domain.SessionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil || result.Session == nil {
		logger.Get().Warn("Discarding undecodable cached result", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &result, true
}

// Put only stores completed custom sessions; flashcard decks stay editable after completion.
func (r *resultCache) Put(ctx context.Context, result *domain.SessionResult) {
	if result == nil || result.Session == nil || !result.Session.Completed || result.Session.Type != domain.SessionCustom {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		logger.Get().Warn("Failed to encode result for cache", zap.Error(err))
		return
	}
	key := resultCacheKey(result.Session.ID)
	if err := r.cache.Set(ctx, key, string(data), r.ttl); err != nil {
		logger.Get().Warn("Result cache write failed", zap.String("key", key), zap.Error(err))
	}
}

type noopResultCache struct{}

func (noopResultCache) Get(context.Context, string) (*domain.SessionResult, bool) { return nil, false }
func (noopResultCache) Put(context.Context, *domain.SessionResult)               {}

package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"rag-quiz/internal/cache"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"go.uber.org/zap"
)

// GradeCacheExpiration bounds how long a rubric score is reused.
const GradeCacheExpiration = 24 * time.Hour

// GradeCache remembers rubric scores for identical submissions to the same question.
type GradeCache interface {
	Get(ctx context.Context, q domain.Question, submission string) (int, bool)
	Put(ctx context.Context, q domain.Question, submission string, score int)
}

type gradeCache struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewGradeCache returns nil when c is nil so callers can skip caching entirely.
func NewGradeCache(c domain.Cache, ttl time.Duration) GradeCache {
	if c == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = GradeCacheExpiration
	}
	return &gradeCache{cache: c, ttl: ttl}
}

func gradeCacheKey(q domain.Question, submission string) string {
	questionKey := QuestionHash(q.Prompt() + "\x00" + q.CorrectAnswer())
	answerKey := QuestionHash(strings.Join(strings.Fields(submission), " "))
	return cache.GenerateCacheKey("grading", string(q.Kind()), questionKey, answerKey)
}

func (g *gradeCache) Get(ctx context.Context, q domain.Question, submission string) (int, bool) {
	key := gradeCacheKey(q, submission)
	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Grade cache read failed", zap.String("key", key), zap.Error(err))
		}
		return 0, false
	}
	score, err := strconv.Atoi(raw)
	if err != nil || score < 0 || score > 100 {
		logger.Get().Warn("Ignoring malformed cached grade", zap.String("key", key), zap.String("value", raw))
		return 0, false
	}
	logger.Get().Debug("Grade cache hit", zap.String("key", key), zap.Int("score", score))
	return score, true
}

func (g *gradeCache) Put(ctx context.Context, q domain.Question, submission string, score int) {
	key := gradeCacheKey(q, submission)
	if err := g.cache.Set(ctx, key, strconv.Itoa(score), g.ttl); err != nil {
		logger.Get().Warn("Grade cache write failed", zap.String("key", key), zap.Error(err))
	}
}

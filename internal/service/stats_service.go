package service

import (
	"context"

	"rag-quiz/internal/domain"
)

// StatsService reports an owner's activity.
type StatsService interface {
	UserStats(ctx context.Context, ownerID string) (*domain.UserStats, error)
}

type statsService struct {
	sessions domain.QuizSessionRepository
}

func NewStatsService(sessions domain.QuizSessionRepository) StatsService {
	return &statsService{sessions: sessions}
}

func (s *statsService) UserStats(ctx context.Context, ownerID string) (*domain.UserStats, error) {
	stats, err := s.sessions.StatsByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load statistics", err)
	}
	return stats, nil
}

package service

import (
	"context"
	"time"

	"stars-shop-backend/internal/features/stats/models"
	"stars-shop-backend/internal/features/stats/repository"
)

type StatsService interface {
	GetStatistics(ctx context.Context) (*models.Statistics, error)
	// RecordStarsSent satisfies the purchase service's StatsRecorder.
	RecordStarsSent(ctx context.Context, amount int64) error
}

type statsService struct {
	repo repository.StatsRepository
	now  func() time.Time
}

func NewStatsService(repo repository.StatsRepository) StatsService {
	return &statsService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *statsService) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	return s.repo.GetStatistics(ctx, s.now())
}

func (s *statsService) RecordStarsSent(ctx context.Context, amount int64) error {
	return s.repo.RecordStarsSent(ctx, amount, s.now())
}

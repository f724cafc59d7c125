package repository

import (
	"context"
	"time"

	"stars-shop-backend/internal/features/stats/models"
)

type StatsRepository interface {
	RecordStarsSent(ctx context.Context, amount int64, at time.Time) error
	GetStatistics(ctx context.Context, now time.Time) (*models.Statistics, error)
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stars-shop-backend/internal/features/stats/models"
	"stars-shop-backend/internal/features/stats/repository"
)

const (
	totalKey = "stats:stars:total"
	// Daily counters live long enough to serve the "yesterday" figure.
	dayKeyTTL = 48 * time.Hour
)

type statsRepository struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) repository.StatsRepository {
	return &statsRepository{
		client: client,
	}
}

func dayKey(t time.Time) string {
	return fmt.Sprintf("stats:stars:day:%s", t.UTC().Format("2006-01-02"))
}

func (r *statsRepository) RecordStarsSent(ctx context.Context, amount int64, at time.Time) error {
	key := dayKey(at)

	pipe := r.client.TxPipeline()
	pipe.IncrBy(ctx, totalKey, amount)
	pipe.IncrBy(ctx, key, amount)
	pipe.Expire(ctx, key, dayKeyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *statsRepository) GetStatistics(ctx context.Context, now time.Time) (*models.Statistics, error) {
	total, err := r.counter(ctx, totalKey)
	if err != nil {
		return nil, err
	}
	today, err := r.counter(ctx, dayKey(now))
	if err != nil {
		return nil, err
	}
	yesterday, err := r.counter(ctx, dayKey(now.AddDate(0, 0, -1)))
	if err != nil {
		return nil, err
	}

	return &models.Statistics{
		TotalStarsSent:     total,
		YesterdayStarsSent: yesterday,
		TodayStarsSent:     today,
	}, nil
}

func (r *statsRepository) counter(ctx context.Context, key string) (int64, error) {
	value, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return value, nil
}

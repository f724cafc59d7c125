package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stars-shop-backend/internal/features/purchase/models"
	"stars-shop-backend/internal/features/purchase/repository"
)

// Purchases are short-lived records: terminal within 15 minutes, kept a day
// for status re-checks and support lookups.
const purchaseTTL = 24 * time.Hour

type purchaseRepository struct {
	client *redis.Client
}

func NewPurchaseRepository(client *redis.Client) repository.PurchaseRepository {
	return &purchaseRepository{
		client: client,
	}
}

func purchaseKey(id string) string {
	return fmt.Sprintf("purchase:%s", id)
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	purchaseJSON, err := json.Marshal(purchase)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, purchaseKey(purchase.ID), purchaseJSON, purchaseTTL).Err()
}

func (r *purchaseRepository) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	purchaseJSON, err := r.client.Get(ctx, purchaseKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var purchase models.Purchase
	if err := json.Unmarshal(purchaseJSON, &purchase); err != nil {
		return nil, err
	}

	return &purchase, nil
}

func (r *purchaseRepository) UpdateStatus(ctx context.Context, id string, status models.Status, transactionID, errorMessage string) error {
	purchase, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	purchase.Status = status
	purchase.TransactionID = transactionID
	purchase.ErrorMessage = errorMessage

	purchaseJSON, err := json.Marshal(purchase)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, purchaseKey(id), purchaseJSON, redis.KeepTTL).Err()
}

func (r *purchaseRepository) ListByStatus(ctx context.Context, status models.Status) ([]*models.Purchase, error) {
	var purchases []*models.Purchase
	iter := r.client.Scan(ctx, 0, "purchase:*", 0).Iterator()

	for iter.Next(ctx) {
		purchaseJSON, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}

		var purchase models.Purchase
		if err := json.Unmarshal(purchaseJSON, &purchase); err != nil {
			continue
		}

		if purchase.Status == status {
			purchases = append(purchases, &purchase)
		}
	}

	return purchases, iter.Err()
}

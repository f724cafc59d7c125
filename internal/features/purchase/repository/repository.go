package repository

import (
	"context"
	"errors"

	"stars-shop-backend/internal/features/purchase/models"
)

var ErrNotFound = errors.New("purchase not found")

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *models.Purchase) error
	GetByID(ctx context.Context, id string) (*models.Purchase, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, transactionID, errorMessage string) error
	// ListByStatus is used on startup to find purchases whose payment
	// watchers did not survive a restart.
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Purchase, error)
}

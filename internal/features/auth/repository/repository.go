package repository

import (
	"context"
	"errors"
	"time"

	"stars-shop-backend/internal/features/auth/models"
)

var ErrTokenNotFound = errors.New("login token not found")

// TokenRepository stores one-time login tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.LoginToken, ttl time.Duration) error
	// Consume returns the token payload and atomically removes it, so a
	// second consumption of the same token fails with ErrTokenNotFound.
	Consume(ctx context.Context, token string) (*models.LoginToken, error)
}

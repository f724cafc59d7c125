package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stars-shop-backend/internal/features/auth/models"
	"stars-shop-backend/internal/features/auth/repository"
)

type tokenRepository struct {
	client *redis.Client
}

func NewTokenRepository(client *redis.Client) repository.TokenRepository {
	return &tokenRepository{
		client: client,
	}
}

func tokenKey(token string) string {
	return fmt.Sprintf("login_token:%s", token)
}

func (r *tokenRepository) Create(ctx context.Context, token *models.LoginToken, ttl time.Duration) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, tokenKey(token.Token), tokenJSON, ttl).Err()
}

func (r *tokenRepository) Consume(ctx context.Context, token string) (*models.LoginToken, error) {
	tokenJSON, err := r.client.GetDel(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrTokenNotFound
		}
		return nil, err
	}

	var record models.LoginToken
	if err := json.Unmarshal(tokenJSON, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stars-shop-backend/internal/features/auth/models"
	"stars-shop-backend/internal/features/auth/repository"
)

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]*models.LoginToken
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: map[string]*models.LoginToken{}}
}

func (r *memoryTokens) Create(ctx context.Context, token *models.LoginToken, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokens) Consume(ctx context.Context, token string) (*models.LoginToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	delete(r.tokens, token)
	return record, nil
}

func TestLoginTokenSingleUse(t *testing.T) {
	svc := NewAuthService(newMemoryTokens(), "bot-token", false)

	token, err := svc.CreateLoginToken(context.Background(), 42, "alice", "Alice A")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := svc.VerifyLoginToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.UserID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice A", user.Fullname)

	// the token is consumed: a replay must be rejected
	_, err = svc.VerifyLoginToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyUnknownLoginToken(t *testing.T) {
	svc := NewAuthService(newMemoryTokens(), "bot-token", false)

	_, err := svc.VerifyLoginToken(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyInitDataRejectsTampered(t *testing.T) {
	svc := NewAuthService(newMemoryTokens(), "bot-token", false)

	cases := []string{
		"",
		"not a query string at all",
		"query_id=1&user=%7B%22id%22%3A42%7D&hash=deadbeef",
	}

	for _, raw := range cases {
		_, err := svc.VerifyInitData(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	}
}

func TestFullname(t *testing.T) {
	assert.Equal(t, "Alice A", fullname("Alice", "A"))
	assert.Equal(t, "Alice", fullname("Alice", ""))
	assert.Equal(t, "", fullname("", ""))
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"stars-shop-backend/internal/features/auth/models"
	"stars-shop-backend/internal/features/auth/repository"
)

var (
	ErrInvalidInitData = errors.New("invalid init data")
	ErrInvalidToken    = errors.New("invalid or already used token")
)

const loginTokenTTL = 10 * time.Minute

type AuthService interface {
	VerifyInitData(ctx context.Context, raw string) (*models.VerifiedUser, error)
	VerifyLoginToken(ctx context.Context, token string) (*models.VerifiedUser, error)
	// CreateLoginToken issues a single-use token for a bot deep link that
	// lets a plain-browser session authenticate as the given user.
	CreateLoginToken(ctx context.Context, userID int64, username, fullname string) (string, error)
}

type authService struct {
	tokens   repository.TokenRepository
	botToken string
	expIn    time.Duration
}

func NewAuthService(tokens repository.TokenRepository, botToken string, debug bool) AuthService {
	expIn := 20 * time.Minute
	if debug {
		expIn = 5000 * time.Hour
	}

	return &authService{
		tokens:   tokens,
		botToken: botToken,
		expIn:    expIn,
	}
}

func (s *authService) VerifyInitData(ctx context.Context, raw string) (*models.VerifiedUser, error) {
	if err := initdata.Validate(raw, s.botToken, s.expIn); err != nil {
		return nil, ErrInvalidInitData
	}

	parsed, err := initdata.Parse(raw)
	if err != nil {
		return nil, ErrInvalidInitData
	}
	if parsed.User.ID == 0 {
		return nil, ErrInvalidInitData
	}

	return &models.VerifiedUser{
		UserID:   parsed.User.ID,
		Username: parsed.User.Username,
		Fullname: fullname(parsed.User.FirstName, parsed.User.LastName),
	}, nil
}

func (s *authService) VerifyLoginToken(ctx context.Context, token string) (*models.VerifiedUser, error) {
	record, err := s.tokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &models.VerifiedUser{
		UserID:   record.UserID,
		Username: record.Username,
		Fullname: record.Fullname,
	}, nil
}

func (s *authService) CreateLoginToken(ctx context.Context, userID int64, username, fullname string) (string, error) {
	token := uuid.New().String()

	record := &models.LoginToken{
		Token:     token,
		UserID:    userID,
		Username:  username,
		Fullname:  fullname,
		CreatedAt: time.Now(),
	}

	if err := s.tokens.Create(ctx, record, loginTokenTTL); err != nil {
		return "", err
	}

	return token, nil
}

func fullname(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/repository"
	"exchanger/exchange-service/internal/app/exchange/util"
	"exchanger/pkg/metrics"
)

// AuthService выдает и проверяет токены сессий
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *util.JWTManager
}

func NewAuthService(userRepo repository.UserRepository, jwtManager *util.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Login проверяет email и пароль и возвращает токен
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		metrics.AuthLogins.WithLabelValues("failed").Inc()
		return "", ErrMissingCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		metrics.AuthLogins.WithLabelValues("failed").Inc()
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !util.CheckPassword(password, user.PasswordDigest) {
		metrics.AuthLogins.WithLabelValues("failed").Inc()
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	return token, nil
}

// Authenticate проверяет токен и возвращает его владельца
func (s *AuthService) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

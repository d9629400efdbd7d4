package repository

import (
	"context"
	"errors"
	"time"

	"exchanger/exchange-service/internal/app/exchange/entity"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrSnapshotNotFound = errors.New("rates snapshot not found")
)

// UserRepository - пользователи в PostgreSQL (pgx)
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository - транзакции конвертации в PostgreSQL (GORM)
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	CreateBatch(ctx context.Context, txs []entity.Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Transaction, error)
}

// RatesSnapshotRepository - общий для всех инстансов снимок курсов в Redis
type RatesSnapshotRepository interface {
	// Get возвращает ErrSnapshotNotFound, если ключа нет или он истёк
	Get(ctx context.Context, key string) (map[string]float64, error)

	// Set сохраняет курсы с TTL
	Set(ctx context.Context, key string, rates map[string]float64, ttl time.Duration) error
}

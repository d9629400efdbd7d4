package repository

import (
	"context"
	"fmt"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const serviceName = "exchange-service"

type transactionRepository struct {
	db *gorm.DB // GORM DB для работы с PostgreSQL
}

// NewTransactionRepository создает новый репозиторий транзакций
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create сохраняет транзакцию
func (r *transactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "transactions")
	defer timer.ObserveDuration()

	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateBatch сохраняет несколько транзакций одной вставкой (используется при сидировании)
func (r *transactionRepository) CreateBatch(ctx context.Context, txs []entity.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "transactions")
	defer timer.ObserveDuration()

	if err := r.db.WithContext(ctx).Create(&txs).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create transactions: %w", err)
	}
	return nil
}

// ListByUser возвращает транзакции пользователя, новые первыми
func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Transaction, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "transactions")
	defer timer.ObserveDuration()

	var txs []entity.Transaction
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txs)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list transactions: %w", result.Error)
	}

	return txs, nil
}

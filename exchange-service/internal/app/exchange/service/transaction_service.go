package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/infrastructure"
	"exchanger/exchange-service/internal/app/exchange/repository"
	"exchanger/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionService конвертирует сумму, сохраняет транзакцию и публикует событие в Kafka
type TransactionService struct {
	conversion ConversionServiceInterface
	txRepo     repository.TransactionRepository
	userRepo   repository.UserRepository
	publisher  infrastructure.MessagePublisher
	log        zerolog.Logger
}

// NewTransactionService создает сервис транзакций. publisher может быть nil, тогда события не отправляются.
func NewTransactionService(
	conversion ConversionServiceInterface,
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	publisher infrastructure.MessagePublisher,
	log zerolog.Logger,
) *TransactionService {
	return &TransactionService{
		conversion: conversion,
		txRepo:     txRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		log:        log,
	}
}

// Create выполняет конвертацию и сохраняет транзакцию пользователя
// 1. Конвертирует сумму по актуальным курсам
// 2. Округляет значения под точность колонок и проверяет границы
// 3. Сохраняет транзакцию в БД
// 4. Отправляет событие TRANSACTION_CREATED
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, req entity.ConversionRequest) (*entity.Transaction, error) {
	result, err := s.conversion.Convert(ctx, req.Amount, req.BaseCurrency, req.TargetCurrency)
	if err != nil {
		metrics.TransactionsCreated.WithLabelValues("rejected").Inc()
		return nil, err
	}

	tx := &entity.Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		FromCurrency: result.BaseCurrency,
		ToCurrency:   result.TargetCurrency,
		FromValue:    req.Amount.Round(entity.ValueScale),
		ToValue:      result.ConvertedValue.Round(entity.ValueScale),
		Rate:         decimal.NewFromFloat(result.Rate).Round(entity.RateScale),
	}

	if msgs := tx.Validate(); len(msgs) > 0 {
		metrics.TransactionsCreated.WithLabelValues("rejected").Inc()
		return nil, &TransactionValidationError{Messages: msgs}
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		metrics.TransactionsCreated.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}
	metrics.TransactionsCreated.WithLabelValues("success").Inc()

	if err := s.publishCreated(ctx, tx); err != nil {
		// транзакция уже сохранена, ошибка брокера не возвращается клиенту
		s.log.Error().
			Err(err).
			Str("transaction_id", tx.ID.String()).
			Msg("failed to publish transaction created event")
	}

	return tx, nil
}

// ListForUser возвращает транзакции пользователя, новые первыми
func (s *TransactionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]entity.Transaction, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	txs, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) publishCreated(ctx context.Context, tx *entity.Transaction) error {
	if s.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(entity.NewTransactionCreatedEvent(tx))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.publisher.PublishMessage(ctx, tx.UserID.String(), payload)
}

package service

import (
	"context"

	"exchanger/exchange-service/internal/app/exchange/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateProvider - источник таблицы курсов (currencyapi.Provider)
type RateProvider interface {
	Fetch(ctx context.Context, base string, targets []string) (*entity.RateTable, error)
}

type ConversionServiceInterface interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*entity.ConversionResult, error)
	LatestRates(ctx context.Context) (*entity.RateTable, error)
	WarmUp(ctx context.Context) error
	BaseCurrency() string
}

type TransactionServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, req entity.ConversionRequest) (*entity.Transaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]entity.Transaction, error)
}

type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

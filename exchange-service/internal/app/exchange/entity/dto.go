package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionRequest - запрос на выдачу токена
type SessionRequest struct {
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// SessionResponse - выданный JWT
type SessionResponse struct {
	Token string `json:"token"`
}

// CreateTransactionRequest - тело POST /api/v1/transactions
type CreateTransactionRequest struct {
	Transaction *TransactionParams `json:"transaction"`
}

// TransactionParams - разрешённые поля транзакции
type TransactionParams struct {
	FromCurrency string           `json:"from_currency" validate:"required,alpha,min=3,max=4"`
	ToCurrency   string           `json:"to_currency" validate:"required,alpha,min=3,max=4"`
	FromValue    *decimal.Decimal `json:"from_value" validate:"required"`
}

// ToConversionRequest переводит параметры запроса во входные данные конвертации
func (p *TransactionParams) ToConversionRequest() ConversionRequest {
	return ConversionRequest{
		Amount:         *p.FromValue,
		BaseCurrency:   p.FromCurrency,
		TargetCurrency: p.ToCurrency,
	}
}

// TransactionResponse - сериализованная транзакция
type TransactionResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	FromCurrency  string    `json:"from_currency"`
	ToCurrency    string    `json:"to_currency"`
	FromValue     float64   `json:"from_value"`
	ToValue       float64   `json:"to_value"`
	Rate          float64   `json:"rate"`
	Timestamp     string    `json:"timestamp"`
}

// NewTransactionResponse округляет суммы до 2 знаков, курс до 4
func NewTransactionResponse(t *Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: t.ID,
		UserID:        t.UserID,
		FromCurrency:  t.FromCurrency,
		ToCurrency:    t.ToCurrency,
		FromValue:     t.FromValue.Round(ValueScale).InexactFloat64(),
		ToValue:       t.ToValue.Round(ValueScale).InexactFloat64(),
		Rate:          t.Rate.Round(RateScale).InexactFloat64(),
	}
	if !t.CreatedAt.IsZero() {
		resp.Timestamp = t.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

// NewTransactionListResponse сериализует список транзакций
func NewTransactionListResponse(transactions []Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		out = append(out, NewTransactionResponse(&transactions[i]))
	}
	return out
}

// RatesResponse - ответ GET /api/v1/rates
type RatesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// ErrorResponse - ответ с одной ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ErrorsResponse - ответ со списком ошибок валидации/конвертации
type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Точность хранения значений в БД: decimal(18,2) для сумм и decimal(18,4) для курса
const (
	ValueScale = 2
	RateScale  = 4
)

var (
	maxAbsValue = decimal.RequireFromString("9999999999999999.99")
	minRate     = decimal.RequireFromString("0.0001")
	maxRate     = decimal.RequireFromString("99999999999999.9999")
)

// User представляет пользователя, которому выдаются токены
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	EmailAddress   string    `json:"email_address" db:"email_address"`
	PasswordDigest string    `json:"-" db:"password_digest"` // не возвращаем в JSON
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction представляет сохранённую конвертацию
type Transaction struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index:idx_transactions_user_created,priority:1"`
	FromCurrency string          `json:"from_currency" gorm:"type:varchar(4);not null"`
	ToCurrency   string          `json:"to_currency" gorm:"type:varchar(4);not null"`
	FromValue    decimal.Decimal `json:"from_value" gorm:"type:decimal(18,2);not null"`
	ToValue      decimal.Decimal `json:"to_value" gorm:"type:decimal(18,2);not null"`
	Rate         decimal.Decimal `json:"rate" gorm:"type:decimal(18,4);not null"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime;index:idx_transactions_user_created,priority:2,sort:desc"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Transaction) TableName() string {
	return "transactions"
}

// Validate проверяет границы колонок и возвращает сообщения в порядке полей
func (t *Transaction) Validate() []string {
	var errs []string

	errs = append(errs, checkValueBounds("From value", t.FromValue)...)
	errs = append(errs, checkValueBounds("To value", t.ToValue)...)

	if t.Rate.LessThan(minRate) {
		errs = append(errs, fmt.Sprintf("Rate must be greater than or equal to %s", minRate.String()))
	}
	if t.Rate.GreaterThan(maxRate) {
		errs = append(errs, fmt.Sprintf("Rate must be less than or equal to %s", maxRate.String()))
	}

	return errs
}

func checkValueBounds(field string, v decimal.Decimal) []string {
	if v.GreaterThan(maxAbsValue) {
		return []string{fmt.Sprintf("%s must be less than or equal to %s", field, maxAbsValue.String())}
	}
	if v.LessThan(maxAbsValue.Neg()) {
		return []string{fmt.Sprintf("%s must be greater than or equal to %s", field, maxAbsValue.Neg().String())}
	}
	return nil
}

// TransactionEvent публикуется в Kafka после сохранения транзакции
type TransactionEvent struct {
	EventType     string          `json:"event_type"` // TRANSACTION_CREATED
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	FromValue     decimal.Decimal `json:"from_value"`
	ToValue       decimal.Decimal `json:"to_value"`
	Rate          decimal.Decimal `json:"rate"`
	Timestamp     time.Time       `json:"timestamp"`
}

const EventTransactionCreated = "TRANSACTION_CREATED"

// NewTransactionCreatedEvent собирает событие по сохранённой транзакции
func NewTransactionCreatedEvent(t *Transaction) TransactionEvent {
	return TransactionEvent{
		EventType:     EventTransactionCreated,
		TransactionID: t.ID,
		UserID:        t.UserID,
		FromCurrency:  t.FromCurrency,
		ToCurrency:    t.ToCurrency,
		FromValue:     t.FromValue,
		ToValue:       t.ToValue,
		Rate:          t.Rate,
		Timestamp:     t.CreatedAt,
	}
}

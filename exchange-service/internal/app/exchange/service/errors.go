package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("missing email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
)

// CurrencySide - сторона конвертации, к которой относится код валюты
type CurrencySide int

const (
	SideBase CurrencySide = iota + 1
	SideTarget
)

func (s CurrencySide) String() string {
	if s == SideBase {
		return "base"
	}
	return "target"
}

// UnknownCurrencyError - кода нет в таблице курсов
type UnknownCurrencyError struct {
	Side CurrencySide
	Code string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("Unknown %s currency: %s", e.Side, e.Code)
}

func (e *UnknownCurrencyError) Is(target error) bool {
	return target == ErrUnknownCurrency
}

// ConversionError - неудачная конвертация с сообщениями для клиента.
// Err хранит исходную причину: *UnknownCurrencyError или ошибку провайдера.
type ConversionError struct {
	Messages []string
	Err      error
}

func (e *ConversionError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// TransactionValidationError - транзакция не прошла проверку границ колонок
type TransactionValidationError struct {
	Messages []string
}

func (e *TransactionValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

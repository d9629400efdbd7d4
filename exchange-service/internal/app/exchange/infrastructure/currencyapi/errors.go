package currencyapi

import (
	"errors"
	"fmt"
)

// ErrorKind - закрытый набор классов ошибок провайдера курсов
type ErrorKind int

const (
	KindForbidden ErrorKind = iota + 1
	KindNotFound
	KindValidation
	KindRateLimited
	KindServerError
	KindUnknownHTTP
	KindInvalidPayload
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindUnknownHTTP:
		return "unknown_http"
	case KindInvalidPayload:
		return "invalid_payload"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Retryable сообщает, относится ли класс к временным ошибкам (429, 5xx, сеть)
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindServerError || k == KindNetwork
}

// ProviderError - классифицированная ошибка запроса курсов
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int    // HTTP код, если ответ был получен
	Message    string // описание для пользователя
	Attempts   int    // сколько попыток было сделано
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.defaultMessage()
	}
	if e.Attempts > 1 {
		return fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	return msg
}

func (e *ProviderError) defaultMessage() string {
	switch e.Kind {
	case KindForbidden:
		return "Forbidden: you are not allowed to use this endpoint, please upgrade your plan"
	case KindNotFound:
		return "Endpoint not found"
	case KindValidation:
		return fmt.Sprintf("Validation error (%d)", e.StatusCode)
	case KindRateLimited:
		return "Rate limit exceeded, please upgrade your plan"
	case KindServerError:
		return fmt.Sprintf("Server error %d", e.StatusCode)
	case KindUnknownHTTP:
		return fmt.Sprintf("HTTP error %d", e.StatusCode)
	case KindInvalidPayload:
		return "Invalid JSON response"
	case KindNetwork:
		if e.Err != nil {
			return "Network error: " + e.Err.Error()
		}
		return "Network error"
	default:
		return "Currency API error"
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по классу, чтобы работал errors.Is(err, ErrServerError)
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	return ok && t.Kind == e.Kind
}

func (e *ProviderError) Retryable() bool {
	return e.Kind.Retryable()
}

var (
	ErrForbidden      = &ProviderError{Kind: KindForbidden}
	ErrNotFound       = &ProviderError{Kind: KindNotFound}
	ErrValidation     = &ProviderError{Kind: KindValidation}
	ErrRateLimited    = &ProviderError{Kind: KindRateLimited}
	ErrServerError    = &ProviderError{Kind: KindServerError}
	ErrUnknownHTTP    = &ProviderError{Kind: KindUnknownHTTP}
	ErrInvalidPayload = &ProviderError{Kind: KindInvalidPayload}
	ErrNetwork        = &ProviderError{Kind: KindNetwork}
)

var (
	ErrMissingAPIKey = errors.New("currency api key must be set")
	ErrRateNotFound  = errors.New("rate not found in provider response")
)

func newStatusError(kind ErrorKind, status int) *ProviderError {
	return &ProviderError{Kind: kind, StatusCode: status}
}

func newPayloadError(message string, err error) *ProviderError {
	return &ProviderError{Kind: KindInvalidPayload, Message: message, Err: err}
}

func newNetworkError(err error) *ProviderError {
	return &ProviderError{Kind: KindNetwork, Err: err}
}

package handler

import (
	"errors"
	"net/http"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/infrastructure/currencyapi"
	"exchanger/exchange-service/internal/app/exchange/service"
	"exchanger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// writeServiceError выбирает HTTP статус по классу ошибки:
// неизвестная валюта и ошибки валидации - 422, прочие ошибки провайдера - 502, остальное - 500
func writeServiceError(c *gin.Context, err error, fallback string) {
	var (
		convErr     *service.ConversionError
		validErr    *service.TransactionValidationError
		providerErr *currencyapi.ProviderError
	)

	switch {
	case errors.As(err, &validErr):
		c.JSON(http.StatusUnprocessableEntity, entity.ErrorsResponse{Errors: validErr.Messages})
	case errors.As(err, &convErr):
		c.JSON(conversionStatus(err), entity.ErrorsResponse{Errors: convErr.Messages})
	case errors.As(err, &providerErr):
		c.JSON(conversionStatus(err), entity.ErrorsResponse{Errors: []string{providerErr.Error()}})
	default:
		l := requestLogger(c)
		l.Error().Err(err).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func conversionStatus(err error) int {
	if errors.Is(err, service.ErrUnknownCurrency) || errors.Is(err, currencyapi.ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// requestLogger - глобальный логгер с полями текущего запроса
func requestLogger(c *gin.Context) zerolog.Logger {
	fields := map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}
	if requestID, ok := c.Get("request_id"); ok {
		fields["request_id"] = requestID
	}
	if userID, ok := c.Get("user_id"); ok {
		fields["user_id"] = userID
	}
	return logger.WithFields(fields)
}

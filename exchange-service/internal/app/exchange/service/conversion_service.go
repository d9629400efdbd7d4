package service

import (
	"context"
	"errors"
	"fmt"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/pkg/metrics"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ConversionService получает таблицу курсов (через кеш или напрямую) и пересчитывает сумму
type ConversionService struct {
	provider     RateProvider
	cache        *RatesCache
	baseCurrency string
	log          zerolog.Logger
}

// NewConversionService создаёт сервис. При cache == nil каждый вызов идёт к провайдеру.
func NewConversionService(provider RateProvider, cache *RatesCache, baseCurrency string, log zerolog.Logger) *ConversionService {
	base := entity.NormalizeCode(baseCurrency)
	if base == "" {
		base = "USD"
	}
	return &ConversionService{
		provider:     provider,
		cache:        cache,
		baseCurrency: base,
		log:          log,
	}
}

func (s *ConversionService) BaseCurrency() string {
	return s.baseCurrency
}

func (s *ConversionService) fetch(ctx context.Context) (*entity.RateTable, error) {
	return s.provider.Fetch(ctx, s.baseCurrency, nil)
}

// LatestRates возвращает полную таблицу курсов относительно базовой валюты
func (s *ConversionService) LatestRates(ctx context.Context) (*entity.RateTable, error) {
	if s.cache == nil {
		return s.fetch(ctx)
	}
	return s.cache.GetOrFetch(ctx, s.fetch)
}

// Convert пересчитывает amount из from в to.
// Любая ошибка возвращается как *ConversionError с сообщениями для клиента.
func (s *ConversionService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*entity.ConversionResult, error) {
	table, err := s.LatestRates(ctx)
	if err != nil {
		metrics.Conversions.WithLabelValues("provider_error").Inc()
		s.log.Error().
			Err(err).
			Str("from", from).
			Str("to", to).
			Msg("failed to load exchange rates")
		return nil, &ConversionError{Messages: []string{err.Error()}, Err: err}
	}

	result, err := NewRateConverter(table).Convert(amount, from, to)
	if err != nil {
		metrics.Conversions.WithLabelValues("unknown_currency").Inc()
		return nil, &ConversionError{Messages: []string{unknownCurrencyMessage(err, from, to)}, Err: err}
	}

	metrics.Conversions.WithLabelValues("success").Inc()
	return result, nil
}

// WarmUp перезагружает курсы в обход кеша. Вызывается по расписанию после полуночи.
func (s *ConversionService) WarmUp(ctx context.Context) error {
	var err error
	if s.cache == nil {
		_, err = s.fetch(ctx)
	} else {
		_, err = s.cache.Refresh(ctx, s.fetch)
	}
	if err != nil {
		metrics.RatesWarmUps.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to warm up rates: %w", err)
	}
	metrics.RatesWarmUps.WithLabelValues("success").Inc()
	return nil
}

func unknownCurrencyMessage(err error, from, to string) string {
	var uerr *UnknownCurrencyError
	if errors.As(err, &uerr) && uerr.Side == SideTarget {
		return fmt.Sprintf("To currency %s is not a supported currency code", to)
	}
	return fmt.Sprintf("From currency %s is not a supported currency code", from)
}

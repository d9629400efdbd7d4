package currencyapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Ответы больше этого размера обрезаются
const maxResponseBytes = 4 << 20

// TransportResponse - статус и тело ответа
type TransportResponse struct {
	StatusCode int
	Body       []byte
}

// HTTPTransport выполняет один GET запрос. Подменяется фейком в тестах.
type HTTPTransport interface {
	Get(ctx context.Context, rawURL string, query url.Values) (*TransportResponse, error)
}

// Transport - реализация HTTPTransport поверх net/http с ограничением частоты запросов
type Transport struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewTransport создаёт транспорт с таймаутом на одну попытку.
// limiter может быть nil.
func NewTransport(timeout time.Duration, limiter *rate.Limiter) *Transport {
	return &Transport{
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}
}

// NewLimiter возвращает лимитер на rps запросов в секунду, 0 отключает ограничение
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (t *Transport) Get(ctx context.Context, rawURL string, query url.Values) (*TransportResponse, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// в url.Error попадает полный адрес вместе с apikey
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = u.Scheme + "://" + u.Host + u.Path
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &TransportResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

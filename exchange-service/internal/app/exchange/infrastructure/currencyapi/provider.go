package currencyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/pkg/metrics"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL    = "https://api.currencyapi.com"
	DefaultAPIVersion = "v3"
	DefaultMaxRetries = 3
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultBase       = "USD"

	bodySnippetLimit = 200
	redacted         = "[FILTERED]"
)

// Provider получает таблицу курсов из currencyapi.com.
// Повторяет запрос при 429, 5xx и сетевых ошибках, остальные ответы классифицирует сразу.
type Provider struct {
	apiKey      string
	baseURL     string
	version     string
	maxRetries  int
	retryDelay  time.Duration
	defaultBase string
	transport   HTTPTransport
	log         zerolog.Logger
}

// Option настраивает Provider
type Option func(*Provider)

func WithTransport(t HTTPTransport) Option {
	return func(p *Provider) { p.transport = t }
}

func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithAPIVersion(version string) Option {
	return func(p *Provider) { p.version = strings.Trim(version, "/") }
}

func WithMaxRetries(n int) Option {
	return func(p *Provider) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(p *Provider) {
		if d >= 0 {
			p.retryDelay = d
		}
	}
}

func WithDefaultBase(code string) Option {
	return func(p *Provider) { p.defaultBase = entity.NormalizeCode(code) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// New создаёт провайдер. Без API ключа возвращает ErrMissingAPIKey.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	p := &Provider{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		version:     DefaultAPIVersion,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		defaultBase: DefaultBase,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.transport == nil {
		p.transport = NewTransport(10*time.Second, nil)
	}

	return p, nil
}

// DefaultBaseCurrency возвращает базовую валюту по умолчанию
func (p *Provider) DefaultBaseCurrency() string {
	return p.defaultBase
}

func (p *Provider) endpoint() string {
	return fmt.Sprintf("%s/%s/latest", p.baseURL, p.version)
}

// Fetch загружает курсы относительно base. Если targets не пустой,
// результат содержит только запрошенные коды, отсутствующие просто не попадают в таблицу.
func (p *Provider) Fetch(ctx context.Context, base string, targets []string) (*entity.RateTable, error) {
	base = entity.NormalizeCode(base)
	if base == "" {
		base = p.defaultBase
	}
	wanted := normalizeCodes(targets)

	query := url.Values{}
	query.Set("apikey", p.apiKey)
	query.Set("base_currency", base)
	if len(wanted) > 0 {
		query.Set("currencies", strings.Join(wanted, ","))
	}

	endpoint := p.endpoint()
	var (
		attempts int
		rates    map[string]float64
	)

	r := retrier.New(retrier.ConstantBackoff(p.maxRetries, p.retryDelay), retryClassifier{})
	err := r.RunCtx(ctx, func(ctx context.Context) error {
		attempts++
		fetched, err := p.attempt(ctx, endpoint, query, attempts)
		if err != nil {
			return err
		}
		rates = fetched
		return nil
	})
	if err != nil {
		var perr *ProviderError
		if !errors.As(err, &perr) {
			// контекст отменён во время паузы между попытками
			perr = newNetworkError(err)
		}
		perr.Attempts = attempts
		return nil, perr
	}

	if len(wanted) > 0 {
		rates = filterRates(rates, wanted)
	}

	table, err := entity.NewRateTable(rates)
	if err != nil {
		return nil, &ProviderError{Kind: KindInvalidPayload, Message: "Invalid payload: " + err.Error(), Err: err, Attempts: attempts}
	}
	return table, nil
}

// Rate возвращает один курс target относительно base
func (p *Provider) Rate(ctx context.Context, base, target string) (float64, error) {
	table, err := p.Fetch(ctx, base, []string{target})
	if err != nil {
		return 0, err
	}
	value, ok := table.Rate(target)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrRateNotFound, entity.NormalizeCode(target))
	}
	return value, nil
}

// attempt выполняет одну попытку и возвращает курсы или классифицированную ошибку
func (p *Provider) attempt(ctx context.Context, endpoint string, query url.Values, attempt int) (map[string]float64, error) {
	logURL := redactURL(endpoint, query)
	p.log.Info().
		Str("method", http.MethodGet).
		Str("url", logURL).
		Int("attempt", attempt).
		Msg("currency api request")

	start := time.Now()
	resp, err := p.transport.Get(ctx, endpoint, query)
	duration := time.Since(start)
	if err != nil {
		perr := newNetworkError(err)
		metrics.RecordProviderAttempt(perr.Kind.String(), duration)
		p.log.Warn().
			Err(err).
			Str("url", logURL).
			Int("attempt", attempt).
			Dur("duration", duration).
			Msg("currency api request failed")
		p.logRetry(ctx, attempt, perr)
		return nil, perr
	}

	p.log.Info().
		Str("url", logURL).
		Int("attempt", attempt).
		Int("status_code", resp.StatusCode).
		Int("body_size", len(resp.Body)).
		Dur("duration", duration).
		Msg("currency api response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := classifyStatus(resp)
		metrics.RecordProviderAttempt(perr.Kind.String(), duration)
		p.logRetry(ctx, attempt, perr)
		return nil, perr
	}

	rates, perr := p.parseRates(resp.Body)
	if perr != nil {
		metrics.RecordProviderAttempt(perr.Kind.String(), duration)
		return nil, perr
	}
	metrics.RecordProviderAttempt("success", duration)
	return rates, nil
}

// logRetry пишет событие повтора, если после этой попытки будет ещё одна
func (p *Provider) logRetry(ctx context.Context, attempt int, perr *ProviderError) {
	if !perr.Retryable() || attempt > p.maxRetries || ctx.Err() != nil {
		return
	}

	event := p.log.Warn().
		Int("attempt", attempt).
		Int("max_retries", p.maxRetries).
		Dur("retry_in", p.retryDelay)
	if perr.StatusCode != 0 {
		event = event.Int("status_code", perr.StatusCode)
	} else {
		event = event.Str("error_class", perr.Kind.String())
	}
	event.Msg("retrying currency api request")

	metrics.RecordProviderRetry(perr.Kind.String())
}

func classifyStatus(resp *TransportResponse) *ProviderError {
	switch code := resp.StatusCode; {
	case code == http.StatusForbidden:
		return newStatusError(KindForbidden, code)
	case code == http.StatusNotFound:
		return newStatusError(KindNotFound, code)
	case code == http.StatusUnprocessableEntity:
		return validationError(resp.Body)
	case code == http.StatusTooManyRequests:
		return newStatusError(KindRateLimited, code)
	case code >= 500 && code <= 599:
		return newStatusError(KindServerError, code)
	default:
		return newStatusError(KindUnknownHTTP, code)
	}
}

type validationBody struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func validationError(body []byte) *ProviderError {
	perr := newStatusError(KindValidation, http.StatusUnprocessableEntity)

	var parsed validationBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == nil {
		return perr
	}
	perr.Message = fmt.Sprintf("Validation error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	return perr
}

func (p *Provider) parseRates(body []byte) (map[string]float64, *ProviderError) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		p.log.Error().
			Err(err).
			Str("body_snippet", snippet(body, bodySnippetLimit)).
			Msg("currency api returned invalid json")
		return nil, newPayloadError("Invalid JSON response", err)
	}

	rawData, ok := root["data"]
	if !ok || isNull(rawData) {
		return nil, newPayloadError("Invalid payload: missing data", nil)
	}

	var data map[string]map[string]json.RawMessage
	if err := json.Unmarshal(rawData, &data); err != nil {
		return nil, newPayloadError("Invalid payload: malformed data", err)
	}

	rates := make(map[string]float64, len(data))
	for code, entry := range data {
		rawValue, ok := entry["value"]
		if !ok || isNull(rawValue) {
			return nil, newPayloadError(fmt.Sprintf("Invalid payload: missing value for %s", code), nil)
		}
		var value float64
		if err := json.Unmarshal(rawValue, &value); err != nil {
			return nil, newPayloadError(fmt.Sprintf("Invalid payload: value for %s is not a number", code), err)
		}
		key := entity.NormalizeCode(code)
		if _, dup := rates[key]; dup {
			return nil, newPayloadError(fmt.Sprintf("Invalid payload: duplicate currency %s", key), nil)
		}
		rates[key] = value
	}

	return rates, nil
}

// retryClassifier повторяет только временные ошибки провайдера
type retryClassifier struct{}

func (retryClassifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Retryable() {
		return retrier.Retry
	}
	return retrier.Fail
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		code := entity.NormalizeCode(c)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func filterRates(rates map[string]float64, wanted []string) map[string]float64 {
	out := make(map[string]float64, len(wanted))
	for _, code := range wanted {
		if v, ok := rates[code]; ok {
			out[code] = v
		}
	}
	return out
}

func redactURL(endpoint string, query url.Values) string {
	safe := make(url.Values, len(query))
	for k, v := range query {
		safe[k] = v
	}
	if safe.Has("apikey") {
		safe.Set("apikey", redacted)
	}
	return endpoint + "?" + safe.Encode()
}

func snippet(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	// обрезанный многобайтовый символ выбрасываем
	return strings.ToValidUTF8(string(body[:limit]), "")
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/repository"
	"exchanger/pkg/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// RatesCacheKey - единственный ключ кеша: полная таблица курсов USD
const RatesCacheKey = "exchange_rates:all"

const (
	tierMemory = "memory"
	tierShared = "shared"

	refreshFlightKey = RatesCacheKey + ":refresh"
)

// DefaultFetchTimeout ограничивает общую загрузку, которую ждут все участники flight
const DefaultFetchTimeout = time.Minute

// Clock - источник текущего времени для окна кеша
type Clock interface {
	Now() time.Time
}

// ClockFunc адаптирует функцию к Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock - локальное время процесса
var SystemClock Clock = ClockFunc(time.Now)

// FetchFunc загружает свежую таблицу курсов
type FetchFunc func(ctx context.Context) (*entity.RateTable, error)

// SecondsUntilMidnight возвращает целое число секунд до следующей локальной полуночи
func SecondsUntilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now).Truncate(time.Second)
}

// RatesCache хранит последнюю таблицу курсов до конца текущего дня.
// Промахи объединяются через singleflight, поэтому на ключ идёт не больше одного запроса к провайдеру.
type RatesCache struct {
	clock        Clock
	store        repository.RatesSnapshotRepository
	log          zerolog.Logger
	fetchTimeout time.Duration

	mu        sync.RWMutex
	table     *entity.RateTable
	expiresAt time.Time

	group singleflight.Group
}

// RatesCacheOption настраивает RatesCache
type RatesCacheOption func(*RatesCache)

// WithSnapshotStore подключает общий для инстансов снимок курсов (Redis)
func WithSnapshotStore(store repository.RatesSnapshotRepository) RatesCacheOption {
	return func(c *RatesCache) { c.store = store }
}

func WithCacheLogger(log zerolog.Logger) RatesCacheOption {
	return func(c *RatesCache) { c.log = log }
}

// WithFetchTimeout задаёт предел для общей загрузки, 0 и меньше игнорируются
func WithFetchTimeout(d time.Duration) RatesCacheOption {
	return func(c *RatesCache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

func NewRatesCache(clock Clock, opts ...RatesCacheOption) *RatesCache {
	if clock == nil {
		clock = SystemClock
	}
	c := &RatesCache{
		clock:        clock,
		log:          zerolog.Nop(),
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch возвращает таблицу из памяти, затем из общего снимка, иначе вызывает fetch.
// Ошибка fetch не кешируется.
func (c *RatesCache) GetOrFetch(ctx context.Context, fetch FetchFunc) (*entity.RateTable, error) {
	if table, ok := c.lookup(); ok {
		metrics.RecordRatesCacheLookup(tierMemory, true)
		return table, nil
	}
	metrics.RecordRatesCacheLookup(tierMemory, false)

	return c.shared(ctx, RatesCacheKey, func(ctx context.Context) (*entity.RateTable, error) {
		// пока ждали, другой вызов мог уже заполнить кеш
		if table, ok := c.lookup(); ok {
			return table, nil
		}
		if table, ok := c.loadSnapshot(ctx); ok {
			return table, nil
		}
		return c.fetchAndStore(ctx, fetch)
	})
}

// Refresh загружает таблицу в обход кеша и перезаписывает оба уровня.
// С GetOrFetch не объединяется: идущий промах может вернуть снимок, а Refresh всегда идёт к провайдеру.
func (c *RatesCache) Refresh(ctx context.Context, fetch FetchFunc) (*entity.RateTable, error) {
	return c.shared(ctx, refreshFlightKey, func(ctx context.Context) (*entity.RateTable, error) {
		return c.fetchAndStore(ctx, fetch)
	})
}

// shared выполняет load один раз на ключ. Загрузка идёт на контексте без отмены,
// ограниченном fetchTimeout, поэтому отмена одного вызывающего не ломает остальных.
// Каждый вызывающий перестаёт ждать по своему ctx.
func (c *RatesCache) shared(ctx context.Context, key string, load func(context.Context) (*entity.RateTable, error)) (*entity.RateTable, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entity.RateTable), nil
	}
}

// Invalidate сбрасывает запись в памяти
func (c *RatesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = nil
	c.expiresAt = time.Time{}
}

func (c *RatesCache) lookup() (*entity.RateTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.table == nil || !c.clock.Now().Before(c.expiresAt) {
		return nil, false
	}
	return c.table, true
}

func (c *RatesCache) remember(table *entity.RateTable, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = table
	c.expiresAt = c.clock.Now().Add(ttl)
}

func (c *RatesCache) loadSnapshot(ctx context.Context) (*entity.RateTable, bool) {
	if c.store == nil {
		return nil, false
	}

	rates, err := c.store.Get(ctx, RatesCacheKey)
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			c.log.Warn().Err(err).Str("key", RatesCacheKey).Msg("failed to read rates snapshot")
		}
		metrics.RecordRatesCacheLookup(tierShared, false)
		return nil, false
	}

	table, err := entity.NewRateTable(rates)
	if err != nil {
		c.log.Warn().Err(err).Str("key", RatesCacheKey).Msg("ignoring invalid rates snapshot")
		metrics.RecordRatesCacheLookup(tierShared, false)
		return nil, false
	}

	metrics.RecordRatesCacheLookup(tierShared, true)
	c.remember(table, SecondsUntilMidnight(c.clock.Now()))
	return table, true
}

func (c *RatesCache) fetchAndStore(ctx context.Context, fetch FetchFunc) (*entity.RateTable, error) {
	table, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	ttl := SecondsUntilMidnight(c.clock.Now())
	c.remember(table, ttl)

	if c.store != nil {
		if err := c.store.Set(ctx, RatesCacheKey, table.Rates(), ttl); err != nil {
			c.log.Warn().Err(err).Str("key", RatesCacheKey).Msg("failed to store rates snapshot")
		}
	}

	c.log.Debug().
		Int("currencies", table.Len()).
		Dur("ttl", ttl).
		Msg("rates cached")
	return table, nil
}

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/repository"
	"exchanger/exchange-service/internal/app/exchange/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeClock - управляемые часы для границ окна кеша
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// countingFetch возвращает fixture-таблицу и считает вызовы
type countingFetch struct {
	calls atomic.Int32
	table *entity.RateTable
	err   error
	delay time.Duration
}

func (f *countingFetch) fetch(ctx context.Context) (*entity.RateTable, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

// gatedFetch держит загрузку до release и возвращает ошибку контекста, если его отменили
type gatedFetch struct {
	calls   atomic.Int32
	table   *entity.RateTable
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedFetch(table *entity.RateTable) *gatedFetch {
	return &gatedFetch{table: table, started: make(chan struct{}), release: make(chan struct{})}
}

func (f *gatedFetch) fetch(ctx context.Context) (*entity.RateTable, error) {
	f.calls.Add(1)
	f.once.Do(func() { close(f.started) })
	select {
	case <-f.release:
		return f.table, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func morning() time.Time {
	return time.Date(2025, 8, 8, 10, 0, 0, 0, time.Local)
}

// ===================== SecondsUntilMidnight Tests =====================

func TestSecondsUntilMidnight(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Duration
	}{
		{name: "morning", now: morning(), expected: 14 * time.Hour},
		{name: "start of day", now: time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC), expected: 24 * time.Hour},
		{name: "one second left", now: time.Date(2025, 8, 8, 23, 59, 59, 0, time.UTC), expected: time.Second},
		{name: "fraction truncated", now: time.Date(2025, 8, 8, 23, 59, 58, 500_000_000, time.UTC), expected: time.Second},
		{name: "end of month", now: time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC), expected: 12 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SecondsUntilMidnight(tt.now))
		})
	}
}

// ===================== GetOrFetch Tests =====================

func TestRatesCache_SameWindowFetchesOnce(t *testing.T) {
	// Arrange
	clock := newFakeClock(morning())
	cache := NewRatesCache(clock)
	f := &countingFetch{table: fixtureTable(t)}
	ctx := context.Background()

	// Act
	first, err1 := cache.GetOrFetch(ctx, f.fetch)
	clock.Set(morning().Add(13 * time.Hour))
	second, err2 := cache.GetOrFetch(ctx, f.fetch)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestRatesCache_AfterMidnightFetchesAgain(t *testing.T) {
	// Arrange
	clock := newFakeClock(morning())
	cache := NewRatesCache(clock)
	f := &countingFetch{table: fixtureTable(t)}
	ctx := context.Background()

	// Act
	_, err := cache.GetOrFetch(ctx, f.fetch)
	require.NoError(t, err)
	clock.Set(time.Date(2025, 8, 9, 0, 0, 1, 0, time.Local))
	_, err = cache.GetOrFetch(ctx, f.fetch)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestRatesCache_ExactlyAtMidnightIsStale(t *testing.T) {
	// Arrange
	clock := newFakeClock(morning())
	cache := NewRatesCache(clock)
	f := &countingFetch{table: fixtureTable(t)}
	ctx := context.Background()

	_, err := cache.GetOrFetch(ctx, f.fetch)
	require.NoError(t, err)

	// Act
	clock.Set(time.Date(2025, 8, 9, 0, 0, 0, 0, time.Local))
	_, err = cache.GetOrFetch(ctx, f.fetch)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestRatesCache_FetchErrorIsNotCached(t *testing.T) {
	// Arrange
	cache := NewRatesCache(newFakeClock(morning()))
	fetchErr := errors.New("upstream down")
	failing := &countingFetch{err: fetchErr}
	working := &countingFetch{table: fixtureTable(t)}
	ctx := context.Background()

	// Act
	table, err := cache.GetOrFetch(ctx, failing.fetch)
	assert.Nil(t, table)
	assert.ErrorIs(t, err, fetchErr)

	table, err = cache.GetOrFetch(ctx, working.fetch)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(1), working.calls.Load())
}

func TestRatesCache_ConcurrentMissesFetchOnce(t *testing.T) {
	// Arrange
	cache := NewRatesCache(newFakeClock(morning()))
	f := &countingFetch{table: fixtureTable(t), delay: 20 * time.Millisecond}
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*entity.RateTable, 16)

	// Act
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table, err := cache.GetOrFetch(ctx, f.fetch)
			assert.NoError(t, err)
			results[i] = table
		}(i)
	}
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), f.calls.Load())
	for _, table := range results {
		assert.Same(t, results[0], table)
	}
}

func TestRatesCache_CallerCancellationDoesNotFailJoinedCallers(t *testing.T) {
	// Arrange
	cache := NewRatesCache(newFakeClock(morning()))
	f := newGatedFetch(fixtureTable(t))

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := cache.GetOrFetch(ctxA, f.fetch)
		errA <- err
	}()
	<-f.started

	type result struct {
		table *entity.RateTable
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		table, err := cache.GetOrFetch(context.Background(), f.fetch)
		resB <- result{table: table, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	// Act
	cancelA()
	gotA := <-errA
	close(f.release)
	gotB := <-resB

	// Assert
	assert.ErrorIs(t, gotA, context.Canceled)
	require.NoError(t, gotB.err)
	assert.Same(t, f.table, gotB.table)
	assert.Equal(t, int32(1), f.calls.Load())

	cached, err := cache.GetOrFetch(context.Background(), f.fetch)
	require.NoError(t, err)
	assert.Same(t, f.table, cached)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestRatesCache_FetchTimeoutBoundsSharedLoad(t *testing.T) {
	// Arrange
	cache := NewRatesCache(newFakeClock(morning()), WithFetchTimeout(10*time.Millisecond))
	f := newGatedFetch(fixtureTable(t))

	// Act
	table, err := cache.GetOrFetch(context.Background(), f.fetch)

	// Assert
	assert.Nil(t, table)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ===================== Refresh / Invalidate Tests =====================

func TestRatesCache_RefreshBypassesMemory(t *testing.T) {
	// Arrange
	cache := NewRatesCache(newFakeClock(morning()))
	f := &countingFetch{table: fixtureTable(t)}
	ctx := context.Background()

	_, err := cache.GetOrFetch(ctx, f.fetch)
	require.NoError(t, err)

	fresh, err := entity.NewRateTable(map[string]float64{"USD": 1, "EUR": 0.9})
	require.NoError(t, err)
	refresher := &countingFetch{table: fresh}

	// Act
	refreshed, err := cache.Refresh(ctx, refresher.fetch)
	require.NoError(t, err)
	cached, err := cache.GetOrFetch(ctx, f.fetch)

	// Assert
	require.NoError(t, err)
	assert.Same(t, fresh, refreshed)
	assert.Same(t, fresh, cached)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestRatesCache_RefreshDoesNotJoinPendingMiss(t *testing.T) {
	// Arrange
	cache := NewRatesCache(newFakeClock(morning()))
	pending := newGatedFetch(fixtureTable(t))

	missDone := make(chan error, 1)
	go func() {
		_, err := cache.GetOrFetch(context.Background(), pending.fetch)
		missDone <- err
	}()
	<-pending.started

	fresh, err := entity.NewRateTable(map[string]float64{"USD": 1, "EUR": 0.9})
	require.NoError(t, err)
	refresher := &countingFetch{table: fresh}

	// Act
	refreshed, err := cache.Refresh(context.Background(), refresher.fetch)
	close(pending.release)

	// Assert
	require.NoError(t, err)
	assert.Same(t, fresh, refreshed)
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.NoError(t, <-missDone)
}

func TestRatesCache_RefreshErrorKeepsPreviousTable(t *testing.T) {
	// Arrange
	cache := NewRatesCache(newFakeClock(morning()))
	f := &countingFetch{table: fixtureTable(t)}
	ctx := context.Background()

	original, err := cache.GetOrFetch(ctx, f.fetch)
	require.NoError(t, err)

	// Act
	_, err = cache.Refresh(ctx, (&countingFetch{err: errors.New("boom")}).fetch)
	cached, cachedErr := cache.GetOrFetch(ctx, f.fetch)

	// Assert
	assert.Error(t, err)
	require.NoError(t, cachedErr)
	assert.Same(t, original, cached)
}

func TestRatesCache_Invalidate(t *testing.T) {
	// Arrange
	cache := NewRatesCache(newFakeClock(morning()))
	f := &countingFetch{table: fixtureTable(t)}
	ctx := context.Background()

	_, err := cache.GetOrFetch(ctx, f.fetch)
	require.NoError(t, err)

	// Act
	cache.Invalidate()
	_, err = cache.GetOrFetch(ctx, f.fetch)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

// ===================== Snapshot Store Tests =====================

func TestRatesCache_UsesSnapshotBeforeFetch(t *testing.T) {
	// Arrange
	store := new(mocks.MockRatesSnapshotRepository)
	cache := NewRatesCache(newFakeClock(morning()), WithSnapshotStore(store))
	f := &countingFetch{table: fixtureTable(t)}

	store.On("Get", mock.Anything, RatesCacheKey).
		Return(map[string]float64{"USD": 1, "EUR": 0.92}, nil).Once()

	// Act
	table, err := cache.GetOrFetch(context.Background(), f.fetch)
	again, againErr := cache.GetOrFetch(context.Background(), f.fetch)

	// Assert
	require.NoError(t, err)
	require.NoError(t, againErr)
	rate, ok := table.Rate("EUR")
	assert.True(t, ok)
	assert.Equal(t, 0.92, rate)
	assert.Same(t, table, again)
	assert.Equal(t, int32(0), f.calls.Load())
	store.AssertExpectations(t)
}

func TestRatesCache_SnapshotMissStoresFetchedTable(t *testing.T) {
	// Arrange
	store := new(mocks.MockRatesSnapshotRepository)
	cache := NewRatesCache(newFakeClock(morning()), WithSnapshotStore(store))
	table := fixtureTable(t)
	f := &countingFetch{table: table}

	store.On("Get", mock.Anything, RatesCacheKey).Return(nil, repository.ErrSnapshotNotFound)
	store.On("Set", mock.Anything, RatesCacheKey, table.Rates(), 14*time.Hour).Return(nil)

	// Act
	result, err := cache.GetOrFetch(context.Background(), f.fetch)

	// Assert
	require.NoError(t, err)
	assert.Same(t, table, result)
	assert.Equal(t, int32(1), f.calls.Load())
	store.AssertExpectations(t)
}

func TestRatesCache_SnapshotFailuresAreIgnored(t *testing.T) {
	// Arrange
	store := new(mocks.MockRatesSnapshotRepository)
	cache := NewRatesCache(newFakeClock(morning()), WithSnapshotStore(store))
	f := &countingFetch{table: fixtureTable(t)}

	store.On("Get", mock.Anything, RatesCacheKey).Return(nil, errors.New("connection refused"))
	store.On("Set", mock.Anything, RatesCacheKey, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	// Act
	table, err := cache.GetOrFetch(context.Background(), f.fetch)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	store.AssertExpectations(t)
}

func TestRatesCache_InvalidSnapshotFallsBackToFetch(t *testing.T) {
	// Arrange
	store := new(mocks.MockRatesSnapshotRepository)
	cache := NewRatesCache(newFakeClock(morning()), WithSnapshotStore(store))
	f := &countingFetch{table: fixtureTable(t)}

	store.On("Get", mock.Anything, RatesCacheKey).Return(map[string]float64{"USD": 0}, nil)
	store.On("Set", mock.Anything, RatesCacheKey, mock.Anything, mock.Anything).Return(nil)

	// Act
	_, err := cache.GetOrFetch(context.Background(), f.fetch)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())
}

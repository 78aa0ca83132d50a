package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/platform/cache"
	"stock_terminal/internal/shared/ratelimiter"
)

// mockProvider is a mock implementation of the Provider interface.
type mockProvider struct {
	name             string
	FetchQuoteFunc   func(ctx context.Context, symbol string) (entity.Quote, error)
	FetchHistoryFunc func(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error)
	quoteCalls       atomic.Int32
	historyCalls     atomic.Int32
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	m.quoteCalls.Add(1)
	if m.FetchQuoteFunc != nil {
		return m.FetchQuoteFunc(ctx, symbol)
	}
	return entity.Quote{}, errors.New("FetchQuoteFunc is not implemented")
}

func (m *mockProvider) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
	m.historyCalls.Add(1)
	if m.FetchHistoryFunc != nil {
		return m.FetchHistoryFunc(ctx, symbol, lookbackDays)
	}
	return entity.HistoricalSeries{}, errors.New("FetchHistoryFunc is not implemented")
}

func (m *mockProvider) calls() int { return int(m.quoteCalls.Load() + m.historyCalls.Load()) }

// mockNewsProvider adds company news to mockProvider.
type mockNewsProvider struct {
	mockProvider
	FetchNewsFunc func(ctx context.Context, symbol string, from, to time.Time) ([]entity.Article, error)
	newsCalls     atomic.Int32
}

func (m *mockNewsProvider) FetchNews(ctx context.Context, symbol string, from, to time.Time) ([]entity.Article, error) {
	m.newsCalls.Add(1)
	if m.FetchNewsFunc != nil {
		return m.FetchNewsFunc(ctx, symbol, from, to)
	}
	return nil, errors.New("FetchNewsFunc is not implemented")
}

// testClock is a goroutine-safe settable clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T, clock *testClock) *cache.FileStore {
	t.Helper()

	s, err := cache.NewFileStore(t.TempDir(), cache.WithFileClock(clock.Now))
	require.NoError(t, err)
	return s
}

// generousBook gives every named provider plenty of quota.
func generousBook(clock *testClock, names ...string) *ratelimiter.Book {
	quotas := make([]*ratelimiter.Quota, 0, len(names))
	for _, n := range names {
		quotas = append(quotas, ratelimiter.NewQuota(n, 1000, time.Minute, ratelimiter.WithClock(clock.Now)))
	}
	return ratelimiter.NewBook(quotas...)
}

func sampleQuote(symbol string, price float64) entity.Quote {
	return entity.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(price),
		ChangePercent: decimal.NewFromFloat(1.25),
		Volume:        1000,
		Timestamp:     time.Date(2024, 6, 3, 13, 59, 0, 0, time.UTC),
	}
}

func sampleSeries(symbol string, n int) entity.HistoricalSeries {
	points := make([]entity.Point, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		points[i] = entity.Point{Date: start.AddDate(0, 0, i), Close: 100 + float64(i), Volume: 10}
	}
	s, err := entity.NewHistoricalSeries(symbol, points)
	if err != nil {
		panic(fmt.Sprintf("sampleSeries: %v", err))
	}
	return s
}

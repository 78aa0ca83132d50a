package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/platform/cache"
	"stock_terminal/internal/shared/ratelimiter"
)

func TestCoordinator_Resolve_CacheHitIdempotence(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	p := &mockProvider{
		name: "primary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 189.5), nil
		},
	}
	c := NewCoordinator([]Provider{p}, generousBook(clock, "primary"), newTestStore(t, clock), WithClock(clock.Now))
	ctx := context.Background()

	first, err := c.Resolve(ctx, "aapl", entity.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, "primary", first.Source)
	assert.Equal(t, "AAPL", first.Symbol)
	assert.False(t, first.Stale)

	clock.Advance(30 * time.Second)
	second, err := c.Resolve(ctx, "AAPL", entity.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, entity.SourceCache, second.Source)
	assert.True(t, first.Quote.Price.Equal(second.Quote.Price))

	assert.Equal(t, 1, p.calls())
}

func TestCoordinator_Resolve_RefetchAfterTTL(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	p := &mockProvider{
		name: "primary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 10), nil
		},
	}
	c := NewCoordinator([]Provider{p}, generousBook(clock, "primary"), newTestStore(t, clock),
		WithTTLs(time.Minute, time.Hour), WithClock(clock.Now))
	ctx := context.Background()

	_, err := c.Resolve(ctx, "AAPL", entity.KindQuote)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	res, err := c.Resolve(ctx, "AAPL", entity.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Source)
	assert.Equal(t, 2, p.calls())
}

func TestCoordinator_Resolve_FallbackPopulatesCache(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	down := func(name string) *mockProvider {
		return &mockProvider{
			name: name,
			FetchHistoryFunc: func(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
				return entity.HistoricalSeries{}, fmt.Errorf("%s: %w: http 503", name, domain.ErrProviderUnavailable)
			},
		}
	}
	first, second := down("first"), down("second")
	third := &mockProvider{
		name: "third",
		FetchHistoryFunc: func(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
			assert.Equal(t, 60, lookbackDays)
			return sampleSeries(symbol, 30), nil
		},
	}

	store := newTestStore(t, clock)
	c := NewCoordinator([]Provider{first, second, third}, generousBook(clock, "first", "second", "third"), store,
		WithLookbackDays(60), WithClock(clock.Now))
	ctx := context.Background()

	res, err := c.Resolve(ctx, "MSFT", entity.KindHistory)
	require.NoError(t, err)
	assert.Equal(t, "third", res.Source)
	require.NotNil(t, res.Series)
	assert.Equal(t, 30, res.Series.Len())
	assert.Nil(t, res.Quote)

	e, err := store.Get(ctx, CacheKey("MSFT", entity.KindHistory))
	require.NoError(t, err)
	assert.True(t, store.IsFresh(e))
	assert.Equal(t, cache.Duration(DefaultHistoryTTL), e.TTL)

	var cached entity.HistoricalSeries
	require.NoError(t, json.Unmarshal(e.Payload, &cached))
	assert.Equal(t, res.Series.Closes(), cached.Closes())

	assert.Equal(t, 1, first.calls())
	assert.Equal(t, 1, second.calls())
	assert.Equal(t, 1, third.calls())
}

func TestCoordinator_Resolve_StaleFallback(t *testing.T) {
	t.Parallel()

	failing := &mockProvider{
		name: "flaky",
		FetchHistoryFunc: func(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
			return entity.HistoricalSeries{}, fmt.Errorf("flaky: %w", domain.ErrProviderRateLimited)
		},
	}

	tests := []struct {
		name       string
		providers  []Provider
		serveStale bool
		wantStale  bool
	}{
		{"zero providers", nil, true, true},
		{"all providers fail", []Provider{failing}, true, true},
		{"stale disabled", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := newTestClock()
			store := newTestStore(t, clock)
			ctx := context.Background()

			payload, err := json.Marshal(sampleSeries("NVDA", 20))
			require.NoError(t, err)
			require.NoError(t, store.Put(ctx, CacheKey("NVDA", entity.KindHistory), payload, 4*time.Hour))
			fetchedAt := clock.Now()
			clock.Advance(5 * time.Hour)

			c := NewCoordinator(tt.providers, generousBook(clock, "flaky"), store,
				WithServeStale(tt.serveStale), WithClock(clock.Now))

			res, err := c.Resolve(ctx, "NVDA", entity.KindHistory)
			if !tt.wantStale {
				assert.ErrorIs(t, err, domain.ErrNoDataAvailable)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Stale)
			assert.Equal(t, entity.SourceCache, res.Source)
			assert.True(t, res.FetchedAt.Equal(fetchedAt))
			assert.Equal(t, 20, res.Series.Len())
		})
	}
}

func TestCoordinator_Resolve_NoDataAvailable(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	c := NewCoordinator(nil, generousBook(clock), newTestStore(t, clock))

	res, err := c.Resolve(context.Background(), "TSLA", entity.KindQuote)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrNoDataAvailable)
	assert.Equal(t, "no data available: TSLA quote: no provider configured", err.Error())
}

func TestCoordinator_Resolve_NoDataAvailableHidesProviderErrors(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	p := &mockProvider{
		name: "primary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return entity.Quote{}, fmt.Errorf("primary: %w: http 503", domain.ErrProviderUnavailable)
		},
	}
	c := NewCoordinator([]Provider{p}, generousBook(clock, "primary"), newTestStore(t, clock), WithClock(clock.Now))

	_, err := c.Resolve(context.Background(), "TSLA", entity.KindQuote)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoDataAvailable)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.NotContains(t, err.Error(), "%!")
	assert.Contains(t, err.Error(), "primary: provider unavailable: http 503")
}

func TestCoordinator_Resolve_StaleRefreshedWhenProviderRecovers(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	store := newTestStore(t, clock)
	ctx := context.Background()

	payload, err := json.Marshal(sampleQuote("AMD", 150))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, CacheKey("AMD", entity.KindQuote), payload, time.Minute))
	clock.Advance(2 * time.Minute)

	p := &mockProvider{
		name: "primary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 155), nil
		},
	}
	c := NewCoordinator([]Provider{p}, generousBook(clock, "primary"), store, WithClock(clock.Now))

	res, err := c.Resolve(ctx, "AMD", entity.KindQuote)
	require.NoError(t, err)
	assert.False(t, res.Stale)
	assert.Equal(t, "155", res.Quote.Price.String())
}

func TestCoordinator_Resolve_ConcurrentDedup(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	p := &mockProvider{
		name: "primary",
		FetchHistoryFunc: func(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
			once.Do(func() { close(started) })
			<-release
			return sampleSeries(symbol, 25), nil
		},
	}
	c := NewCoordinator([]Provider{p}, generousBook(clock, "primary"), newTestStore(t, clock), WithClock(clock.Now))
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*entity.Result, callers)
	errs := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = c.Resolve(ctx, "GOOG", entity.KindHistory)
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Resolve(ctx, "GOOG", entity.KindHistory)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 25, results[i].Series.Len())
	}
	assert.Equal(t, 1, p.calls())
}

func TestCoordinator_Resolve_QuotaExhaustedSkipsWithoutCalling(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	primary := &mockProvider{
		name: "primary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 1), nil
		},
	}
	secondary := &mockProvider{
		name: "secondary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 2), nil
		},
	}
	book := ratelimiter.NewBook(
		ratelimiter.NewQuota("primary", 0, time.Minute, ratelimiter.WithClock(clock.Now)),
		ratelimiter.NewQuota("secondary", 5, time.Minute, ratelimiter.WithClock(clock.Now)),
	)
	c := NewCoordinator([]Provider{primary, secondary}, book, newTestStore(t, clock), WithClock(clock.Now))

	res, err := c.Resolve(context.Background(), "AAPL", entity.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, "secondary", res.Source)
	assert.Equal(t, 0, primary.calls())
	assert.Equal(t, 1, secondary.calls())
}

func TestCoordinator_Resolve_QuotaNeverExceededUnderConcurrency(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	primary := &mockProvider{
		name: "primary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 1), nil
		},
	}
	secondary := &mockProvider{
		name: "secondary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 2), nil
		},
	}
	book := ratelimiter.NewBook(
		ratelimiter.NewQuota("primary", 3, time.Minute, ratelimiter.WithClock(clock.Now)),
		ratelimiter.NewQuota("secondary", 5, time.Minute, ratelimiter.WithClock(clock.Now)),
	)
	c := NewCoordinator([]Provider{primary, secondary}, book, newTestStore(t, clock), WithClock(clock.Now))

	const symbols = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, noData int
	for i := 0; i < symbols; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Resolve(context.Background(), fmt.Sprintf("SYM%d", i), entity.KindQuote)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, domain.ErrNoDataAvailable) {
				noData++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, primary.calls())
	assert.Equal(t, 5, secondary.calls())
	assert.Equal(t, 8, ok)
	assert.Equal(t, symbols-8, noData)

	usage := c.QuotaUsage()
	require.Len(t, usage, 2)
	assert.Equal(t, ratelimiter.Usage{
		Provider:    "primary",
		Used:        3,
		Limit:       3,
		Window:      time.Minute,
		WindowStart: clock.Now(),
		ResetsAt:    clock.Now().Add(time.Minute),
	}, usage[0])
}

func TestCoordinator_Resolve_CallerCancelDoesNotAbortFetch(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	release := make(chan struct{})
	p := &mockProvider{
		name: "primary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			<-release
			return sampleQuote(symbol, 42), nil
		},
	}
	store := newTestStore(t, clock)
	c := NewCoordinator([]Provider{p}, generousBook(clock, "primary"), store, WithClock(clock.Now))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Resolve(ctx, "META", entity.KindQuote)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.Eventually(t, func() bool {
		_, err := store.Get(context.Background(), CacheKey("META", entity.KindQuote))
		return err == nil
	}, time.Second, 5*time.Millisecond)

	res, err := c.Resolve(context.Background(), "META", entity.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, entity.SourceCache, res.Source)
	assert.Equal(t, 1, p.calls())
}

func TestCoordinator_Resolve_CorruptCacheIsMiss(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	store := newTestStore(t, clock)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "IBM_quote.json"), []byte("{broken"), 0o644))

	p := &mockProvider{
		name: "primary",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 170), nil
		},
	}
	c := NewCoordinator([]Provider{p}, generousBook(clock, "primary"), store, WithClock(clock.Now))

	res, err := c.Resolve(context.Background(), "IBM", entity.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Source)
}

func TestCoordinator_Resolve_InvalidInput(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	c := NewCoordinator(nil, generousBook(clock), newTestStore(t, clock))

	_, err := c.Resolve(context.Background(), "", entity.KindQuote)
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)

	_, err = c.Resolve(context.Background(), "TOO-LONG-SYMBOL", entity.KindQuote)
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)

	_, err = c.Resolve(context.Background(), "AAPL", entity.Kind("fundamentals"))
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestCoordinator_Resolve_ProviderBadQuoteFallsBack(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	bad := &mockProvider{
		name: "bad",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			q := sampleQuote(symbol, 1)
			q.Timestamp = time.Time{}
			return q, nil
		},
	}
	good := &mockProvider{
		name: "good",
		FetchQuoteFunc: func(ctx context.Context, symbol string) (entity.Quote, error) {
			return sampleQuote(symbol, 2), nil
		},
	}
	c := NewCoordinator([]Provider{bad, good}, generousBook(clock, "bad", "good"), newTestStore(t, clock), WithClock(clock.Now))

	res, err := c.Resolve(context.Background(), "AAPL", entity.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, "good", res.Source)
}

func TestCoordinator_Providers(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	c := NewCoordinator([]Provider{&mockProvider{name: "a"}, &mockProvider{name: "b"}}, generousBook(clock), newTestStore(t, clock))
	assert.Equal(t, []string{"a", "b"}, c.Providers())
}

func TestCoordinator_Resolve_NewsCachedWithOwnTTL(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	var gotFrom, gotTo time.Time
	p := &mockNewsProvider{
		mockProvider: mockProvider{name: "primary"},
		FetchNewsFunc: func(ctx context.Context, symbol string, from, to time.Time) ([]entity.Article, error) {
			gotFrom, gotTo = from, to
			return []entity.Article{
				{Headline: "older", URL: "https://example.com/1", PublishedAt: clock.Now().Add(-2 * time.Hour)},
				{Headline: "newer", URL: "https://example.com/2", PublishedAt: clock.Now().Add(-time.Hour)},
				{Headline: "  ", URL: "https://example.com/3"},
			}, nil
		},
	}
	c := NewCoordinator([]Provider{p}, generousBook(clock, "primary"), newTestStore(t, clock),
		WithClock(clock.Now), WithNewsTTL(10*time.Minute), WithNewsDays(3))
	ctx := context.Background()

	first, err := c.Resolve(ctx, "aapl", entity.KindNews)
	require.NoError(t, err)
	assert.Equal(t, "primary", first.Source)
	assert.Nil(t, first.Quote)
	require.Len(t, first.News, 2)
	assert.Equal(t, "newer", first.News[0].Headline)
	assert.Equal(t, clock.Now(), gotTo)
	assert.Equal(t, clock.Now().AddDate(0, 0, -3), gotFrom)

	clock.Advance(9 * time.Minute)
	second, err := c.Resolve(ctx, "AAPL", entity.KindNews)
	require.NoError(t, err)
	assert.Equal(t, entity.SourceCache, second.Source)
	assert.Equal(t, first.News, second.News)

	clock.Advance(2 * time.Minute)
	_, err = c.Resolve(ctx, "AAPL", entity.KindNews)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.newsCalls.Load())
}

func TestCoordinator_Resolve_NewsSkipsProvidersWithoutNews(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	plain := &mockProvider{name: "plain"}
	news := &mockNewsProvider{
		mockProvider: mockProvider{name: "news"},
		FetchNewsFunc: func(ctx context.Context, symbol string, from, to time.Time) ([]entity.Article, error) {
			return nil, nil
		},
	}
	book := generousBook(clock, "plain", "news")
	c := NewCoordinator([]Provider{plain, news}, book, newTestStore(t, clock), WithClock(clock.Now))

	res, err := c.Resolve(context.Background(), "MSFT", entity.KindNews)
	require.NoError(t, err)
	assert.Equal(t, "news", res.Source)
	assert.NotNil(t, res.News)
	assert.Empty(t, res.News)
	assert.Equal(t, 0, plain.calls())

	for _, u := range c.QuotaUsage() {
		if u.Provider == "plain" {
			assert.Equal(t, 0, u.Used)
		}
	}
}

func TestCoordinator_Resolve_NewsWithoutNewsProvider(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	c := NewCoordinator([]Provider{&mockProvider{name: "plain"}}, generousBook(clock, "plain"), newTestStore(t, clock))

	_, err := c.Resolve(context.Background(), "MSFT", entity.KindNews)
	require.ErrorIs(t, err, domain.ErrNoDataAvailable)
	assert.Contains(t, err.Error(), "plain: news not supported")
}

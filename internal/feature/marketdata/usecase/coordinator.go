package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/shared/ratelimiter"
)

const (
	DefaultQuoteTTL     = 60 * time.Second
	DefaultHistoryTTL   = 4 * time.Hour
	DefaultNewsTTL      = 15 * time.Minute
	DefaultNewsDays     = 7
	DefaultLookbackDays = 100
	DefaultFetchTimeout = 30 * time.Second
)

// Cache lookup results reported to Metrics.
const (
	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupStale = "stale"
	lookupServe = "stale_served"
)

// Coordinator はシンボルとデータ種別の要求を、キャッシュまたはプロバイダーから解決します。
//
// プロバイダーは生成時に渡した順序で固定的に試行します。クォータが尽きたプロバイダーは
// 待たずにスキップし、一時的なエラーは次のプロバイダーへのフォールバックで吸収します。
// 同じキーへの同時要求はひとつの取得処理を共有します。
type Coordinator struct {
	providers    []Provider
	quotas       Quotas
	store        CacheStore
	metrics      Metrics
	flights      singleflight.Group
	quoteTTL     time.Duration
	historyTTL   time.Duration
	newsTTL      time.Duration
	lookbackDays int
	newsDays     int
	serveStale   bool
	fetchTimeout time.Duration
	now          func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTTLs sets the cache TTLs written for quotes and histories.
func WithTTLs(quote, history time.Duration) Option {
	return func(c *Coordinator) {
		if quote > 0 {
			c.quoteTTL = quote
		}
		if history > 0 {
			c.historyTTL = history
		}
	}
}

// WithNewsTTL sets the cache TTL written for news lists.
func WithNewsTTL(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.newsTTL = d
		}
	}
}

// WithNewsDays sets how many days back company news is requested.
func WithNewsDays(days int) Option {
	return func(c *Coordinator) {
		if days > 0 {
			c.newsDays = days
		}
	}
}

// WithLookbackDays sets how many days of history are requested from providers.
func WithLookbackDays(days int) Option {
	return func(c *Coordinator) {
		if days > 0 {
			c.lookbackDays = days
		}
	}
}

// WithServeStale controls whether an expired cache entry is returned, flagged
// as stale, once every provider has failed.
func WithServeStale(serve bool) Option {
	return func(c *Coordinator) { c.serveStale = serve }
}

// WithFetchTimeout bounds one shared fetch across all providers.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithMetrics installs a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock overrides the clock used to stamp provider results.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator は新しい Coordinator を作成します。providers の順序が優先順位になります。
func NewCoordinator(providers []Provider, quotas Quotas, store CacheStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		providers:    providers,
		quotas:       quotas,
		store:        store,
		metrics:      noopMetrics{},
		quoteTTL:     DefaultQuoteTTL,
		historyTTL:   DefaultHistoryTTL,
		newsTTL:      DefaultNewsTTL,
		lookbackDays: DefaultLookbackDays,
		newsDays:     DefaultNewsDays,
		serveStale:   true,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers returns the provider names in priority order.
func (c *Coordinator) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// QuotaUsage returns the current per-provider quota usage.
func (c *Coordinator) QuotaUsage() []ratelimiter.Usage {
	return c.quotas.Usage()
}

// CacheKey は (symbol, kind) のキャッシュキーを返します。
func CacheKey(symbol string, kind entity.Kind) string {
	return symbol + ":" + string(kind)
}

// Resolve は symbol の kind データを返します。
//
//  1. キャッシュが新鮮ならプロバイダーを呼ばずに返す
//  2. そうでなければ優先順にプロバイダーを試行し、成功したらキャッシュに書き込んで返す
//  3. 全滅した場合、期限切れのエントリがあれば Stale=true を付けて返す
//  4. それもなければ domain.ErrNoDataAvailable
//
// 取得処理は呼び出し元のキャンセルから切り離されて実行されます。呼び出し元が
// 先に諦めても、発行済みの呼び出しはクォータに計上されたまま結果がキャッシュされます。
func (c *Coordinator) Resolve(ctx context.Context, symbol string, kind entity.Kind) (*entity.Result, error) {
	sym, err := entity.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if _, err := entity.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	key := CacheKey(sym, kind)

	if res, ok := c.freshFromCache(ctx, key, sym, kind); ok {
		return res, nil
	}

	ch := c.flights.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fetch(fctx, key, sym, kind)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		// shared callers each get their own copy of the envelope
		res := *r.Val.(*entity.Result)
		return &res, nil
	}
}

// freshFromCache returns the cached result when it is within its TTL.
func (c *Coordinator) freshFromCache(ctx context.Context, key, sym string, kind entity.Kind) (*entity.Result, bool) {
	e, err := c.store.Get(ctx, key)
	if err != nil || !c.store.IsFresh(e) {
		return nil, false
	}
	res, err := decodeResult(e.Payload, sym, kind)
	if err != nil {
		return nil, false
	}
	res.Source = entity.SourceCache
	res.FetchedAt = e.FetchedAt
	c.metrics.CacheLookup(string(kind), lookupHit)
	slog.Debug("cache hit", "symbol", sym, "kind", kind)
	return res, true
}

// fetch runs inside the shared flight for key.
func (c *Coordinator) fetch(ctx context.Context, key, sym string, kind entity.Kind) (*entity.Result, error) {
	// a flight that finished just before this one may have filled the cache
	entry, err := c.store.Get(ctx, key)
	hasEntry := err == nil
	if hasEntry {
		if c.store.IsFresh(entry) {
			if res, err := decodeResult(entry.Payload, sym, kind); err == nil {
				res.Source = entity.SourceCache
				res.FetchedAt = entry.FetchedAt
				c.metrics.CacheLookup(string(kind), lookupHit)
				return res, nil
			}
		}
		c.metrics.CacheLookup(string(kind), lookupStale)
	} else {
		c.metrics.CacheLookup(string(kind), lookupMiss)
	}

	var errs []error
	for _, p := range c.providers {
		name := p.Name()
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !supports(p, kind) {
			errs = append(errs, fmt.Errorf("%s: %s not supported", name, kind))
			continue
		}
		if !c.quotas.Acquire(name) {
			slog.Warn("provider quota exhausted, skipping", "provider", name, "symbol", sym, "kind", kind)
			c.metrics.QuotaSkip(name)
			errs = append(errs, fmt.Errorf("%s: quota exhausted", name))
			continue
		}

		res, payload, err := c.call(ctx, p, sym, kind)
		c.metrics.ProviderCall(name, string(kind), outcome(err))
		if err != nil {
			slog.Warn("provider failed, falling back", "provider", name, "symbol", sym, "kind", kind, "error", err)
			errs = append(errs, err)
			continue
		}

		if err := c.store.Put(ctx, key, payload, c.ttl(kind)); err != nil {
			slog.Warn("cache write failed", "key", key, "error", err)
		}
		return res, nil
	}

	if hasEntry && c.serveStale {
		res, err := decodeResult(entry.Payload, sym, kind)
		if err == nil {
			res.Source = entity.SourceCache
			res.FetchedAt = entry.FetchedAt
			res.Stale = true
			c.metrics.CacheLookup(string(kind), lookupServe)
			slog.Warn("serving stale data", "symbol", sym, "kind", kind, "fetched_at", entry.FetchedAt)
			return res, nil
		}
	}
	return nil, noData(sym, kind, errs)
}

// noData wraps only ErrNoDataAvailable. Provider errors are transient and stay
// inside the coordinator, so they are kept as text for the log only.
func noData(sym string, kind entity.Kind, attempts []error) error {
	if len(attempts) == 0 {
		return fmt.Errorf("%w: %s %s: no provider configured", domain.ErrNoDataAvailable, sym, kind)
	}
	msgs := make([]string, len(attempts))
	for i, err := range attempts {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%w: %s %s: %v", domain.ErrNoDataAvailable, sym, kind, strings.Join(msgs, "; "))
}

// call invokes p for kind and returns the result plus its cache payload.
func (c *Coordinator) call(ctx context.Context, p Provider, sym string, kind entity.Kind) (*entity.Result, json.RawMessage, error) {
	res := &entity.Result{Symbol: sym, Kind: kind, Source: p.Name(), FetchedAt: c.now().UTC()}

	var payload any
	switch kind {
	case entity.KindQuote:
		q, err := p.FetchQuote(ctx, sym)
		if err != nil {
			return nil, nil, err
		}
		if err := q.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p.Name(), err)
		}
		res.Quote, payload = &q, q
	case entity.KindHistory:
		s, err := p.FetchHistory(ctx, sym, c.lookbackDays)
		if err != nil {
			return nil, nil, err
		}
		if s.Len() == 0 {
			return nil, nil, fmt.Errorf("%s: %w: empty series", p.Name(), domain.ErrProviderBadData)
		}
		res.Series, payload = &s, s
	case entity.KindNews:
		to := c.now().UTC()
		items, err := p.(NewsProvider).FetchNews(ctx, sym, to.AddDate(0, 0, -c.newsDays), to)
		if err != nil {
			return nil, nil, err
		}
		items = entity.NormalizeArticles(items)
		res.News, payload = items, items
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %v", p.Name(), domain.ErrProviderBadData, err)
	}
	return res, b, nil
}

// supports reports whether p can serve kind. News is optional for providers.
func supports(p Provider, kind entity.Kind) bool {
	if kind != entity.KindNews {
		return true
	}
	_, ok := p.(NewsProvider)
	return ok
}

func (c *Coordinator) ttl(kind entity.Kind) time.Duration {
	switch kind {
	case entity.KindHistory:
		return c.historyTTL
	case entity.KindNews:
		return c.newsTTL
	default:
		return c.quoteTTL
	}
}

// decodeResult rebuilds a Result from a cached payload.
func decodeResult(payload json.RawMessage, sym string, kind entity.Kind) (*entity.Result, error) {
	res := &entity.Result{Symbol: sym, Kind: kind}
	switch kind {
	case entity.KindQuote:
		var q entity.Quote
		if err := json.Unmarshal(payload, &q); err != nil {
			return nil, err
		}
		res.Quote = &q
	case entity.KindHistory:
		var s entity.HistoricalSeries
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		if s.Len() == 0 {
			return nil, errors.New("empty cached series")
		}
		res.Series = &s
	case entity.KindNews:
		var items []entity.Article
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, err
		}
		if items == nil {
			items = []entity.Article{}
		}
		res.News = items
	}
	return res, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrProviderRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrProviderBadData):
		return "bad_data"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

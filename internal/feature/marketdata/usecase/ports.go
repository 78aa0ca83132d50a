package usecase

import (
	"context"
	"encoding/json"
	"time"

	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/platform/cache"
	"stock_terminal/internal/shared/ratelimiter"
)

// Provider は外部の株価データソースを抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type Provider interface {
	// Name はクォータと結果の Source に使う識別子です。
	Name() string
	FetchQuote(ctx context.Context, symbol string) (entity.Quote, error)
	FetchHistory(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error)
}

// NewsProvider is implemented by providers that also serve company news.
// Providers without it are skipped for news requests.
type NewsProvider interface {
	FetchNews(ctx context.Context, symbol string, from, to time.Time) ([]entity.Article, error)
}

// CacheStore はキー単位のTTL付きキャッシュです。
// 欠損・破損したレコードは cache.ErrMiss として報告されます。
type CacheStore interface {
	Get(ctx context.Context, key string) (cache.Entry, error)
	Put(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error
	IsFresh(e cache.Entry) bool
}

// Quotas はプロバイダーごとの呼び出し枠です。Acquire は待機せずに結果を返します。
type Quotas interface {
	Acquire(provider string) bool
	Usage() []ratelimiter.Usage
}

// Metrics receives coordinator events. Labels are low-cardinality strings.
type Metrics interface {
	CacheLookup(kind, result string)
	ProviderCall(provider, kind, outcome string)
	QuotaSkip(provider string)
}

type noopMetrics struct{}

func (noopMetrics) CacheLookup(string, string)          {}
func (noopMetrics) ProviderCall(string, string, string) {}
func (noopMetrics) QuotaSkip(string)                    {}

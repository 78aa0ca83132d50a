// Package di provides dependency injection factories for creating application components.
package di

import (
	"log/slog"

	"stock_terminal/internal/config"
	"stock_terminal/internal/feature/marketdata/adapters/alphavantage"
	"stock_terminal/internal/feature/marketdata/adapters/finnhub"
	"stock_terminal/internal/feature/marketdata/adapters/polygon"
	"stock_terminal/internal/feature/marketdata/adapters/twelvedata"
	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/feature/marketdata/usecase"
	infrahttp "stock_terminal/internal/platform/http"
	"stock_terminal/internal/shared/ratelimiter"
)

// NewProviders creates a client for every provider in priority order that has
// an API key. Providers without a key are skipped, never an error.
func NewProviders(cfg *config.Config) []usecase.Provider {
	// one shared client; its Timeout bounds every provider request
	httpClient := infrahttp.NewHTTPClient(cfg.Providers.Timeout)

	var out []usecase.Provider
	for _, name := range cfg.Providers.Order {
		pc := cfg.Providers.Configs[name]
		if pc.APIKey == "" {
			slog.Info("provider disabled: no API key", "provider", name)
			continue
		}
		switch name {
		case config.ProviderFinnhub:
			out = append(out, finnhub.NewClient(finnhub.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL}, httpClient))
		case config.ProviderPolygon:
			out = append(out, polygon.NewClient(polygon.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL}, httpClient))
		case config.ProviderAlphaVantage:
			out = append(out, alphavantage.NewClient(alphavantage.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL}, httpClient))
		case config.ProviderTwelveData:
			out = append(out, twelvedata.NewClient(twelvedata.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL}, httpClient))
		}
	}
	if len(out) == 0 {
		slog.Warn("no provider configured; only cached data can be served")
	}
	return out
}

// NewQuotaBook creates one sliding-window quota per enabled provider.
func NewQuotaBook(cfg *config.Config) *ratelimiter.Book {
	var qs []*ratelimiter.Quota
	for _, name := range cfg.EnabledProviders() {
		pc := cfg.Providers.Configs[name]
		qs = append(qs, ratelimiter.NewQuota(name, pc.RateLimit, cfg.Providers.Window))
	}
	return ratelimiter.NewBook(qs...)
}

// NewCoordinator wires providers, quotas and store into the fetch coordinator.
func NewCoordinator(cfg *config.Config, store usecase.CacheStore, metrics usecase.Metrics) *usecase.Coordinator {
	return usecase.NewCoordinator(NewProviders(cfg), NewQuotaBook(cfg), store,
		usecase.WithTTLs(cfg.Cache.QuoteTTL, cfg.Cache.HistoryTTL),
		usecase.WithNewsTTL(cfg.Cache.NewsTTL),
		usecase.WithNewsDays(cfg.Cache.NewsDays),
		usecase.WithLookbackDays(cfg.Cache.LookbackDays),
		usecase.WithServeStale(cfg.ServeStaleEnabled()),
		usecase.WithFetchTimeout(cfg.Cache.FetchTimeout),
		usecase.WithMetrics(metrics),
	)
}

// IndicatorParams maps the screener section to indicator parameters.
func IndicatorParams(cfg *config.Config) indicator.Params {
	return indicator.Params{
		RSIPeriod:      cfg.Screener.RSIPeriod,
		ShortWindow:    cfg.Screener.SMAShort,
		LongWindow:     cfg.Screener.SMALong,
		MomentumWindow: cfg.Screener.MomentumWindow,
		FlatEpsilon:    cfg.Screener.FlatEpsilon,
	}
}

package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stock_terminal/internal/app/router"
	"stock_terminal/internal/config"
	markethandler "stock_terminal/internal/feature/marketdata/transport/handler"
	mdusecase "stock_terminal/internal/feature/marketdata/usecase"
	portfolioadapters "stock_terminal/internal/feature/portfolio/adapters"
	portfoliohandler "stock_terminal/internal/feature/portfolio/transport/handler"
	portfoliousecase "stock_terminal/internal/feature/portfolio/usecase"
	screenerentity "stock_terminal/internal/feature/screener/domain/entity"
	screenerhandler "stock_terminal/internal/feature/screener/transport/handler"
	screenerusecase "stock_terminal/internal/feature/screener/usecase"
	watchlistadapters "stock_terminal/internal/feature/watchlist/adapters"
	watchlistentity "stock_terminal/internal/feature/watchlist/domain/entity"
	watchlisthandler "stock_terminal/internal/feature/watchlist/transport/handler"
	watchlistusecase "stock_terminal/internal/feature/watchlist/usecase"
	infradb "stock_terminal/internal/platform/db"
	healthhandler "stock_terminal/internal/platform/http/handler"
	"stock_terminal/internal/platform/metrics"
	"stock_terminal/internal/platform/scheduler"
	"stock_terminal/internal/platform/stream"
)

// Job names registered on the scheduler.
const (
	JobWatchlistRefresh = "watchlist-refresh"
	JobQuotaGauges      = "quota-gauges"
)

// App is the fully wired server.
type App struct {
	Config      *config.Config
	Store       CacheStore
	Coordinator *mdusecase.Coordinator
	Screener    *screenerusecase.ScreenerUsecase
	Watchlist   *watchlistusecase.WatchlistUsecase
	Portfolio   *portfoliousecase.PortfolioUsecase
	Metrics     *metrics.Metrics
	Hub         *stream.Hub
	Scheduler   *scheduler.Scheduler
	Router      *gin.Engine

	db  *gorm.DB
	rdb *redis.Client
}

// Thresholds maps the screener section to signal levels and preset bands.
func Thresholds(cfg *config.Config) screenerentity.Thresholds {
	return screenerentity.Thresholds{
		Oversold:          cfg.Screener.Oversold,
		Overbought:        cfg.Screener.Overbought,
		MomentumStrong:    cfg.Screener.MomentumStrong,
		MomentumMild:      cfg.Screener.MomentumMild,
		DayChangeBreakout: cfg.Screener.DayChangeBreakout,
	}
}

// NewScreener creates the screener usecase from configuration.
func NewScreener(cfg *config.Config, resolver screenerusecase.Resolver) *screenerusecase.ScreenerUsecase {
	th := Thresholds(cfg)
	universe := screenerusecase.Universe{Default: cfg.Screener.Universe, Sectors: cfg.Screener.Sectors}
	return screenerusecase.NewScreenerUsecase(resolver, IndicatorParams(cfg), th, universe)
}

// NewApp wires every component of the server. ctx is handed to scheduled jobs.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New(nil), Hub: stream.NewHub(), Scheduler: scheduler.New(ctx)}

	store, rdb, err := NewCacheStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store, a.rdb = store, rdb

	a.db, err = infradb.Open(infradb.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		ConnectWait:  cfg.Database.ConnectWait,
		RunMigration: true,
	}, append([]any{&watchlistentity.Item{}}, portfolioadapters.Models()...)...)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Usecase
	a.Coordinator = NewCoordinator(cfg, store, a.Metrics)
	indicatorUC := mdusecase.NewIndicatorUsecase(a.Coordinator, IndicatorParams(cfg))
	a.Screener = NewScreener(cfg, a.Coordinator)
	a.Watchlist = watchlistusecase.NewWatchlistUsecase(
		watchlistadapters.NewWatchlistRepository(a.db), a.Coordinator, cfg.Watchlist.Concurrency)
	a.Portfolio = portfoliousecase.NewPortfolioUsecase(
		portfolioadapters.NewPortfolioRepository(a.db, decimal.NewFromFloat(cfg.Portfolio.StartingCash)),
		a.Coordinator, decimal.NewFromFloat(cfg.Portfolio.StartingCash))

	// Scheduled jobs take the same Resolve path as HTTP requests.
	refresher := watchlistusecase.NewRefresher(a.Watchlist, a.Hub)
	if err := a.Scheduler.Every(JobWatchlistRefresh, cfg.Watchlist.RefreshInterval, refresher.Refresh); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.Scheduler.Every(JobQuotaGauges, cfg.Providers.Window/4, a.publishQuotaGauges); err != nil {
		a.Close()
		return nil, err
	}

	// Handler
	a.Router = router.NewRouter(router.Handlers{
		Health:    healthhandler.NewHealthHandler(a.checks()),
		Market:    markethandler.NewMarketHandler(a.Coordinator, indicatorUC),
		Screener:  screenerhandler.NewScreenerHandler(a.Screener),
		Watchlist: watchlisthandler.NewWatchlistHandler(a.Watchlist),
		Portfolio: portfoliohandler.NewPortfolioHandler(a.Portfolio),
		Metrics:   a.Metrics.GinHandler(),
		Stream:    a.Hub.Handler(),
	}, a.Metrics.Middleware())

	slog.Info("application wired", "providers", a.Coordinator.Providers(), "cache", cfg.Cache.Backend, "database", cfg.Database.Driver)
	return a, nil
}

func (a *App) publishQuotaGauges(context.Context) error {
	for _, u := range a.Coordinator.QuotaUsage() {
		a.Metrics.SetQuotaUsed(u.Provider, u.Used)
	}
	return nil
}

func (a *App) checks() map[string]healthhandler.Check {
	checks := map[string]healthhandler.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"providers": func(context.Context) error {
			if len(a.Coordinator.Providers()) == 0 {
				return fmt.Errorf("no provider configured")
			}
			return nil
		},
	}
	if a.rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() }
	}
	return checks
}

// Close releases the hub, Redis and database connections.
func (a *App) Close() {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

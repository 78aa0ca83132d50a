package router

import (
	"github.com/gin-gonic/gin"

	markethandler "stock_terminal/internal/feature/marketdata/transport/handler"
	portfoliohandler "stock_terminal/internal/feature/portfolio/transport/handler"
	screenerhandler "stock_terminal/internal/feature/screener/transport/handler"
	watchlisthandler "stock_terminal/internal/feature/watchlist/transport/handler"
	healthhandler "stock_terminal/internal/platform/http/handler"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Health    *healthhandler.HealthHandler
	Market    *markethandler.MarketHandler
	Screener  *screenerhandler.ScreenerHandler
	Watchlist *watchlisthandler.WatchlistHandler
	Portfolio *portfoliohandler.PortfolioHandler
	Metrics   gin.HandlerFunc // GET /metrics
	Stream    gin.HandlerFunc // GET /ws/quotes
}

// NewRouter builds the gin engine. middleware runs before every route.
func NewRouter(h Handlers, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware...)

	// 導通確認用
	r.GET("/healthz", h.Health.Live)
	r.HEAD("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics)
	}

	// 株価データ（キャッシュ優先、プロバイダーへフォールバック）
	r.GET("/quotes/:symbol", h.Market.GetQuote)
	r.GET("/history/:symbol", h.Market.GetHistory)
	r.GET("/indicators/:symbol", h.Market.GetIndicators)
	r.GET("/news/:symbol", h.Market.GetNews)
	r.GET("/risk/:symbol", h.Market.GetRisk)
	r.GET("/quotas", h.Market.ListQuotas)

	// スクリーナー
	r.GET("/screener", h.Screener.Screen)
	r.GET("/screener/presets", h.Screener.Presets)

	// ウォッチリスト
	wl := r.Group("/watchlist")
	{
		wl.GET("", h.Watchlist.List)
		wl.GET("/snapshot", h.Watchlist.Snapshot)
		wl.POST("", h.Watchlist.Add)
		wl.DELETE("/:symbol", h.Watchlist.Remove)
	}

	// 仮想ポートフォリオ
	pf := r.Group("/portfolio")
	{
		pf.GET("", h.Portfolio.Summary)
		pf.GET("/positions/:symbol", h.Portfolio.Position)
		pf.GET("/transactions", h.Portfolio.Transactions)
		pf.POST("/buy", h.Portfolio.Buy)
		pf.POST("/sell", h.Portfolio.Sell)
	}

	if h.Stream != nil {
		r.GET("/ws/quotes", h.Stream)
	}
	return r
}

// Package handler はmarketdataフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/feature/marketdata/transport/http/dto"
	"stock_terminal/internal/shared/ratelimiter"
)

// MarketUsecase は株価データ解決のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MarketUsecase interface {
	Resolve(ctx context.Context, symbol string, kind entity.Kind) (*entity.Result, error)
	QuotaUsage() []ratelimiter.Usage
}

// IndicatorUsecase はテクニカル指標計算のユースケースインターフェースを定義します。
type IndicatorUsecase interface {
	Indicators(ctx context.Context, symbol string) (*entity.Result, indicator.Snapshot, error)
}

// MarketHandler は株価・履歴・指標・クォータのHTTPリクエストを処理します。
type MarketHandler struct {
	market     MarketUsecase
	indicators IndicatorUsecase
}

// NewMarketHandler は新しい MarketHandler を作成します。
func NewMarketHandler(market MarketUsecase, indicators IndicatorUsecase) *MarketHandler {
	return &MarketHandler{market: market, indicators: indicators}
}

// GetQuote は最新の株価を返します。
//
// エンドポイント例:
// GET /quotes/:symbol
func (h *MarketHandler) GetQuote(c *gin.Context) {
	res, err := h.market.Resolve(c.Request.Context(), c.Param("symbol"), entity.KindQuote)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuoteResponse(res))
}

// GetHistory は日足の終値系列を日付昇順で返します。
//
// エンドポイント例:
// GET /history/:symbol
func (h *MarketHandler) GetHistory(c *gin.Context) {
	res, err := h.market.Resolve(c.Request.Context(), c.Param("symbol"), entity.KindHistory)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryResponse(res))
}

// GetIndicators はRSI・SMA・モメンタム・トレンドを返します。
//
// エンドポイント例:
// GET /indicators/:symbol
func (h *MarketHandler) GetIndicators(c *gin.Context) {
	res, snap, err := h.indicators.Indicators(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.IndicatorResponse{Meta: dto.NewMeta(res), Symbol: res.Symbol, Indicators: snap})
}

// GetNews は直近の企業ニュースを新しい順で返します。
//
// エンドポイント例:
// GET /news/:symbol?limit=10
func (h *MarketHandler) GetNews(c *gin.Context) {
	var q dto.NewsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := h.market.Resolve(c.Request.Context(), c.Param("symbol"), entity.KindNews)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewNewsResponse(res, q.Limit))
}

// GetRisk は最新の株価から値幅ボラティリティと損切り・利確の目安を返します。
//
// エンドポイント例:
// GET /risk/:symbol
func (h *MarketHandler) GetRisk(c *gin.Context) {
	res, err := h.market.Resolve(c.Request.Context(), c.Param("symbol"), entity.KindQuote)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RiskResponse{Meta: dto.NewMeta(res), Risk: indicator.RiskOf(*res.Quote)})
}

// ListQuotas はプロバイダーごとのクォータ使用状況を返します。
//
// エンドポイント例:
// GET /quotas
func (h *MarketHandler) ListQuotas(c *gin.Context) {
	usage := h.market.QuotaUsage()
	out := make([]dto.QuotaResponse, 0, len(usage))
	for _, u := range usage {
		out = append(out, dto.NewQuotaResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

// WriteError maps marketdata errors to HTTP responses. Missing data is
// rendered as "N/A", never as a made-up value.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol), errors.Is(err, domain.ErrInvalidKind):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoDataAvailable):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "N/A", Detail: err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusGatewayTimeout, dto.ErrorResponse{Error: "request timed out"})
	default:
		slog.Error("unexpected marketdata error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

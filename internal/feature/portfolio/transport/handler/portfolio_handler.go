// Package handler はportfolioフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	mddomain "stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/portfolio/domain"
	"stock_terminal/internal/feature/portfolio/domain/entity"
	"stock_terminal/internal/feature/portfolio/transport/http/dto"
	"stock_terminal/internal/feature/portfolio/usecase"
)

const defaultTransactionLimit = 50

// PortfolioUsecase はポートフォリオのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PortfolioUsecase interface {
	Buy(ctx context.Context, o usecase.Order) (entity.Transaction, error)
	Sell(ctx context.Context, o usecase.Order) (entity.Transaction, error)
	Summary(ctx context.Context) (entity.Summary, error)
	Position(ctx context.Context, symbol string) (entity.Position, error)
	Transactions(ctx context.Context, limit int) ([]entity.Transaction, error)
}

// PortfolioHandler はポートフォリオのHTTPリクエストを処理します。
type PortfolioHandler struct {
	uc PortfolioUsecase
}

// NewPortfolioHandler は新しい PortfolioHandler を作成します。
func NewPortfolioHandler(uc PortfolioUsecase) *PortfolioHandler {
	return &PortfolioHandler{uc: uc}
}

// Summary は時価評価したポートフォリオを返します。
func (h *PortfolioHandler) Summary(c *gin.Context) {
	s, err := h.uc.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Position は指定銘柄の保有状況を返します。
func (h *PortfolioHandler) Position(c *gin.Context) {
	pos, err := h.uc.Position(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

// Transactions は取引履歴を新しい順に返します。
func (h *PortfolioHandler) Transactions(c *gin.Context) {
	var q dto.TransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultTransactionLimit
	}
	txs, err := h.uc.Transactions(c.Request.Context(), q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if txs == nil {
		txs = []entity.Transaction{}
	}
	c.JSON(http.StatusOK, dto.TransactionsResponse{Transactions: txs})
}

// Buy は買い注文を実行します。
func (h *PortfolioHandler) Buy(c *gin.Context) {
	h.trade(c, h.uc.Buy)
}

// Sell は売り注文を実行します。
func (h *PortfolioHandler) Sell(c *gin.Context) {
	h.trade(c, h.uc.Sell)
}

func (h *PortfolioHandler) trade(c *gin.Context, exec func(context.Context, usecase.Order) (entity.Transaction, error)) {
	var req dto.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := exec(c.Request.Context(), usecase.Order{Symbol: req.Symbol, Shares: req.Shares, Price: req.Price})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mddomain.ErrInvalidSymbol),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientCash), errors.Is(err, domain.ErrInsufficientShares):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrQuoteUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "N/A", "detail": err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		slog.Error("portfolio request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Package handler はwatchlistフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	mddomain "stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/watchlist/domain"
	"stock_terminal/internal/feature/watchlist/domain/entity"
	"stock_terminal/internal/feature/watchlist/transport/http/dto"
)

// WatchlistUsecase はウォッチリストのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type WatchlistUsecase interface {
	List(ctx context.Context) ([]entity.Item, error)
	Add(ctx context.Context, symbol, note string) (entity.Item, error)
	Remove(ctx context.Context, symbol string) error
	Snapshot(ctx context.Context) ([]entity.Row, error)
}

// WatchlistHandler はウォッチリストのHTTPリクエストを処理します。
type WatchlistHandler struct {
	uc WatchlistUsecase
}

// NewWatchlistHandler は新しい WatchlistHandler を作成します。
func NewWatchlistHandler(uc WatchlistUsecase) *WatchlistHandler {
	return &WatchlistHandler{uc: uc}
}

// List は登録済みの銘柄を登録順に返します。
func (h *WatchlistHandler) List(c *gin.Context) {
	items, err := h.uc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items))
}

// Snapshot は各銘柄の最新株価を含む行を返します。取得できない銘柄は available=false になります。
func (h *WatchlistHandler) Snapshot(c *gin.Context) {
	rows, err := h.uc.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []entity.Row{}
	}
	c.JSON(http.StatusOK, dto.SnapshotResponse{Rows: rows})
}

// Add は銘柄をウォッチリストに追加します。
func (h *WatchlistHandler) Add(c *gin.Context) {
	var req dto.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.uc.Add(c.Request.Context(), req.Symbol, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewItemResponse(item))
}

// Remove は銘柄をウォッチリストから削除します。
func (h *WatchlistHandler) Remove(c *gin.Context) {
	if err := h.uc.Remove(c.Request.Context(), c.Param("symbol")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mddomain.ErrInvalidSymbol):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		slog.Error("watchlist request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

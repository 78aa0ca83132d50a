// Package handler はscreenerフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stock_terminal/internal/feature/screener/domain"
	"stock_terminal/internal/feature/screener/domain/entity"
	"stock_terminal/internal/feature/screener/transport/http/dto"
	"stock_terminal/internal/feature/screener/usecase"
)

// ScreenerUsecase はスクリーニングのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ScreenerUsecase interface {
	Run(ctx context.Context, req usecase.Request) ([]entity.Candidate, error)
	Sectors() []string
	Thresholds() entity.Thresholds
}

// ScreenerHandler はスクリーナーのHTTPリクエストを処理します。
type ScreenerHandler struct {
	uc ScreenerUsecase
}

// NewScreenerHandler は新しい ScreenerHandler を作成します。
func NewScreenerHandler(uc ScreenerUsecase) *ScreenerHandler {
	return &ScreenerHandler{uc: uc}
}

// Screen はクエリで指定された条件でユニバースをスクリーニングします。
// 条件に合う銘柄がない場合は空の配列を返します。
//
// limit はユニバース順で最初に条件を満たした N 件を残してから並べ替えます。
// 全件の中の上位 N 件ではありません。
func (h *ScreenerHandler) Screen(c *gin.Context) {
	var q dto.ScreenQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := toRequest(q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cands, err := h.uc.Run(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCriteria), errors.Is(err, domain.ErrUnknownPreset):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrUnknownSector):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrEmptyUniverse):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "screen timed out"})
		default:
			slog.Error("screen failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ScreenResponse{Count: len(cands), Candidates: cands})
}

// Presets は組み込みプリセット、設定済みセクター、RSIしきい値を返します。
func (h *ScreenerHandler) Presets(c *gin.Context) {
	th := h.uc.Thresholds()
	all := entity.Presets(th)
	out := dto.PresetsResponse{Sectors: h.uc.Sectors(), Thresholds: th}
	for _, name := range entity.PresetNames() {
		out.Presets = append(out.Presets, all[name])
	}
	c.JSON(http.StatusOK, out)
}

func toRequest(q dto.ScreenQuery) (usecase.Request, error) {
	trend, err := entity.ParseTrend(q.Trend)
	if err != nil {
		return usecase.Request{}, err
	}
	signal, err := entity.ParseSignal(q.Signal)
	if err != nil {
		return usecase.Request{}, err
	}
	order, err := entity.ParseOrder(q.Order)
	if err != nil {
		return usecase.Request{}, err
	}

	var symbols []string
	for _, s := range strings.Split(q.Symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	return usecase.Request{
		Symbols: symbols,
		Sector:  q.Sector,
		Preset:  q.Preset,
		Criteria: entity.Criteria{
			MinRSI:         q.MinRSI,
			MaxRSI:         q.MaxRSI,
			Trend:          trend,
			MomentumAbove:  q.MomentumAbove,
			DayChangeAbove: q.DayChangeAbove,
			Signal:         signal,
		},
		Order: order,
		Limit: q.Limit,
	}, nil
}

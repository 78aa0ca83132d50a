// Package dto defines data transfer objects for the screener HTTP API.
package dto

import "stock_terminal/internal/feature/screener/domain/entity"

// ScreenQuery はスクリーニング要求のクエリパラメータです。
//
//	GET /screener?preset=oversold&sector=tech&limit=10
//	GET /screener?symbols=AAPL,MSFT&min_rsi=20&max_rsi=40&trend=UP&signal=BUY&order=rsi_asc
type ScreenQuery struct {
	Symbols        string   `form:"symbols"`
	Sector         string   `form:"sector"`
	Preset         string   `form:"preset"`
	MinRSI         *float64 `form:"min_rsi" binding:"omitempty,min=0,max=100"`
	MaxRSI         *float64 `form:"max_rsi" binding:"omitempty,min=0,max=100"`
	Trend          string   `form:"trend"`
	MomentumAbove  *float64 `form:"momentum_above"`
	DayChangeAbove *float64 `form:"day_change_above"`
	Signal         string   `form:"signal"`
	Order          string   `form:"order"`
	Limit          int      `form:"limit" binding:"omitempty,min=0,max=500"` // first N matches in universe order, sorted afterwards
}

// ScreenResponse はスクリーニング結果のレスポンスDTOです。
type ScreenResponse struct {
	Count      int                `json:"count"`
	Candidates []entity.Candidate `json:"candidates"`
}

// PresetsResponse は利用可能なプリセットとセクターの一覧です。
type PresetsResponse struct {
	Presets    []entity.Preset   `json:"presets"`
	Sectors    []string          `json:"sectors"`
	Thresholds entity.Thresholds `json:"thresholds"`
}

// Package dto defines data transfer objects for the marketdata HTTP API.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/shared/ratelimiter"
)

// Meta は全レスポンスに共通する出所と鮮度の情報です。
type Meta struct {
	Source    string    `json:"source"`     // プロバイダー名または "cache"
	FetchedAt time.Time `json:"fetched_at"` // 取得時刻
	Stale     bool      `json:"stale"`      // TTL切れのデータを返した場合 true
}

// ErrorResponse はエラーレスポンスDTOです。データがない場合 Error は "N/A" です。
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// QuoteResponse は株価のレスポンスDTOです。
type QuoteResponse struct {
	Meta
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Timestamp     time.Time       `json:"timestamp"`
}

// PointResponse は日足1本分のレスポンスDTOです。
type PointResponse struct {
	Date   string  `json:"date"`   // 日付
	Close  float64 `json:"close"`  // 終値
	Volume int64   `json:"volume"` // 出来高
}

// HistoryResponse は日足系列のレスポンスDTOです。
type HistoryResponse struct {
	Meta
	Symbol string          `json:"symbol"`
	Points []PointResponse `json:"points"`
}

// IndicatorResponse はテクニカル指標のレスポンスDTOです。
// 計算できなかった指標は null になります。
type IndicatorResponse struct {
	Meta
	Symbol     string             `json:"symbol"`
	Indicators indicator.Snapshot `json:"indicators"`
}

// NewsQuery は企業ニュース要求のクエリパラメータです。0は全件です。
type NewsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0,max=50"`
}

// NewsResponse は企業ニュースのレスポンスDTOです。記事は新しい順です。
type NewsResponse struct {
	Meta
	Symbol   string           `json:"symbol"`
	Articles []entity.Article `json:"articles"`
}

// RiskResponse は株価から求めたリスク指標のレスポンスDTOです。
type RiskResponse struct {
	Meta
	indicator.Risk
}

// QuotaResponse はプロバイダー1件分のクォータ使用状況です。
type QuotaResponse struct {
	Provider  string     `json:"provider"`
	Used      int        `json:"used"`
	Limit     int        `json:"limit"`
	Window    string     `json:"window"`
	Remaining int        `json:"remaining"`
	ResetsAt  *time.Time `json:"resets_at,omitempty"`
}

// NewMeta copies the provenance fields of r.
func NewMeta(r *entity.Result) Meta {
	return Meta{Source: r.Source, FetchedAt: r.FetchedAt, Stale: r.Stale}
}

// NewQuoteResponse converts a quote result.
func NewQuoteResponse(r *entity.Result) QuoteResponse {
	q := r.Quote
	return QuoteResponse{
		Meta:          NewMeta(r),
		Symbol:        q.Symbol,
		Price:         q.Price,
		ChangePercent: q.ChangePercent,
		Volume:        q.Volume,
		High:          q.High,
		Low:           q.Low,
		Timestamp:     q.Timestamp,
	}
}

// NewHistoryResponse converts a history result.
func NewHistoryResponse(r *entity.Result) HistoryResponse {
	out := HistoryResponse{Meta: NewMeta(r), Symbol: r.Symbol, Points: make([]PointResponse, 0, r.Series.Len())}
	for _, p := range r.Series.Points {
		out.Points = append(out.Points, PointResponse{
			Date:   p.Date.UTC().Format(time.DateOnly),
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	return out
}

// NewNewsResponse converts a news result, keeping at most limit articles
// when limit is positive.
func NewNewsResponse(r *entity.Result, limit int) NewsResponse {
	articles := r.News
	if articles == nil {
		articles = []entity.Article{}
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return NewsResponse{Meta: NewMeta(r), Symbol: r.Symbol, Articles: articles}
}

// NewQuotaResponse converts a quota usage snapshot.
func NewQuotaResponse(u ratelimiter.Usage) QuotaResponse {
	out := QuotaResponse{
		Provider:  u.Provider,
		Used:      u.Used,
		Limit:     u.Limit,
		Window:    u.Window.String(),
		Remaining: max(u.Limit-u.Used, 0),
	}
	if !u.ResetsAt.IsZero() {
		t := u.ResetsAt
		out.ResetsAt = &t
	}
	return out
}

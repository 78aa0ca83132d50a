// Package dto はFinnhub APIレスポンスのデータ転送オブジェクトを定義します。
package dto

// QuoteResponse は /quote エンドポイントのJSONレスポンスを表します。
// 未知のシンボルでも200が返り、全フィールドが0になります。
type QuoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// CandleResponse は /stock/candle エンドポイントのJSONレスポンスを表します。
// 配列は同じ長さで、インデックスごとに1本の足に対応します。
type CandleResponse struct {
	Status     string    `json:"s"` // "ok" or "no_data"
	Close      []float64 `json:"c"`
	Timestamps []int64   `json:"t"`
	Volume     []float64 `json:"v"`
}

// NewsItem は /company-news エンドポイントの配列要素を表します。
type NewsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"` // unix seconds
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

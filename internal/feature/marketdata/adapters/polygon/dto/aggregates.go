// Package dto はPolygon.io集計APIレスポンスのデータ転送オブジェクトを定義します。
package dto

// AggregatesResponse は /v2/aggs 系エンドポイント（prev, range）のJSONレスポンスを表します。
type AggregatesResponse struct {
	Status       string `json:"status"` // "OK", "DELAYED" or "ERROR"
	Ticker       string `json:"ticker"`
	ResultsCount int    `json:"resultsCount"`
	Error        string `json:"error,omitempty"`
	Results      []Bar  `json:"results"`
}

// Bar は1本の集計足です。tはミリ秒単位のUnix時刻です。
type Bar struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"`
}

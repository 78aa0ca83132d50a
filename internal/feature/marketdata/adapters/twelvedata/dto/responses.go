// Package dto はTwelve Data APIレスポンスのデータ転送オブジェクトを定義します。
package dto

// Status はエラー時にすべてのエンドポイントが返す共通フィールドです。
// HTTPステータスは200のまま、codeに本来のステータスが入ります。
type Status struct {
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// QuoteResponse は /quote エンドポイントからのJSONレスポンスを表します。
type QuoteResponse struct {
	Status
	Symbol        string `json:"symbol"`
	Datetime      string `json:"datetime"`
	Timestamp     int64  `json:"timestamp"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	Volume        string `json:"volume"`
	PreviousClose string `json:"previous_close"`
	PercentChange string `json:"percent_change"`
}

// TimeSeriesResponse は /time_series エンドポイントからのJSONレスポンスを表します。
type TimeSeriesResponse struct {
	Status
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

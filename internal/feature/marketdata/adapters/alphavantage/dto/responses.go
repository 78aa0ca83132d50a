// Package dto はAlpha Vantage APIレスポンスのデータ転送オブジェクトを定義します。
package dto

// Notice はAlpha Vantageが200で返す通知フィールドです。
// 無料枠の上限に達すると Note または Information が入ります。
type Notice struct {
	Note         string `json:"Note,omitempty"`
	Information  string `json:"Information,omitempty"`
	ErrorMessage string `json:"Error Message,omitempty"`
}

// GlobalQuoteResponse は function=GLOBAL_QUOTE のJSONレスポンスを表します。
type GlobalQuoteResponse struct {
	Notice
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Open             string `json:"02. open"`
		High             string `json:"03. high"`
		Low              string `json:"04. low"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
		Change           string `json:"09. change"`
		ChangePercent    string `json:"10. change percent"` // e.g. "0.6373%"
	} `json:"Global Quote"`
}

// DailyBar は TIME_SERIES_DAILY の1日分です。
type DailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// DailySeriesResponse は function=TIME_SERIES_DAILY のJSONレスポンスを表します。
// キーは "2006-01-02" 形式の日付です。
type DailySeriesResponse struct {
	Notice
	TimeSeries map[string]DailyBar `json:"Time Series (Daily)"`
}

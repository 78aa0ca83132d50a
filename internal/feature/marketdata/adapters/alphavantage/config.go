// Package alphavantage provides the Alpha Vantage adapter, the tertiary provider.
package alphavantage

// Name identifies this provider in configuration, quotas and results.
const Name = "alphavantage"

// DefaultBaseURL is the public Alpha Vantage query endpoint.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// compactSize is how many daily bars outputsize=compact returns.
const compactSize = 100

// Config はAlpha Vantage APIクライアントの設定を保持します。
type Config struct {
	APIKey  string // 認証用APIキー
	BaseURL string // クエリエンドポイント（空ならDefaultBaseURL）
}

// Package finnhub provides the Finnhub adapter, the primary quote provider.
package finnhub

// Name identifies this provider in configuration, quotas and results.
const Name = "finnhub"

// DefaultBaseURL is the public Finnhub REST endpoint.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Config はFinnhub APIクライアントの設定を保持します。
type Config struct {
	APIKey  string // 認証用APIキー
	BaseURL string // APIのベースURL（空ならDefaultBaseURL）
}

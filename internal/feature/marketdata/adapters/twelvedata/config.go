// Package twelvedata はTwelve Data株式市場APIのクライアントを提供します。
package twelvedata

// Name identifies this provider in configuration, quotas and results.
const Name = "twelvedata"

// DefaultBaseURL is the public Twelve Data REST endpoint.
const DefaultBaseURL = "https://api.twelvedata.com"

// Config はTwelve Data APIクライアントの設定を保持します。
type Config struct {
	APIKey  string // 認証用APIキー
	BaseURL string // APIのベースURL（例: "https://api.twelvedata.com"）
}

// Package polygon provides the Polygon.io adapter, the secondary provider.
package polygon

// Name identifies this provider in configuration, quotas and results.
const Name = "polygon"

// DefaultBaseURL is the public Polygon.io REST endpoint.
const DefaultBaseURL = "https://api.polygon.io"

// Config はPolygon.io APIクライアントの設定を保持します。
type Config struct {
	APIKey  string // 認証用APIキー
	BaseURL string // APIのベースURL（空ならDefaultBaseURL）
}

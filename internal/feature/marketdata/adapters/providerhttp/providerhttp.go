// Package providerhttp holds the HTTP plumbing shared by the market data
// provider adapters: request execution, status mapping and JSON decoding.
package providerhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"stock_terminal/internal/feature/marketdata/domain"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 8 << 20

// Client は1つのプロバイダー向けにHTTPリクエストを実行し、失敗をドメインエラーに変換します。
type Client struct {
	provider string
	http     *http.Client
}

// New は指定されたプロバイダー名とHTTPクライアントでClientを生成します。
func New(provider string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{provider: provider, http: client}
}

// Provider returns the provider name used in error messages.
func (c *Client) Provider() string { return c.provider }

// GetJSON はrawURLにGETリクエストを送り、レスポンスボディをoutにデコードします。
//
// エラーの対応:
//   - 通信エラー、タイムアウト、5xx: domain.ErrProviderUnavailable
//   - 429: domain.ErrProviderRateLimited
//   - その他の4xx: domain.ErrProviderUnavailable
//   - デコードできないボディ: domain.ErrProviderBadData
//
// 呼び出し元のコンテキストがキャンセルされた場合はそのエラーをそのまま返します。
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return c.Errorf(domain.ErrProviderUnavailable, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return c.Errorf(domain.ErrProviderUnavailable, "%v", stripURL(err))
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "provider", c.provider, "error", err)
		}
	}()

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return c.Errorf(domain.ErrProviderRateLimited, "http %d", res.StatusCode)
	case res.StatusCode >= 400:
		return c.Errorf(domain.ErrProviderUnavailable, "http %d", res.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return c.Errorf(domain.ErrProviderUnavailable, "read body: %v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return c.Errorf(domain.ErrProviderBadData, "decode body: %v", err)
	}
	return nil
}

// Errorf wraps sentinel with the provider name and a formatted detail.
func (c *Client) Errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", c.provider, sentinel, fmt.Sprintf(format, args...))
}

// stripURL drops the request URL from transport errors so API keys in the
// query string do not end up in logs.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

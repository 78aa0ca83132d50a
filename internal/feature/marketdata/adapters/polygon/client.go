package polygon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/marketdata/adapters/polygon/dto"
	"stock_terminal/internal/feature/marketdata/adapters/providerhttp"
	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/usecase"
)

// Client はPolygon.io APIから株価データを取得するProvider実装です。
type Client struct {
	cfg  Config
	http *providerhttp.Client
	now  func() time.Time
}

// ClientがProviderを実装していることをコンパイル時に検証します。
var _ usecase.Provider = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{cfg: cfg, http: providerhttp.New(Name, client), now: time.Now}
}

// Name returns "polygon".
func (c *Client) Name() string { return Name }

// FetchQuote は前営業日の集計足（/prev）から株価を組み立てます。
// 変化率は同じ足の始値に対する終値の割合です。
func (c *Client) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	q := url.Values{}
	q.Set("adjusted", "true")
	q.Set("apiKey", c.cfg.APIKey)

	u := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?%s", c.cfg.BaseURL, url.PathEscape(symbol), q.Encode())
	body, err := c.aggregates(ctx, u)
	if err != nil {
		return entity.Quote{}, err
	}

	bar := body.Results[0]
	closePx := decimal.NewFromFloat(bar.Close)
	change := decimal.Zero
	if bar.Open != 0 {
		openPx := decimal.NewFromFloat(bar.Open)
		change = closePx.Sub(openPx).Div(openPx).Mul(decimal.NewFromInt(100)).Round(4)
	}

	quote := entity.Quote{
		Symbol:        symbol,
		Price:         closePx,
		ChangePercent: change,
		Volume:        int64(bar.Volume),
		High:          decimal.NewFromFloat(bar.High),
		Low:           decimal.NewFromFloat(bar.Low),
		Timestamp:     time.UnixMilli(bar.Timestamp).UTC(),
	}
	if err := quote.Validate(); err != nil {
		return entity.Quote{}, fmt.Errorf("%s: %w", Name, err)
	}
	return quote, nil
}

// FetchHistory は日足の範囲集計（/range/1/day）から終値の系列を取得します。
func (c *Client) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
	to := c.now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)

	q := url.Values{}
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("limit", "5000")
	q.Set("apiKey", c.cfg.APIKey)

	u := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?%s",
		c.cfg.BaseURL, url.PathEscape(symbol), from.Format(time.DateOnly), to.Format(time.DateOnly), q.Encode())
	body, err := c.aggregates(ctx, u)
	if err != nil {
		return entity.HistoricalSeries{}, err
	}

	points := make([]entity.Point, 0, len(body.Results))
	for _, bar := range body.Results {
		points = append(points, entity.Point{
			Date:   time.UnixMilli(bar.Timestamp),
			Close:  bar.Close,
			Volume: int64(bar.Volume),
		})
	}
	series, err := entity.NewHistoricalSeries(symbol, points)
	if err != nil {
		return entity.HistoricalSeries{}, fmt.Errorf("%s: %w", Name, err)
	}
	return series, nil
}

// aggregates fetches u and checks the envelope status and that results are present.
func (c *Client) aggregates(ctx context.Context, u string) (dto.AggregatesResponse, error) {
	var body dto.AggregatesResponse
	if err := c.http.GetJSON(ctx, u, &body); err != nil {
		return body, err
	}
	switch body.Status {
	case "OK", "DELAYED":
	default:
		return body, c.http.Errorf(domain.ErrProviderBadData, "status %q: %s", body.Status, body.Error)
	}
	if len(body.Results) == 0 {
		return body, c.http.Errorf(domain.ErrProviderBadData, "no results for %s", body.Ticker)
	}
	return body, nil
}

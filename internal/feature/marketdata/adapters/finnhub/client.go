package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/marketdata/adapters/finnhub/dto"
	"stock_terminal/internal/feature/marketdata/adapters/providerhttp"
	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/usecase"
)

// Client はFinnhub APIから株価データを取得するProvider実装です。
type Client struct {
	cfg  Config
	http *providerhttp.Client
	now  func() time.Time
}

// ClientがProviderを実装していることをコンパイル時に検証します。
var (
	_ usecase.Provider     = (*Client)(nil)
	_ usecase.NewsProvider = (*Client)(nil)
)

// NewClient は指定された設定とHTTPクライアントでClientを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{cfg: cfg, http: providerhttp.New(Name, client), now: time.Now}
}

// Name returns "finnhub".
func (c *Client) Name() string { return Name }

// FetchQuote は /quote から最新の株価を取得します。
func (c *Client) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", c.cfg.APIKey)

	var body dto.QuoteResponse
	if err := c.http.GetJSON(ctx, fmt.Sprintf("%s/quote?%s", c.cfg.BaseURL, q.Encode()), &body); err != nil {
		return entity.Quote{}, err
	}
	// unknown symbols come back as an all-zero object
	if body.Timestamp == 0 {
		return entity.Quote{}, c.http.Errorf(domain.ErrProviderBadData, "no quote for %s", symbol)
	}

	quote := entity.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(body.Current),
		ChangePercent: decimal.NewFromFloat(body.PercentChange).Round(4),
		High:          decimal.NewFromFloat(body.High),
		Low:           decimal.NewFromFloat(body.Low),
		Timestamp:     time.Unix(body.Timestamp, 0).UTC(),
	}
	if err := quote.Validate(); err != nil {
		return entity.Quote{}, fmt.Errorf("%s: %w", Name, err)
	}
	return quote, nil
}

// FetchHistory は /stock/candle から日足の終値を取得します。
func (c *Client) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
	to := c.now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", "D")
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))
	q.Set("token", c.cfg.APIKey)

	var body dto.CandleResponse
	if err := c.http.GetJSON(ctx, fmt.Sprintf("%s/stock/candle?%s", c.cfg.BaseURL, q.Encode()), &body); err != nil {
		return entity.HistoricalSeries{}, err
	}
	if body.Status != "ok" {
		return entity.HistoricalSeries{}, c.http.Errorf(domain.ErrProviderBadData, "candle status %q", body.Status)
	}
	if len(body.Close) != len(body.Timestamps) {
		return entity.HistoricalSeries{}, c.http.Errorf(domain.ErrProviderBadData, "mismatched candle arrays")
	}

	points := make([]entity.Point, 0, len(body.Close))
	for i, cl := range body.Close {
		p := entity.Point{Date: time.Unix(body.Timestamps[i], 0), Close: cl}
		if i < len(body.Volume) {
			p.Volume = int64(body.Volume[i])
		}
		points = append(points, p)
	}
	series, err := entity.NewHistoricalSeries(symbol, points)
	if err != nil {
		return entity.HistoricalSeries{}, fmt.Errorf("%s: %w", Name, err)
	}
	return series, nil
}

// FetchNews は /company-news から from から to までの企業ニュースを取得します。
// 日付は日単位で、両端を含みます。
func (c *Client) FetchNews(ctx context.Context, symbol string, from, to time.Time) ([]entity.Article, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", from.UTC().Format(time.DateOnly))
	q.Set("to", to.UTC().Format(time.DateOnly))
	q.Set("token", c.cfg.APIKey)

	var body []dto.NewsItem
	if err := c.http.GetJSON(ctx, fmt.Sprintf("%s/company-news?%s", c.cfg.BaseURL, q.Encode()), &body); err != nil {
		return nil, err
	}

	articles := make([]entity.Article, 0, len(body))
	for _, item := range body {
		articles = append(articles, entity.Article{
			Headline:    item.Headline,
			Summary:     item.Summary,
			Source:      item.Source,
			URL:         item.URL,
			PublishedAt: time.Unix(item.Datetime, 0).UTC(),
		})
	}
	return entity.NormalizeArticles(articles), nil
}

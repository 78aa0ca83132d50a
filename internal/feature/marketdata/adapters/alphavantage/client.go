package alphavantage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/marketdata/adapters/alphavantage/dto"
	"stock_terminal/internal/feature/marketdata/adapters/providerhttp"
	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/usecase"
)

// Client はAlpha Vantage APIから株価データを取得するProvider実装です。
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

// Name returns "alphavantage".
func (c *Client) Name() string { return Name }

// FetchQuote は GLOBAL_QUOTE から最新の株価を取得します。
func (c *Client) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	var body dto.GlobalQuoteResponse
	if err := c.query(ctx, "GLOBAL_QUOTE", symbol, nil, &body); err != nil {
		return entity.Quote{}, err
	}
	if err := c.checkNotice(body.Notice); err != nil {
		return entity.Quote{}, err
	}
	gq := body.GlobalQuote
	if gq.Price == "" {
		return entity.Quote{}, c.http.Errorf(domain.ErrProviderBadData, "empty global quote for %s", symbol)
	}

	price, err := decimal.NewFromString(gq.Price)
	if err != nil {
		return entity.Quote{}, c.http.Errorf(domain.ErrProviderBadData, "parse price %q", gq.Price)
	}
	change, err := decimal.NewFromString(strings.TrimSuffix(gq.ChangePercent, "%"))
	if err != nil {
		return entity.Quote{}, c.http.Errorf(domain.ErrProviderBadData, "parse change percent %q", gq.ChangePercent)
	}
	// high, low and volume are informational; a blank value maps to zero
	high, _ := decimal.NewFromString(gq.High)
	low, _ := decimal.NewFromString(gq.Low)
	vol, _ := strconv.ParseInt(gq.Volume, 10, 64)

	day, err := time.Parse(time.DateOnly, gq.LatestTradingDay)
	if err != nil {
		return entity.Quote{}, c.http.Errorf(domain.ErrProviderBadData, "parse trading day %q", gq.LatestTradingDay)
	}

	quote := entity.Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: change,
		Volume:        vol,
		High:          high,
		Low:           low,
		Timestamp:     day.UTC(),
	}
	if err := quote.Validate(); err != nil {
		return entity.Quote{}, fmt.Errorf("%s: %w", Name, err)
	}
	return quote, nil
}

// FetchHistory は TIME_SERIES_DAILY から終値の系列を取得します。
// lookbackDaysより前の足は切り捨てます。
func (c *Client) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
	size := "compact"
	if lookbackDays > compactSize {
		size = "full"
	}
	extra := url.Values{}
	extra.Set("outputsize", size)

	var body dto.DailySeriesResponse
	if err := c.query(ctx, "TIME_SERIES_DAILY", symbol, extra, &body); err != nil {
		return entity.HistoricalSeries{}, err
	}
	if err := c.checkNotice(body.Notice); err != nil {
		return entity.HistoricalSeries{}, err
	}

	cutoff := c.now().UTC().AddDate(0, 0, -lookbackDays)
	points := make([]entity.Point, 0, len(body.TimeSeries))
	for day, bar := range body.TimeSeries {
		d, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return entity.HistoricalSeries{}, c.http.Errorf(domain.ErrProviderBadData, "parse date %q", day)
		}
		if d.Before(cutoff) {
			continue
		}
		cl, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			return entity.HistoricalSeries{}, c.http.Errorf(domain.ErrProviderBadData, "parse close %q", bar.Close)
		}
		vol, _ := strconv.ParseInt(bar.Volume, 10, 64)
		points = append(points, entity.Point{Date: d, Close: cl, Volume: vol})
	}

	series, err := entity.NewHistoricalSeries(symbol, points)
	if err != nil {
		return entity.HistoricalSeries{}, fmt.Errorf("%s: %w", Name, err)
	}
	return series, nil
}

func (c *Client) query(ctx context.Context, function, symbol string, extra url.Values, out any) error {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", c.cfg.APIKey)
	return c.http.GetJSON(ctx, fmt.Sprintf("%s?%s", c.cfg.BaseURL, q.Encode()), out)
}

// checkNotice maps the in-body notices Alpha Vantage sends with status 200.
func (c *Client) checkNotice(n dto.Notice) error {
	switch {
	case n.Note != "":
		return c.http.Errorf(domain.ErrProviderRateLimited, "%s", n.Note)
	case n.Information != "":
		return c.http.Errorf(domain.ErrProviderRateLimited, "%s", n.Information)
	case n.ErrorMessage != "":
		return c.http.Errorf(domain.ErrProviderBadData, "%s", n.ErrorMessage)
	}
	return nil
}

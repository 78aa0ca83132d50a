package twelvedata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/marketdata/adapters/providerhttp"
	"stock_terminal/internal/feature/marketdata/adapters/twelvedata/dto"
	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/usecase"
)

// Client はTwelve Data外部APIから株価データを取得するProvider実装です。
type Client struct {
	cfg  Config
	http *providerhttp.Client
}

// ClientがProviderを実装していることをコンパイル時に検証します。
var _ usecase.Provider = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{cfg: cfg, http: providerhttp.New(Name, client)}
}

// Name returns "twelvedata".
func (t *Client) Name() string { return Name }

// FetchQuote は /quote から最新の株価を取得します。
func (t *Client) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", t.cfg.APIKey)

	var body dto.QuoteResponse
	if err := t.http.GetJSON(ctx, fmt.Sprintf("%s/quote?%s", t.cfg.BaseURL, q.Encode()), &body); err != nil {
		return entity.Quote{}, err
	}
	if err := t.checkStatus(body.Status); err != nil {
		return entity.Quote{}, err
	}

	// 終値（現在値）をパース
	price, err := decimal.NewFromString(body.Close)
	if err != nil {
		return entity.Quote{}, t.http.Errorf(domain.ErrProviderBadData, "parse close %q", body.Close)
	}
	// 変化率をパース
	change, err := decimal.NewFromString(body.PercentChange)
	if err != nil {
		return entity.Quote{}, t.http.Errorf(domain.ErrProviderBadData, "parse percent_change %q", body.PercentChange)
	}
	high, _ := decimal.NewFromString(body.High)
	low, _ := decimal.NewFromString(body.Low)
	vol, _ := strconv.ParseInt(body.Volume, 10, 64)

	ts := time.Unix(body.Timestamp, 0).UTC()
	if body.Timestamp == 0 {
		ts, err = parseDatetime(body.Datetime)
		if err != nil {
			return entity.Quote{}, t.http.Errorf(domain.ErrProviderBadData, "%v", err)
		}
	}

	quote := entity.Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: change,
		Volume:        vol,
		High:          high,
		Low:           low,
		Timestamp:     ts,
	}
	if err := quote.Validate(); err != nil {
		return entity.Quote{}, fmt.Errorf("%s: %w", Name, err)
	}
	return quote, nil
}

// FetchHistory はTwelve Data APIから日足の時系列を取得し、
// entity.HistoricalSeriesとして返します。
func (t *Client) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (entity.HistoricalSeries, error) {
	q := url.Values{}
	// クエリパラメータを追加
	q.Set("symbol", symbol)
	q.Set("interval", "1day")
	q.Set("outputsize", strconv.Itoa(lookbackDays))
	q.Set("apikey", t.cfg.APIKey)

	var body dto.TimeSeriesResponse
	if err := t.http.GetJSON(ctx, fmt.Sprintf("%s/time_series?%s", t.cfg.BaseURL, q.Encode()), &body); err != nil {
		return entity.HistoricalSeries{}, err
	}
	if err := t.checkStatus(body.Status); err != nil {
		return entity.HistoricalSeries{}, err
	}

	points := make([]entity.Point, 0, len(body.Values))
	for _, v := range body.Values {
		// タイムスタンプをパース
		tm, err := parseDatetime(v.Datetime)
		if err != nil {
			return entity.HistoricalSeries{}, t.http.Errorf(domain.ErrProviderBadData, "%v", err)
		}
		// 終値をパース
		c, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return entity.HistoricalSeries{}, t.http.Errorf(domain.ErrProviderBadData, "parse close %q", v.Close)
		}
		// 出来高をパース（指数などは出来高なし）
		vol, _ := strconv.ParseInt(v.Volume, 10, 64)

		points = append(points, entity.Point{Date: tm, Close: c, Volume: vol})
	}

	// APIは新しい順に返すため、ここで昇順に揃える
	series, err := entity.NewHistoricalSeries(symbol, points)
	if err != nil {
		return entity.HistoricalSeries{}, fmt.Errorf("%s: %w", Name, err)
	}
	return series, nil
}

// checkStatus maps the status/code envelope Twelve Data returns with HTTP 200.
func (t *Client) checkStatus(s dto.Status) error {
	if s.Status != "error" {
		return nil
	}
	switch {
	case s.Code == http.StatusTooManyRequests:
		return t.http.Errorf(domain.ErrProviderRateLimited, "%s", s.Message)
	case s.Code >= 500:
		return t.http.Errorf(domain.ErrProviderUnavailable, "%s", s.Message)
	default:
		return t.http.Errorf(domain.ErrProviderBadData, "%s", s.Message)
	}
}

func parseDatetime(s string) (time.Time, error) {
	tm, err := time.Parse(time.DateTime, s)
	if err == nil {
		return tm, nil
	}
	tm, err = time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return tm, nil
}

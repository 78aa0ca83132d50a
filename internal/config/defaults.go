package config

import "time"

// Default returns the documented defaults.
func Default() *Config {
	c := &Config{}
	c.Server.Addr = ":8080"
	c.Log.Level = "info"
	c.Log.Format = "json"

	c.Providers.Order = append([]string(nil), KnownProviders...)
	c.Providers.Timeout = 10 * time.Second
	c.Providers.Window = time.Minute
	c.Providers.Configs = map[string]ProviderConfig{
		ProviderFinnhub:      {RateLimit: 60},
		ProviderPolygon:      {RateLimit: 5},
		ProviderAlphaVantage: {RateLimit: 5},
		ProviderTwelveData:   {RateLimit: 8},
	}

	c.Cache.Backend = CacheFile
	c.Cache.Dir = "cache"
	c.Cache.QuoteTTL = 60 * time.Second
	c.Cache.HistoryTTL = 4 * time.Hour
	c.Cache.NewsTTL = 15 * time.Minute
	c.Cache.NewsDays = 7
	c.Cache.StaleRetention = 7 * 24 * time.Hour
	c.Cache.LookbackDays = 100
	c.Cache.FetchTimeout = 30 * time.Second
	c.Cache.Redis.Namespace = "market"

	c.Database.Driver = "sqlite"
	c.Database.DSN = "market.db"
	c.Database.ConnectWait = 30 * time.Second

	c.Screener.Oversold = 30
	c.Screener.Overbought = 70
	c.Screener.RSIPeriod = 14
	c.Screener.SMAShort = 5
	c.Screener.SMALong = 20
	c.Screener.MomentumWindow = 10
	c.Screener.FlatEpsilon = 0.001
	c.Screener.MomentumStrong = 5
	c.Screener.MomentumMild = 2
	c.Screener.DayChangeBreakout = 1
	c.Screener.Universe = []string{
		"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "AVGO", "COST", "NFLX",
		"AMD", "ADBE", "PEP", "CSCO", "INTC", "QCOM", "TXN", "AMGN", "INTU", "AMAT",
	}
	c.Screener.Sectors = map[string][]string{
		"technology": {"AAPL", "MSFT", "NVDA", "AVGO", "AMD", "ADBE", "CSCO", "INTC", "QCOM", "TXN"},
		"consumer":   {"AMZN", "TSLA", "COST", "PEP", "NFLX"},
		"healthcare": {"AMGN", "GILD", "REGN", "VRTX", "ISRG"},
		"financials": {"JPM", "BAC", "GS", "MS", "V"},
		"energy":     {"XOM", "CVX", "COP", "SLB", "EOG"},
	}

	c.Watchlist.RefreshInterval = 60 * time.Second
	c.Watchlist.Concurrency = 4
	c.Portfolio.StartingCash = 100_000
	return c
}

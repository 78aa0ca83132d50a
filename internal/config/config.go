// Package config loads the application configuration from an optional
// .env file, an optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in providers.order.
const (
	ProviderFinnhub      = "finnhub"
	ProviderPolygon      = "polygon"
	ProviderAlphaVantage = "alphavantage"
	ProviderTwelveData   = "twelvedata"
)

// KnownProviders lists every provider in default priority order.
var KnownProviders = []string{ProviderFinnhub, ProviderPolygon, ProviderAlphaVantage, ProviderTwelveData}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

// ProviderConfig is the per-provider section. An empty APIKey disables the provider.
type ProviderConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	RateLimit int    `yaml:"rate_limit"` // calls per providers.window
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Providers struct {
		Order   []string                  `yaml:"order"`
		Timeout time.Duration             `yaml:"timeout"`
		Window  time.Duration             `yaml:"window"`
		Configs map[string]ProviderConfig `yaml:"configs"`
	} `yaml:"providers"`
	Cache struct {
		Backend        string        `yaml:"backend"`
		Dir            string        `yaml:"dir"`
		QuoteTTL       time.Duration `yaml:"quote_ttl"`
		HistoryTTL     time.Duration `yaml:"history_ttl"`
		NewsTTL        time.Duration `yaml:"news_ttl"`
		NewsDays       int           `yaml:"news_days"`
		StaleRetention time.Duration `yaml:"stale_retention"`
		ServeStale     *bool         `yaml:"serve_stale"`
		LookbackDays   int           `yaml:"lookback_days"`
		FetchTimeout   time.Duration `yaml:"fetch_timeout"`
		Redis          struct {
			Addr      string `yaml:"addr"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			Namespace string `yaml:"namespace"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Database struct {
		Driver      string        `yaml:"driver"`
		DSN         string        `yaml:"dsn"`
		ConnectWait time.Duration `yaml:"connect_wait"`
	} `yaml:"database"`
	Screener struct {
		Oversold       float64 `yaml:"oversold"`
		Overbought     float64 `yaml:"overbought"`
		RSIPeriod      int     `yaml:"rsi_period"`
		SMAShort       int     `yaml:"sma_short"`
		SMALong        int     `yaml:"sma_long"`
		MomentumWindow int     `yaml:"momentum_window"`
		FlatEpsilon    float64 `yaml:"flat_epsilon"`
		// percent bands of the momentum and breakout presets
		MomentumStrong    float64             `yaml:"momentum_strong"`
		MomentumMild      float64             `yaml:"momentum_mild"`
		DayChangeBreakout float64             `yaml:"day_change_breakout"`
		Universe          []string            `yaml:"universe"`
		Sectors           map[string][]string `yaml:"sectors"`
	} `yaml:"screener"`
	Watchlist struct {
		RefreshInterval time.Duration `yaml:"refresh_interval"`
		Concurrency     int           `yaml:"concurrency"`
	} `yaml:"watchlist"`
	Portfolio struct {
		StartingCash float64 `yaml:"starting_cash"`
	} `yaml:"portfolio"`
}

// envOverrides are the environment variables applied on top of the file.
type envOverrides struct {
	FinnhubKey      string        `envconfig:"FINNHUB_API_KEY"`
	PolygonKey      string        `envconfig:"POLYGON_API_KEY"`
	AlphaVantageKey string        `envconfig:"ALPHA_VANTAGE_KEY"`
	TwelveDataKey   string        `envconfig:"TWELVE_DATA_API_KEY"`
	ProviderOrder   []string      `envconfig:"PROVIDER_ORDER"`
	CacheDir        string        `envconfig:"CACHE_DIR"`
	CacheBackend    string        `envconfig:"CACHE_BACKEND"`
	ServeStale      *bool         `envconfig:"SERVE_STALE"`
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	DatabaseDriver  string        `envconfig:"DATABASE_DRIVER"`
	DatabaseDSN     string        `envconfig:"DATABASE_DSN"`
	ServerAddr      string        `envconfig:"SERVER_ADDR"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	LogFormat       string        `envconfig:"LOG_FORMAT"`
	Universe        []string      `envconfig:"SCREENER_UNIVERSE"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL"`
}

// Load は設定を読み込みます。優先順位は 環境変数 > YAMLファイル > デフォルト値 です。
// path が空、またはファイルが存在しない場合はYAMLを読み飛ばします。
func Load(path string) (*Config, error) {
	// .envファイルがあれば読み込み、OSの環境変数にセットする
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Println("[WARN] failed to read .env:", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
		cfg.fillProviderDefaults()
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.apply(env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(env envOverrides) {
	if c.Providers.Configs == nil {
		c.Providers.Configs = map[string]ProviderConfig{}
	}
	setKey := func(name, key string) {
		if key == "" {
			return
		}
		pc := c.Providers.Configs[name]
		pc.APIKey = key
		c.Providers.Configs[name] = pc
	}
	setKey(ProviderFinnhub, env.FinnhubKey)
	setKey(ProviderPolygon, env.PolygonKey)
	setKey(ProviderAlphaVantage, env.AlphaVantageKey)
	setKey(ProviderTwelveData, env.TwelveDataKey)

	setString(&c.Cache.Dir, env.CacheDir)
	setString(&c.Cache.Backend, env.CacheBackend)
	setString(&c.Cache.Redis.Addr, env.RedisAddr)
	setString(&c.Cache.Redis.Password, env.RedisPassword)
	setString(&c.Database.Driver, env.DatabaseDriver)
	setString(&c.Database.DSN, env.DatabaseDSN)
	setString(&c.Server.Addr, env.ServerAddr)
	setString(&c.Log.Level, env.LogLevel)
	setString(&c.Log.Format, env.LogFormat)
	if len(env.ProviderOrder) > 0 {
		c.Providers.Order = env.ProviderOrder
	}
	if len(env.Universe) > 0 {
		c.Screener.Universe = env.Universe
	}
	if env.ServeStale != nil {
		c.Cache.ServeStale = env.ServeStale
	}
	if env.RefreshInterval > 0 {
		c.Watchlist.RefreshInterval = env.RefreshInterval
	}
}

// fillProviderDefaults restores the default rate limit of a provider section
// that the file replaced without setting one.
func (c *Config) fillProviderDefaults() {
	defaults := Default().Providers.Configs
	for name, pc := range c.Providers.Configs {
		if pc.RateLimit == 0 {
			pc.RateLimit = defaults[name].RateLimit
			c.Providers.Configs[name] = pc
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ServeStaleEnabled reports the stale-serving policy; unset means true.
func (c *Config) ServeStaleEnabled() bool {
	return c.Cache.ServeStale == nil || *c.Cache.ServeStale
}

// EnabledProviders returns the providers in priority order that have an API key.
func (c *Config) EnabledProviders() []string {
	var out []string
	for _, name := range c.Providers.Order {
		if c.Providers.Configs[name].APIKey != "" {
			out = append(out, name)
		}
	}
	return out
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for _, name := range c.Providers.Order {
		if !slices.Contains(KnownProviders, name) {
			errs = append(errs, fmt.Errorf("providers.order: unknown provider %q", name))
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("providers.order: duplicate provider %q", name))
		}
		seen[name] = true
	}
	for name, pc := range c.Providers.Configs {
		if pc.RateLimit <= 0 {
			errs = append(errs, fmt.Errorf("providers.configs.%s.rate_limit must be positive", name))
		}
	}
	if c.Providers.Window <= 0 {
		errs = append(errs, errors.New("providers.window must be positive"))
	}
	if c.Providers.Timeout <= 0 {
		errs = append(errs, errors.New("providers.timeout must be positive"))
	}
	if c.Cache.QuoteTTL <= 0 || c.Cache.HistoryTTL <= 0 || c.Cache.NewsTTL <= 0 {
		errs = append(errs, errors.New("cache.quote_ttl, cache.history_ttl and cache.news_ttl must be positive"))
	}
	if c.Cache.Backend != CacheFile && c.Cache.Backend != CacheRedis {
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
	}
	if c.Cache.LookbackDays <= 0 || c.Cache.NewsDays <= 0 {
		errs = append(errs, errors.New("cache.lookback_days and cache.news_days must be positive"))
	}
	if c.Screener.Oversold >= c.Screener.Overbought {
		errs = append(errs, fmt.Errorf("screener.oversold (%g) must be below screener.overbought (%g)", c.Screener.Oversold, c.Screener.Overbought))
	}
	if c.Screener.MomentumMild > c.Screener.MomentumStrong {
		errs = append(errs, fmt.Errorf("screener.momentum_mild (%g) must not exceed screener.momentum_strong (%g)", c.Screener.MomentumMild, c.Screener.MomentumStrong))
	}
	if c.Screener.RSIPeriod <= 0 || c.Screener.SMAShort <= 0 || c.Screener.MomentumWindow <= 0 {
		errs = append(errs, errors.New("screener indicator windows must be positive"))
	}
	if c.Screener.SMAShort >= c.Screener.SMALong {
		errs = append(errs, errors.New("screener.sma_short must be below screener.sma_long"))
	}
	if c.Portfolio.StartingCash <= 0 {
		errs = append(errs, errors.New("portfolio.starting_cash must be positive"))
	}
	return errors.Join(errs...)
}

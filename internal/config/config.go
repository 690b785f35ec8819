// Package config defines the top-level configuration for bankdesk and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BANKDESK_* environment variables.
type Config struct {
	Market    MarketConfig      `toml:"market"`
	TwoFactor TwoFactorConfig   `toml:"twofactor"`
	Balances  map[string]string `toml:"balances"`
	Redis     RedisConfig       `toml:"redis"`
	Server    ServerConfig      `toml:"server"`
	Notify    NotifyConfig      `toml:"notify"`
	Mode      string            `toml:"mode"`
	LogLevel  string            `toml:"log_level"`
}

// MarketConfig selects and tunes the market-data source.
type MarketConfig struct {
	// Source is "coingecko" for the REST API or "demo" for generated prices.
	Source          string   `toml:"source"`
	BaseURL         string   `toml:"base_url"`
	APIKey          string   `toml:"api_key"`
	DefaultCurrency string   `toml:"default_currency"`
	TTL             duration `toml:"ttl"`
	RequestTimeout  duration `toml:"request_timeout"`
	// CoalesceRequests shares one upstream fetch between concurrent cache
	// misses for the same currency.
	CoalesceRequests bool `toml:"coalesce_requests"`
	// LockWait is how long an instance waits on a peer's refresh when Redis
	// is enabled.
	LockWait        duration `toml:"lock_wait"`
	SupportedAssets []string `toml:"supported_assets"`
	DemoSeed        uint64   `toml:"demo_seed"`
}

// TwoFactorConfig holds the auth API endpoint.
type TwoFactorConfig struct {
	BaseURL        string   `toml:"base_url"`
	RequestTimeout duration `toml:"request_timeout"`
}

// RedisConfig holds Redis connection parameters. When Enabled is false the
// price cache, signal bus and rate limiter live in process memory.
type RedisConfig struct {
	Enabled        bool     `toml:"enabled"`
	Addr           string   `toml:"addr"`
	Password       string   `toml:"password"`
	DB             int      `toml:"db"`
	PoolSize       int      `toml:"pool_size"`
	MaxRetries     int      `toml:"max_retries"`
	TLSEnabled     bool     `toml:"tls_enabled"`
	KeyPrefix      string   `toml:"key_prefix"`
	CacheRetention duration `toml:"cache_retention"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters. RateLimit is the number of
// requests a client may make per RateWindow; zero disables limiting.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	// Cooldown is the minimum gap between two alerts of the same event.
	Cooldown duration `toml:"cooldown"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Market: MarketConfig{
			Source:           "coingecko",
			BaseURL:          "https://api.coingecko.com/api/v3",
			DefaultCurrency:  "eur",
			TTL:              duration{300_000 * time.Millisecond},
			RequestTimeout:   duration{30 * time.Second},
			CoalesceRequests: true,
			LockWait:         duration{2 * time.Second},
			SupportedAssets: []string{
				"bitcoin", "ethereum", "tether", "usd-coin",
				"binancecoin", "solana", "ripple", "cardano",
			},
			DemoSeed: 1,
		},
		TwoFactor: TwoFactorConfig{
			BaseURL:        "http://localhost:8080/api",
			RequestTimeout: duration{30 * time.Second},
		},
		Redis: RedisConfig{
			Enabled:        false,
			Addr:           "localhost:6379",
			DB:             0,
			PoolSize:       20,
			MaxRetries:     3,
			TLSEnabled:     false,
			KeyPrefix:      "bankdesk:",
			CacheRetention: duration{time.Hour},
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   0,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events:   []string{"market_fetch_failed", "chart_fetch_failed", "twofactor_failed"},
			Cooldown: duration{5 * time.Minute},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":   true,
	"snapshot": true,
}

// validSources enumerates the accepted values for MarketConfig.Source.
var validSources = map[string]bool{
	"coingecko": true,
	"demo":      true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, snapshot)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Market
	if !validSources[strings.ToLower(c.Market.Source)] {
		errs = append(errs, fmt.Sprintf("market: unknown source %q (valid: coingecko, demo)", c.Market.Source))
	}
	if strings.EqualFold(c.Market.Source, "coingecko") && c.Market.BaseURL == "" {
		errs = append(errs, "market: base_url must not be empty for source coingecko")
	}
	if _, err := domain.ParseCurrency(c.Market.DefaultCurrency); err != nil {
		errs = append(errs, fmt.Sprintf("market: default_currency: %v", err))
	}
	if c.Market.TTL.Duration <= 0 {
		errs = append(errs, "market: ttl must be > 0")
	}
	if c.Market.RequestTimeout.Duration <= 0 {
		errs = append(errs, "market: request_timeout must be > 0")
	}
	if _, err := c.SupportedAssetIDs(); err != nil {
		errs = append(errs, fmt.Sprintf("market: supported_assets: %v", err))
	}

	// Two-factor
	if c.TwoFactor.BaseURL == "" {
		errs = append(errs, "twofactor: base_url must not be empty")
	}
	if c.TwoFactor.RequestTimeout.Duration <= 0 {
		errs = append(errs, "twofactor: request_timeout must be > 0")
	}

	// Balances
	if _, err := c.BalanceBook(); err != nil {
		errs = append(errs, fmt.Sprintf("balances: %v", err))
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 {
		if c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
		if !c.Redis.Enabled {
			errs = append(errs, "server: rate_limit requires redis.enabled")
		}
	}

	// Notify
	if c.Notify.Cooldown.Duration < 0 {
		errs = append(errs, "notify: cooldown must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SupportedAssetIDs resolves market.supported_assets. An empty list means
// every known asset.
func (c *Config) SupportedAssetIDs() ([]domain.AssetID, error) {
	if len(c.Market.SupportedAssets) == 0 {
		return domain.SupportedAssets(), nil
	}
	seen := make(map[domain.AssetID]bool, len(c.Market.SupportedAssets))
	out := make([]domain.AssetID, 0, len(c.Market.SupportedAssets))
	for _, s := range c.Market.SupportedAssets {
		id, ok := domain.ParseAssetID(s)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedAsset, s)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// BalanceBook resolves the [balances] section. With no entries configured the
// demo wallet is used.
func (c *Config) BalanceBook() (domain.BalanceBook, error) {
	if len(c.Balances) == 0 {
		return domain.DefaultBalances(), nil
	}
	return domain.ParseBalances(c.Balances)
}

// DefaultCurrency resolves market.default_currency, falling back to EUR.
func (c *Config) DefaultCurrency() domain.Currency {
	ccy, err := domain.ParseCurrency(c.Market.DefaultCurrency)
	if err != nil {
		return domain.CurrencyEUR
	}
	return ccy
}

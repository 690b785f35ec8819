package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BANKDESK_* environment variable overrides, and
// returns the final Config. A missing file is not an error: defaults and the
// environment are used instead. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BANKDESK_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Market ──
	setStr(&cfg.Market.Source, "BANKDESK_MARKET_SOURCE")
	setStr(&cfg.Market.BaseURL, "BANKDESK_MARKET_BASE_URL")
	setStr(&cfg.Market.APIKey, "BANKDESK_MARKET_API_KEY")
	setStr(&cfg.Market.DefaultCurrency, "BANKDESK_MARKET_DEFAULT_CURRENCY")
	setDuration(&cfg.Market.TTL, "BANKDESK_MARKET_TTL")
	setDuration(&cfg.Market.RequestTimeout, "BANKDESK_MARKET_REQUEST_TIMEOUT")
	setBool(&cfg.Market.CoalesceRequests, "BANKDESK_MARKET_COALESCE_REQUESTS")
	setDuration(&cfg.Market.LockWait, "BANKDESK_MARKET_LOCK_WAIT")
	setStringSlice(&cfg.Market.SupportedAssets, "BANKDESK_MARKET_SUPPORTED_ASSETS")
	setUint64(&cfg.Market.DemoSeed, "BANKDESK_MARKET_DEMO_SEED")

	// ── Two-factor ──
	setStr(&cfg.TwoFactor.BaseURL, "BANKDESK_TWOFACTOR_BASE_URL")
	setDuration(&cfg.TwoFactor.RequestTimeout, "BANKDESK_TWOFACTOR_REQUEST_TIMEOUT")

	// ── Balances ──
	setStringMap(&cfg.Balances, "BANKDESK_BALANCES")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "BANKDESK_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "BANKDESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BANKDESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BANKDESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BANKDESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BANKDESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BANKDESK_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "BANKDESK_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.CacheRetention, "BANKDESK_REDIS_CACHE_RETENTION")

	// ── Server ──
	setInt(&cfg.Server.Port, "BANKDESK_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BANKDESK_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "BANKDESK_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "BANKDESK_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BANKDESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BANKDESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BANKDESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BANKDESK_NOTIFY_EVENTS")
	setDuration(&cfg.Notify.Cooldown, "BANKDESK_NOTIFY_COOLDOWN")

	// ── Top-level ──
	setStr(&cfg.Mode, "BANKDESK_MODE")
	setStr(&cfg.LogLevel, "BANKDESK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

// setStringMap parses "k1=v1,k2=v2" and replaces dst wholesale. Malformed
// pairs are skipped.
func setStringMap(dst *map[string]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(pair, "=")
		k, val = strings.TrimSpace(k), strings.TrimSpace(val)
		if !ok || k == "" || val == "" {
			continue
		}
		out[k] = val
	}
	if len(out) > 0 {
		*dst = out
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/bankdesk/internal/cache/memory"
	"github.com/alanyoungcy/bankdesk/internal/cache/redis"
	"github.com/alanyoungcy/bankdesk/internal/config"
	"github.com/alanyoungcy/bankdesk/internal/domain"
	"github.com/alanyoungcy/bankdesk/internal/notify"
	"github.com/alanyoungcy/bankdesk/internal/platform/coingecko"
	"github.com/alanyoungcy/bankdesk/internal/platform/demomarket"
	"github.com/alanyoungcy/bankdesk/internal/platform/twofactor"
	"github.com/alanyoungcy/bankdesk/internal/service"
)

// Dependencies bundles every dependency the run modes need. It is constructed
// by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Upstreams
	MarketSource domain.MarketSource
	TwoFactorAPI domain.TwoFactorAPI

	// Caches
	PriceCache  domain.PriceCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter // nil unless Redis is enabled
	Locks       domain.LockManager // nil unless Redis is enabled

	// Services
	Markets *service.MarketService
	Auth    *service.AuthService

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Caches: Redis when enabled, process memory otherwise ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient, cfg.Redis.CacheRetention.Duration)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.Locks = redis.NewLockManager(redisClient)
	} else {
		deps.PriceCache = memory.NewPriceCache()
		deps.SignalBus = memory.NewSignalBus()
	}

	// --- Upstreams ---
	switch strings.ToLower(cfg.Market.Source) {
	case "demo":
		deps.MarketSource = demomarket.New(cfg.Market.DemoSeed)
	default:
		deps.MarketSource = coingecko.NewClient(
			cfg.Market.BaseURL,
			cfg.Market.APIKey,
			cfg.Market.RequestTimeout.Duration,
		)
	}
	deps.TwoFactorAPI = twofactor.NewClient(cfg.TwoFactor.BaseURL, cfg.TwoFactor.RequestTimeout.Duration)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger).
		WithCooldown(cfg.Notify.Cooldown.Duration)

	// --- Services ---
	assets, err := cfg.SupportedAssetIDs()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: supported assets: %w", err)
	}
	balances, err := cfg.BalanceBook()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: balances: %w", err)
	}

	deps.Markets = service.NewMarketService(
		deps.MarketSource,
		deps.PriceCache,
		deps.SignalBus,
		deps.Notifier,
		balances,
		service.MarketConfig{
			DefaultCurrency: cfg.DefaultCurrency(),
			TTL:             cfg.Market.TTL.Duration,
			SupportedAssets: assets,
			Coalesce:        cfg.Market.CoalesceRequests,
			LockWait:        cfg.Market.LockWait.Duration,
			FetchTimeout:    cfg.Market.RequestTimeout.Duration,
		},
		logger,
	)
	if deps.Locks != nil {
		deps.Markets.WithLocks(deps.Locks)
	}
	deps.Auth = service.NewAuthService(deps.TwoFactorAPI, deps.Notifier, logger)

	return deps, cleanup, nil
}

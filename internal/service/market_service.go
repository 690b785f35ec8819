package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/alanyoungcy/bankdesk/internal/domain"
	"github.com/alanyoungcy/bankdesk/internal/notify"
)

// DefaultPriceTTL is how long a fetched price list stays valid.
const DefaultPriceTTL = 300_000 * time.Millisecond

// PricesChannel is the signal bus channel that carries price snapshots.
const PricesChannel = "prices"

// DefaultFetchTimeout bounds a shared price fetch once it no longer follows
// the caller that started it.
const DefaultFetchTimeout = 30 * time.Second

const (
	// DefaultLockWait bounds how long an instance waits for a peer's refresh
	// before fetching on its own.
	DefaultLockWait  = 2 * time.Second
	refreshLockTTL   = 30 * time.Second
	lockPollInterval = 50 * time.Millisecond
)

// MarketConfig tunes a MarketService.
type MarketConfig struct {
	DefaultCurrency domain.Currency
	TTL             time.Duration
	SupportedAssets []domain.AssetID
	// Coalesce shares one in-flight fetch between concurrent misses of the
	// same currency.
	Coalesce bool
	// LockWait applies when a LockManager is attached; see DefaultLockWait.
	LockWait time.Duration
	// FetchTimeout bounds a coalesced fetch; see DefaultFetchTimeout.
	FetchTimeout time.Duration
}

// MarketService serves market prices and charts for the UI. Price lists are
// cached per currency for the configured TTL; charts are never cached.
type MarketService struct {
	source   domain.MarketSource
	cache    domain.PriceCache
	bus      domain.SignalBus
	alerts   *alertDispatcher
	locks    domain.LockManager
	balances domain.BalanceBook
	cfg      MarketConfig
	ids      []string
	allowed  map[domain.AssetID]bool
	now      func() time.Time
	group    singleflight.Group
	logger   *slog.Logger
}

// NewMarketService creates a MarketService. bus and alerts may be nil.
func NewMarketService(
	source domain.MarketSource,
	cache domain.PriceCache,
	bus domain.SignalBus,
	alerts Alerter,
	balances domain.BalanceBook,
	cfg MarketConfig,
	logger *slog.Logger,
) *MarketService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultPriceTTL
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = DefaultLockWait
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if len(cfg.SupportedAssets) == 0 {
		cfg.SupportedAssets = domain.SupportedAssets()
	}
	if balances == nil {
		balances = domain.BalanceBook{}
	}

	ids := make([]string, 0, len(cfg.SupportedAssets))
	allowed := make(map[domain.AssetID]bool, len(cfg.SupportedAssets))
	for _, a := range cfg.SupportedAssets {
		ids = append(ids, a.String())
		allowed[a] = true
	}
	logger = logger.With(slog.String("component", "market_service"))

	return &MarketService{
		source:   source,
		cache:    cache,
		bus:      bus,
		alerts:   &alertDispatcher{alerts: alerts, logger: logger},
		balances: balances,
		cfg:      cfg,
		ids:      ids,
		allowed:  allowed,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the wall clock used for cache timestamps and expiry.
func (s *MarketService) WithClock(now func() time.Time) *MarketService {
	s.now = now
	return s
}

// WithLocks extends request coalescing across instances that share locks,
// typically through Redis. Only used when Coalesce is set.
func (s *MarketService) WithLocks(locks domain.LockManager) *MarketService {
	s.locks = locks
	return s
}

// DefaultCurrency returns the currency used for user assets.
func (s *MarketService) DefaultCurrency() domain.Currency {
	return s.cfg.DefaultCurrency
}

// IsExpired reports whether entry is no longer valid at now. An entry is valid
// while now - FetchedAt < ttl.
func IsExpired(entry domain.PriceCacheEntry, now time.Time, ttl time.Duration) bool {
	return now.Sub(entry.FetchedAt) >= ttl
}

func pricesKey(c domain.Currency) string {
	return "prices_" + c.Code()
}

// GetPrices returns quotes for every supported asset in currency. A valid
// cached list is returned without contacting the source; otherwise one batch
// fetch is made and its result cached.
func (s *MarketService) GetPrices(ctx context.Context, currency string) ([]domain.CoinPrice, error) {
	ccy, err := domain.ParseCurrency(currency)
	if err != nil {
		return nil, domain.NewError("market.get_prices", fmt.Sprintf("Unsupported currency %q", currency), err)
	}
	key := pricesKey(ccy)

	if data, ok := s.lookup(ctx, key); ok {
		return data, nil
	}

	if !s.cfg.Coalesce {
		return s.refresh(ctx, ccy, key)
	}

	// The flight outlives any single caller: it runs detached from the
	// starting request and each caller stops waiting on its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()

		// A caller that missed just before the previous flight finished
		// lands here; serve what that flight stored.
		if data, ok := s.lookup(fctx, key); ok {
			return data, nil
		}
		return s.refreshShared(fctx, ccy, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "shared in-flight price fetch", slog.String("key", key))
		}
		return res.Val.([]domain.CoinPrice), nil
	case <-ctx.Done():
		return nil, domain.NewError("market.get_prices", "Failed to load market prices", ctx.Err())
	}
}

// lookup returns the cached list for key if it is still valid. Cache read
// errors are logged and treated as a miss.
func (s *MarketService) lookup(ctx context.Context, key string) ([]domain.CoinPrice, bool) {
	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "price cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if !ok || IsExpired(entry, s.now(), s.cfg.TTL) {
		return nil, false
	}
	return entry.Data, true
}

// refreshShared runs refresh under the cross-instance lock for key. When a
// peer holds the lock this instance waits up to LockWait for the peer's
// entry to land, then fetches on its own. Lock errors never block a fetch.
func (s *MarketService) refreshShared(ctx context.Context, ccy domain.Currency, key string) ([]domain.CoinPrice, error) {
	if s.locks == nil {
		return s.refresh(ctx, ccy, key)
	}

	unlock, err := s.locks.Acquire(ctx, "refresh:"+key, refreshLockTTL)
	switch {
	case err == nil:
		defer unlock()
		if data, ok := s.lookup(ctx, key); ok {
			return data, nil
		}
	case errors.Is(err, domain.ErrLockHeld):
		if data, ok := s.awaitPeer(ctx, key); ok {
			return data, nil
		}
		s.logger.DebugContext(ctx, "peer refresh did not land in time", slog.String("key", key))
	default:
		s.logger.WarnContext(ctx, "refresh lock unavailable",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return s.refresh(ctx, ccy, key)
}

// awaitPeer polls the cache until a valid entry appears or LockWait passes.
func (s *MarketService) awaitPeer(ctx context.Context, key string) ([]domain.CoinPrice, bool) {
	deadline := time.NewTimer(s.cfg.LockWait)
	defer deadline.Stop()
	tick := time.NewTicker(lockPollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-deadline.C:
			return nil, false
		case <-tick.C:
			if data, ok := s.lookup(ctx, key); ok {
				return data, true
			}
		}
	}
}

// refresh fetches a fresh list for ccy and replaces the cache entry. On
// failure the existing entry is left as it was.
func (s *MarketService) refresh(ctx context.Context, ccy domain.Currency, key string) ([]domain.CoinPrice, error) {
	data, err := s.source.Markets(ctx, ccy.Code(), s.ids)
	if errors.Is(err, context.Canceled) {
		s.logger.InfoContext(ctx, "market price fetch cancelled", slog.String("currency", ccy.Code()))
		return nil, domain.NewError("market.get_prices", "Failed to load market prices", err)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "fetch market prices failed",
			slog.String("currency", ccy.Code()),
			slog.String("error", err.Error()),
		)
		s.alerts.send(ctx, notify.EventMarketFetchFailed, "Market prices unavailable",
			fmt.Sprintf("currency=%s: %v", ccy.Code(), err))
		return nil, domain.NewError("market.get_prices", "Failed to load market prices", err)
	}

	entry := domain.PriceCacheEntry{Data: data, FetchedAt: s.now()}
	if err := s.cache.Set(ctx, key, entry); err != nil {
		s.logger.WarnContext(ctx, "price cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "refreshed market prices",
		slog.String("currency", ccy.Code()),
		slog.Int("count", len(data)),
	)
	s.publishSnapshot(ctx, ccy, entry)
	return data, nil
}

func (s *MarketService) publishSnapshot(ctx context.Context, ccy domain.Currency, entry domain.PriceCacheEntry) {
	if s.bus == nil {
		return
	}
	evt, _ := json.Marshal(map[string]any{
		"event":      "price_snapshot",
		"currency":   ccy.Code(),
		"fetched_at": entry.FetchedAt.Format(time.RFC3339Nano),
		"prices":     entry.Data,
	})
	if err := s.bus.Publish(ctx, PricesChannel, evt); err != nil {
		s.logger.WarnContext(ctx, "publish price snapshot failed",
			slog.String("currency", ccy.Code()),
			slog.String("error", err.Error()),
		)
	}
}

// GetChart returns the market chart of assetID over the last days days. Charts
// are fetched on every call.
func (s *MarketService) GetChart(ctx context.Context, assetID string, days int, currency string) (domain.MarketChart, error) {
	const op = "market.get_chart"
	msg := fmt.Sprintf("Failed to load chart for %s", assetID)

	ccy, err := domain.ParseCurrency(currency)
	if err != nil {
		return domain.MarketChart{}, domain.NewError(op, msg, err)
	}
	id, ok := domain.ParseAssetID(assetID)
	if !ok || !s.allowed[id] {
		return domain.MarketChart{}, domain.NewError(op, msg,
			fmt.Errorf("%w: %q", domain.ErrUnsupportedAsset, assetID))
	}
	if days < 1 || days > domain.MaxChartDays {
		return domain.MarketChart{}, domain.NewError(op, msg,
			fmt.Errorf("%w: days must be between 1 and %d, got %d", domain.ErrInvalidInput, domain.MaxChartDays, days))
	}

	chart, err := s.source.MarketChart(ctx, id.String(), days, ccy.Code())
	if errors.Is(err, context.Canceled) {
		return domain.MarketChart{}, domain.NewError(op, msg, err)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "fetch market chart failed",
			slog.String("asset_id", id.String()),
			slog.Int("days", days),
			slog.String("currency", ccy.Code()),
			slog.String("error", err.Error()),
		)
		s.alerts.send(ctx, notify.EventChartFetchFailed, "Market chart unavailable",
			fmt.Sprintf("asset=%s days=%d currency=%s: %v", id, days, ccy.Code(), err))
		return domain.MarketChart{}, domain.NewError(op, msg, err)
	}
	return chart, nil
}

// GetUserAssets joins the default-currency price list with the balance book.
// Assets without a balance are listed with zero balance and zero value.
func (s *MarketService) GetUserAssets(ctx context.Context) ([]domain.CryptoAsset, error) {
	ccy := s.cfg.DefaultCurrency
	prices, err := s.GetPrices(ctx, ccy.Code())
	if err != nil {
		return nil, err
	}

	assets := make([]domain.CryptoAsset, 0, len(prices))
	for _, p := range prices {
		id, _ := domain.ParseAssetID(p.ID)
		info := id.Info()
		balance := s.balances.Balance(id)

		assets = append(assets, domain.CryptoAsset{
			ID:               p.ID,
			Symbol:           p.Symbol,
			Name:             p.Name,
			Color:            info.Color,
			Icon:             info.Icon,
			Image:            p.Image,
			Balance:          balance,
			CurrentPrice:     p.CurrentPrice,
			ChangePercent24h: p.ChangePercent24h,
			ValueInFiat:      balance.Mul(decimal.NewFromFloat(p.CurrentPrice)),
			Currency:         ccy.Code(),
		})
	}
	return assets, nil
}

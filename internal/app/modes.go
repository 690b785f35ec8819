package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/bankdesk/internal/domain"
	"github.com/alanyoungcy/bankdesk/internal/server"
	"github.com/alanyoungcy/bankdesk/internal/server/handler"
	"github.com/alanyoungcy/bankdesk/internal/server/ws"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServerMode runs the HTTP API and the WebSocket hub until ctx is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	startedAt := time.Now().UTC()
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:            a.cfg.Mode,
		MarketSource:    a.cfg.Market.Source,
		DefaultCurrency: deps.Markets.DefaultCurrency().Code(),
		StartedAt:       startedAt,
		AllowedOrigins:  a.cfg.Server.CORSOrigins,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Health:    handler.NewHealthHandler(a.cfg.Mode, a.cfg.Market.Source, a.logger),
			Catalogue: handler.NewCatalogueHandler(deps.Markets.DefaultCurrency()),
			Market:    handler.NewMarketHandler(deps.Markets, a.logger),
			Auth:      handler.NewAuthHandler(deps.Auth, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	// Warm the default-currency entry so the first page load is a cache hit.
	g.Go(func() error {
		if _, err := deps.Markets.GetPrices(ctx, deps.Markets.DefaultCurrency().Code()); err != nil {
			a.logger.WarnContext(ctx, "price cache warm-up failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if deps.Notifier.Enabled() {
		g.Go(func() error {
			msg := fmt.Sprintf("source=%s port=%d", a.cfg.Market.Source, a.cfg.Server.Port)
			if err := deps.Notifier.NotifyAll(ctx, "bankdesk online", msg); err != nil {
				a.logger.WarnContext(ctx, "startup notification failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	return g.Wait()
}

// snapshot is the document SnapshotMode prints.
type snapshot struct {
	Currency   string               `json:"currency"`
	TakenAt    time.Time            `json:"takenAt"`
	Assets     []domain.CryptoAsset `json:"assets"`
	TotalValue decimal.Decimal      `json:"totalValue"`
}

// SnapshotMode fetches the user's assets once, prints them as JSON and returns.
func (a *App) SnapshotMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting snapshot mode")

	assets, err := deps.Markets.GetUserAssets(ctx)
	if err != nil {
		return fmt.Errorf("snapshot mode: %w", err)
	}

	total := decimal.Zero
	for _, as := range assets {
		total = total.Add(as.ValueInFiat)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot{
		Currency:   deps.Markets.DefaultCurrency().Code(),
		TakenAt:    time.Now().UTC(),
		Assets:     assets,
		TotalValue: total,
	}); err != nil {
		return fmt.Errorf("snapshot mode: write: %w", err)
	}
	return nil
}

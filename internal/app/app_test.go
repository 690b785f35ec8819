package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bankdesk/internal/config"
	"github.com/alanyoungcy/bankdesk/internal/domain"
)

func demoConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Market.Source = "demo"
	cfg.Market.DemoSeed = 42
	cfg.Mode = "snapshot"
	return &cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWire_MemoryBackends(t *testing.T) {
	deps, cleanup, err := Wire(context.Background(), demoConfig(), discardLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.PriceCache)
	assert.NotNil(t, deps.SignalBus)
	assert.Nil(t, deps.RateLimiter)
	assert.False(t, deps.Notifier.Enabled())
	assert.Equal(t, domain.CurrencyEUR, deps.Markets.DefaultCurrency())
}

func TestWire_RedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := demoConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	deps, cleanup, err := Wire(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.RateLimiter)

	_, err = deps.Markets.GetPrices(context.Background(), "usd")
	require.NoError(t, err)
	assert.True(t, mr.Exists("bankdesk:pricecache:prices_usd"))
}

func TestWire_RejectsBadBalances(t *testing.T) {
	cfg := demoConfig()
	cfg.Balances = map[string]string{"bitcoin": "lots"}

	_, _, err := Wire(context.Background(), cfg, discardLogger())
	require.Error(t, err)
}

func TestRun_SnapshotPrintsPortfolio(t *testing.T) {
	cfg := demoConfig()
	cfg.Balances = map[string]string{"bitcoin": "1", "ethereum": "0"}

	a := New(cfg, discardLogger())
	var out bytes.Buffer
	a.out = &out
	defer a.Close()

	require.NoError(t, a.Run(context.Background()))

	var doc struct {
		Currency   string               `json:"currency"`
		Assets     []domain.CryptoAsset `json:"assets"`
		TotalValue decimal.Decimal      `json:"totalValue"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "eur", doc.Currency)
	require.Len(t, doc.Assets, len(cfg.Market.SupportedAssets))

	sum := decimal.Zero
	for _, as := range doc.Assets {
		sum = sum.Add(as.ValueInFiat)
	}
	assert.True(t, sum.Equal(doc.TotalValue))
	assert.True(t, doc.TotalValue.IsPositive())
}

func TestRun_UnknownMode(t *testing.T) {
	cfg := demoConfig()
	cfg.Mode = "trade"

	a := New(cfg, discardLogger())
	defer a.Close()
	assert.ErrorContains(t, a.Run(context.Background()), "unsupported mode")
}

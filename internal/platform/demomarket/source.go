// Package demomarket is an offline market source that serves randomly
// jittered prices for the supported assets. It backs the demo mode used when
// no market-data API is reachable.
package demomarket

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// basePricesUSD anchors the random walk for each asset.
var basePricesUSD = map[domain.AssetID]float64{
	domain.AssetBitcoin:     64000,
	domain.AssetEthereum:    3100,
	domain.AssetTether:      1,
	domain.AssetUSDCoin:     1,
	domain.AssetBinanceCoin: 580,
	domain.AssetSolana:      145,
	domain.AssetRipple:      0.52,
	domain.AssetCardano:     0.45,
}

// usdRates converts the USD anchors into the quote currency.
var usdRates = map[domain.Currency]float64{
	domain.CurrencyUSD: 1,
	domain.CurrencyEUR: 0.92,
	domain.CurrencyGBP: 0.79,
	domain.CurrencyCHF: 0.88,
	domain.CurrencyJPY: 155,
}

const (
	// maxJitter bounds the per-call deviation from the anchor price.
	maxJitter = 0.02
	// maxChange24h bounds the synthetic 24h change, in percent.
	maxChange24h = 5.0
	// pointsPerDay is the chart resolution (hourly).
	pointsPerDay = 24
)

// Source implements domain.MarketSource with synthetic data.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a Source seeded from seed. The same seed yields the same
// sequence of prices.
func New(seed uint64) *Source {
	return &Source{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

// WithClock replaces the time source used to stamp quotes and chart points.
func (s *Source) WithClock(now func() time.Time) *Source {
	s.now = now
	return s
}

// Markets returns one jittered quote per known id. Unknown ids are skipped,
// matching how the real API ignores ids it does not list.
func (s *Source) Markets(ctx context.Context, currency string, ids []string) ([]domain.CoinPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("demomarket: markets: %w", err)
	}
	rate, err := rateFor(currency)
	if err != nil {
		return nil, fmt.Errorf("demomarket: markets: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	out := make([]domain.CoinPrice, 0, len(ids))
	for _, raw := range ids {
		id, ok := domain.ParseAssetID(raw)
		if !ok {
			continue
		}
		info := id.Info()
		out = append(out, domain.CoinPrice{
			ID:               info.ID,
			Symbol:           info.Symbol,
			Name:             info.Name,
			CurrentPrice:     basePricesUSD[id] * rate * (1 + s.jitter(maxJitter)),
			ChangePercent24h: s.jitter(maxChange24h),
			Image:            info.Icon,
			LastUpdated:      ts,
		})
	}
	return out, nil
}

// MarketChart returns days*24 hourly points of a random walk ending now.
func (s *Source) MarketChart(ctx context.Context, id string, days int, currency string) (domain.MarketChart, error) {
	if err := ctx.Err(); err != nil {
		return domain.MarketChart{}, fmt.Errorf("demomarket: market chart %s: %w", id, err)
	}
	asset, ok := domain.ParseAssetID(id)
	if !ok {
		return domain.MarketChart{}, fmt.Errorf("demomarket: market chart %s: %w", id, domain.ErrNotFound)
	}
	if days < 1 || days > domain.MaxChartDays {
		return domain.MarketChart{}, fmt.Errorf("demomarket: market chart %s: %w: days must be between 1 and %d", id, domain.ErrInvalidInput, domain.MaxChartDays)
	}
	rate, err := rateFor(currency)
	if err != nil {
		return domain.MarketChart{}, fmt.Errorf("demomarket: market chart %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := days * pointsPerDay
	end := s.now().UTC().Truncate(time.Hour)
	price := basePricesUSD[asset] * rate
	supplyProxy := 1e6 / basePricesUSD[asset]

	chart := domain.MarketChart{
		AssetID:      asset.String(),
		Currency:     strings.ToLower(currency),
		Days:         days,
		Prices:       make([]domain.ChartPoint, 0, n),
		MarketCaps:   make([]domain.ChartPoint, 0, n),
		TotalVolumes: make([]domain.ChartPoint, 0, n),
	}
	for i := n - 1; i >= 0; i-- {
		ts := end.Add(-time.Duration(i) * time.Hour)
		price *= 1 + s.jitter(0.01)
		chart.Prices = append(chart.Prices, domain.ChartPoint{Time: ts, Value: price})
		chart.MarketCaps = append(chart.MarketCaps, domain.ChartPoint{Time: ts, Value: price * supplyProxy * 1e3})
		chart.TotalVolumes = append(chart.TotalVolumes, domain.ChartPoint{Time: ts, Value: price * supplyProxy * (50 + 50*s.rng.Float64())})
	}
	return chart, nil
}

// jitter returns a uniform value in [-max, +max]. Callers hold s.mu.
func (s *Source) jitter(max float64) float64 {
	return (s.rng.Float64()*2 - 1) * max
}

func rateFor(currency string) (float64, error) {
	c, err := domain.ParseCurrency(currency)
	if err != nil {
		return 0, err
	}
	rate, ok := usdRates[c]
	if !ok {
		return 0, fmt.Errorf("%w: no demo rate for %s", domain.ErrUnsupportedCurrency, c.Code())
	}
	return rate, nil
}

// Compile-time interface check.
var _ domain.MarketSource = (*Source)(nil)

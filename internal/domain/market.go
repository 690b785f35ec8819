package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CoinPrice is a single asset quote from the market-data API. Values are
// immutable once fetched.
type CoinPrice struct {
	ID               string    `json:"id"`
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	CurrentPrice     float64   `json:"currentPrice"`
	ChangePercent24h float64   `json:"changePercent24h"`
	Image            string    `json:"image"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// ChartPoint is one sample of a market chart series.
type ChartPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// MaxChartDays is the longest chart window accepted, ten years.
const MaxChartDays = 3650

// MarketChart holds the historical series returned for one asset.
type MarketChart struct {
	AssetID      string       `json:"assetId"`
	Currency     string       `json:"currency"`
	Days         int          `json:"days"`
	Prices       []ChartPoint `json:"prices"`
	MarketCaps   []ChartPoint `json:"marketCaps"`
	TotalVolumes []ChartPoint `json:"totalVolumes"`
}

// PriceCacheEntry is the cached result of one batch price fetch. Entries are
// replaced wholesale; Data must not be modified after the entry is stored.
type PriceCacheEntry struct {
	Data      []CoinPrice `json:"data"`
	FetchedAt time.Time   `json:"fetchedAt"`
}

// CryptoAsset is a price joined with the balance held in that asset. It is
// derived on every read and never cached.
type CryptoAsset struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	Color            string          `json:"color"`
	Icon             string          `json:"icon"`
	Image            string          `json:"image"`
	Balance          decimal.Decimal `json:"balance"`
	CurrentPrice     float64         `json:"currentPrice"`
	ChangePercent24h float64         `json:"changePercent24h"`
	ValueInFiat      decimal.Decimal `json:"valueInFiat"`
	Currency         string          `json:"currency"`
}

// MarketSource fetches prices and charts from an upstream provider.
type MarketSource interface {
	// Markets returns quotes for ids priced in currency, in one batch call.
	Markets(ctx context.Context, currency string, ids []string) ([]CoinPrice, error)
	// MarketChart returns the historical series for one asset.
	MarketChart(ctx context.Context, id string, days int, currency string) (MarketChart, error)
}

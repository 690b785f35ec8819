package coingecko

import (
	"strings"
	"time"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// APICoinMarket is one row of the /coins/markets response.
type APICoinMarket struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	LastUpdated              string   `json:"last_updated"`
}

// ToDomainCoinPrice converts an APICoinMarket to a domain.CoinPrice. Null
// numeric fields become zero.
func (m *APICoinMarket) ToDomainCoinPrice() domain.CoinPrice {
	p := domain.CoinPrice{
		ID:     m.ID,
		Symbol: strings.ToUpper(m.Symbol),
		Name:   m.Name,
		Image:  m.Image,
	}
	if m.CurrentPrice != nil {
		p.CurrentPrice = *m.CurrentPrice
	}
	if m.PriceChangePercentage24h != nil {
		p.ChangePercent24h = *m.PriceChangePercentage24h
	}
	if t, err := time.Parse(time.RFC3339, m.LastUpdated); err == nil {
		p.LastUpdated = t.UTC()
	}
	return p
}

// APIMarketChart is the /coins/{id}/market_chart response. Every series is a
// list of [timestampMillis, value] pairs.
type APIMarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// ToDomainMarketChart converts the raw series into a domain.MarketChart.
func (c *APIMarketChart) ToDomainMarketChart(id string, days int, currency string) domain.MarketChart {
	return domain.MarketChart{
		AssetID:      id,
		Currency:     currency,
		Days:         days,
		Prices:       toChartPoints(c.Prices),
		MarketCaps:   toChartPoints(c.MarketCaps),
		TotalVolumes: toChartPoints(c.TotalVolumes),
	}
}

func toChartPoints(pairs [][2]float64) []domain.ChartPoint {
	out := make([]domain.ChartPoint, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, domain.ChartPoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Value: p[1],
		})
	}
	return out
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// defaultChartDays is used when the chart request has no days parameter.
const defaultChartDays = 7

// MarketService defines the methods that the market handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type MarketService interface {
	GetPrices(ctx context.Context, currency string) ([]domain.CoinPrice, error)
	GetChart(ctx context.Context, assetID string, days int, currency string) (domain.MarketChart, error)
	GetUserAssets(ctx context.Context) ([]domain.CryptoAsset, error)
	DefaultCurrency() domain.Currency
}

// MarketHandler serves price, chart and portfolio endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logHandler(logger, "market"),
	}
}

type pricesResponse struct {
	Currency string             `json:"currency"`
	Prices   []domain.CoinPrice `json:"prices"`
}

type userAssetsResponse struct {
	Currency   string               `json:"currency"`
	Assets     []domain.CryptoAsset `json:"assets"`
	TotalValue decimal.Decimal      `json:"totalValue"`
}

func (h *MarketHandler) currency(r *http.Request) string {
	if c := r.URL.Query().Get("currency"); c != "" {
		return c
	}
	return h.markets.DefaultCurrency().Code()
}

// GetPrices returns the quote list for a currency.
// GET /api/market/prices?currency=eur
func (h *MarketHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	ccy := h.currency(r)

	prices, err := h.markets.GetPrices(r.Context(), ccy)
	if err != nil {
		h.logger.WarnContext(r.Context(), "get prices failed",
			slog.String("currency", ccy),
			slog.String("error", err.Error()),
		)
		writeMarketError(w, err, "Failed to load market prices")
		return
	}

	code := ccy
	if parsed, perr := domain.ParseCurrency(ccy); perr == nil {
		code = parsed.Code()
	}
	writeJSON(w, http.StatusOK, pricesResponse{Currency: code, Prices: prices})
}

// GetChart returns the historical series for one asset.
// GET /api/market/chart/{id}?days=7&currency=eur
func (h *MarketHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing asset id")
		return
	}
	days, err := queryInt(r, "days", defaultChartDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chart, err := h.markets.GetChart(r.Context(), id, days, h.currency(r))
	if err != nil {
		h.logger.WarnContext(r.Context(), "get chart failed",
			slog.String("asset_id", id),
			slog.Int("days", days),
			slog.String("error", err.Error()),
		)
		writeMarketError(w, err, "Failed to load chart for "+id)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// GetUserAssets returns the demo wallet valued in the default currency.
// GET /api/assets
func (h *MarketHandler) GetUserAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.markets.GetUserAssets(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "get user assets failed",
			slog.String("error", err.Error()),
		)
		writeMarketError(w, err, "Failed to load market prices")
		return
	}

	total := decimal.Zero
	for _, a := range assets {
		total = total.Add(a.ValueInFiat)
	}
	writeJSON(w, http.StatusOK, userAssetsResponse{
		Currency:   h.markets.DefaultCurrency().Code(),
		Assets:     assets,
		TotalValue: total,
	})
}

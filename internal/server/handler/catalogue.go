package handler

import (
	"net/http"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// CatalogueHandler serves the static asset and currency tables the UI uses
// for labels, colors and currency pickers.
type CatalogueHandler struct {
	defaultCurrency domain.Currency
}

// NewCatalogueHandler creates a CatalogueHandler.
func NewCatalogueHandler(defaultCurrency domain.Currency) *CatalogueHandler {
	return &CatalogueHandler{defaultCurrency: defaultCurrency}
}

// ListCurrencies returns every supported fiat currency.
// GET /api/currencies
func (h *CatalogueHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":    h.defaultCurrency.Code(),
		"currencies": domain.CurrencyCatalogue(),
	})
}

// ListAssets returns display metadata for every supported asset.
// GET /api/assets/catalogue
func (h *CatalogueHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"assets": domain.AssetCatalogue(),
	})
}

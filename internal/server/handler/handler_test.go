package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMarkets struct {
	lastCurrency string
	lastDays     int
	lastID       string
	pricesErr    error
	chartErr     error
	assets       []domain.CryptoAsset
}

func (f *fakeMarkets) GetPrices(_ context.Context, currency string) ([]domain.CoinPrice, error) {
	f.lastCurrency = currency
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	return []domain.CoinPrice{{ID: "bitcoin", Symbol: "BTC", CurrentPrice: 60000}}, nil
}

func (f *fakeMarkets) GetChart(_ context.Context, id string, days int, currency string) (domain.MarketChart, error) {
	f.lastID, f.lastDays, f.lastCurrency = id, days, currency
	if f.chartErr != nil {
		return domain.MarketChart{}, f.chartErr
	}
	return domain.MarketChart{AssetID: id, Days: days, Currency: currency}, nil
}

func (f *fakeMarkets) GetUserAssets(_ context.Context) ([]domain.CryptoAsset, error) {
	return f.assets, nil
}

func (f *fakeMarkets) DefaultCurrency() domain.Currency { return domain.CurrencyEUR }

func newMarketMux(f *fakeMarkets) *http.ServeMux {
	h := NewMarketHandler(f, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/market/prices", h.GetPrices)
	mux.HandleFunc("GET /api/market/chart/{id}", h.GetChart)
	mux.HandleFunc("GET /api/assets", h.GetUserAssets)
	return mux
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.NewError("op", "m", domain.ErrUnsupportedCurrency), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", domain.ErrTransport, domain.ErrRateLimited), http.StatusTooManyRequests},
		{fmt.Errorf("%w: %w", domain.ErrTransport, domain.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: %w", domain.ErrTransport, domain.ErrNotFound), http.StatusNotFound},
		{domain.NewError("op", "m", domain.ErrTransport), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestGetPrices_DefaultsCurrency(t *testing.T) {
	f := &fakeMarkets{}
	rec := httptest.NewRecorder()
	newMarketMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/prices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "eur", f.lastCurrency)
	body := decodeBody(t, rec)
	assert.Equal(t, "eur", body["currency"])
	assert.Len(t, body["prices"], 1)
}

func TestGetPrices_NormalizesCurrency(t *testing.T) {
	f := &fakeMarkets{}
	rec := httptest.NewRecorder()
	newMarketMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/prices?currency=USD", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "usd", decodeBody(t, rec)["currency"])
}

func TestGetPrices_UpstreamFailure(t *testing.T) {
	f := &fakeMarkets{pricesErr: domain.NewError("market.get_prices", "Failed to load market prices", domain.ErrTransport)}
	rec := httptest.NewRecorder()
	newMarketMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/prices?currency=eur", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to load market prices", decodeBody(t, rec)["error"])
}

func TestGetChart(t *testing.T) {
	f := &fakeMarkets{}
	rec := httptest.NewRecorder()
	newMarketMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/chart/solana?days=30&currency=gbp", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "solana", f.lastID)
	assert.Equal(t, 30, f.lastDays)
	assert.Equal(t, "gbp", f.lastCurrency)
}

func TestGetChart_DefaultDaysAndBadDays(t *testing.T) {
	f := &fakeMarkets{}
	mux := newMarketMux(f)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/chart/bitcoin", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultChartDays, f.lastDays)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/chart/bitcoin?days=week", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChart_ErrorNamesAsset(t *testing.T) {
	f := &fakeMarkets{chartErr: domain.NewError("market.get_chart", "Failed to load chart for dogecoin", domain.ErrUnsupportedAsset)}
	rec := httptest.NewRecorder()
	newMarketMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/chart/dogecoin", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed to load chart for dogecoin", decodeBody(t, rec)["error"])
}

func TestMarketRoutes_ProviderRejectionIsBadGateway(t *testing.T) {
	for _, cause := range []error{domain.ErrUnauthorized, domain.ErrNotFound, domain.ErrRateLimited} {
		upstream := fmt.Errorf("coingecko: get market chart bitcoin: %w: %w", domain.ErrTransport, cause)
		f := &fakeMarkets{
			pricesErr: domain.NewError("market.get_prices", "Failed to load market prices", upstream),
			chartErr:  domain.NewError("market.get_chart", "Failed to load chart for bitcoin", upstream),
		}
		mux := newMarketMux(f)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/chart/bitcoin", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code, cause.Error())
		assert.Equal(t, "Failed to load chart for bitcoin", decodeBody(t, rec)["error"])

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/prices", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code, cause.Error())
	}
}

func TestGetChart_OversizedWindowIsBadRequest(t *testing.T) {
	f := &fakeMarkets{chartErr: domain.NewError("market.get_chart", "Failed to load chart for bitcoin",
		fmt.Errorf("%w: days must be between 1 and %d", domain.ErrInvalidInput, domain.MaxChartDays))}
	rec := httptest.NewRecorder()
	newMarketMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/chart/bitcoin?days=100000000", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 100000000, f.lastDays)
}

func TestGetUserAssets_TotalValue(t *testing.T) {
	f := &fakeMarkets{assets: []domain.CryptoAsset{
		{ID: "bitcoin", ValueInFiat: decimal.NewFromInt(30000)},
		{ID: "cardano", ValueInFiat: decimal.Zero},
		{ID: "solana", ValueInFiat: decimal.RequireFromString("3750.5")},
	}}
	rec := httptest.NewRecorder()
	newMarketMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "33750.5", body["totalValue"])
	assert.Equal(t, "eur", body["currency"])
	assert.Len(t, body["assets"], 3)
}

func TestCatalogue(t *testing.T) {
	h := NewCatalogueHandler(domain.CurrencyCHF)

	rec := httptest.NewRecorder()
	h.ListCurrencies(rec, httptest.NewRequest(http.MethodGet, "/api/currencies", nil))
	body := decodeBody(t, rec)
	assert.Equal(t, "chf", body["default"])
	assert.Len(t, body["currencies"], len(domain.CurrencyCatalogue()))

	rec = httptest.NewRecorder()
	h.ListAssets(rec, httptest.NewRequest(http.MethodGet, "/api/assets/catalogue", nil))
	assert.Len(t, decodeBody(t, rec)["assets"], len(domain.SupportedAssets()))
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("server", "demo", testLogger()).HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "demo", body["market_source"])
}

type fakeAuth struct {
	err      error
	verified domain.VerifyRequest
}

func (f *fakeAuth) Verify(_ context.Context, req domain.VerifyRequest) (domain.AuthResponse, error) {
	f.verified = req
	if f.err != nil {
		return domain.AuthResponse{}, f.err
	}
	return domain.AuthResponse{Success: true, Token: "jwt"}, nil
}

func (f *fakeAuth) Resend(_ context.Context, req domain.ResendRequest) (domain.TwoFactorResponse, error) {
	return domain.TwoFactorResponse{Success: true, SessionID: req.SessionID}, f.err
}

func (f *fakeAuth) ValidatePhone(_ context.Context, _ domain.ValidatePhoneRequest) (domain.TwoFactorResponse, error) {
	return domain.TwoFactorResponse{Success: true}, f.err
}

func (f *fakeAuth) SendTestCode(_ context.Context, _ domain.SendTestCodeRequest) (domain.TwoFactorResponse, error) {
	return domain.TwoFactorResponse{Success: true}, f.err
}

func TestAuthHandler_Verify(t *testing.T) {
	f := &fakeAuth{}
	h := NewAuthHandler(f, testLogger())

	rec := httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest(http.MethodPost, "/api/auth/2fa/verify",
		strings.NewReader(`{"sessionId":"s1","code":"123456"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.VerifyRequest{SessionID: "s1", Code: "123456"}, f.verified)
	assert.Equal(t, "jwt", decodeBody(t, rec)["token"])
}

func TestAuthHandler_BadBody(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, testLogger())

	for _, body := range []string{"", "{not json"} {
		rec := httptest.NewRecorder()
		h.Resend(rec, httptest.NewRequest(http.MethodPost, "/api/auth/2fa/resend", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestAuthHandler_DomainErrorMessage(t *testing.T) {
	f := &fakeAuth{err: domain.NewError("twofactor.validate_phone", "Phone validation failed", domain.ErrTransport)}
	h := NewAuthHandler(f, testLogger())

	rec := httptest.NewRecorder()
	h.ValidatePhone(rec, httptest.NewRequest(http.MethodPost, "/api/auth/2fa/validate-phone",
		strings.NewReader(`{"phoneNumber":"+41790000000"}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Phone validation failed", decodeBody(t, rec)["error"])
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bankdesk/internal/cache/memory"
	"github.com/alanyoungcy/bankdesk/internal/cache/redis"
	"github.com/alanyoungcy/bankdesk/internal/domain"
	"github.com/alanyoungcy/bankdesk/internal/platform/demomarket"
	"github.com/alanyoungcy/bankdesk/internal/platform/twofactor"
	"github.com/alanyoungcy/bankdesk/internal/server/handler"
	"github.com/alanyoungcy/bankdesk/internal/service"
)

func newTestServer(t *testing.T, limiter domain.RateLimiter, rateLimit int) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/2fa/verify":
			var req domain.VerifyRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Code != "123456" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"success":false,"message":"Invalid code"}`))
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"token":"jwt","expiresIn":3600}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(authAPI.Close)

	markets := service.NewMarketService(
		demomarket.New(7),
		memory.NewPriceCache(),
		memory.NewSignalBus(),
		nil,
		domain.DefaultBalances(),
		service.MarketConfig{DefaultCurrency: domain.CurrencyEUR, Coalesce: true},
		logger,
	)
	auth := service.NewAuthService(twofactor.NewClient(authAPI.URL, time.Second), nil, logger)

	srv := NewServer(
		Config{Port: 0, RateLimit: rateLimit, RateWindow: time.Minute},
		Handlers{
			Health:    handler.NewHealthHandler("server", "demo", logger),
			Catalogue: handler.NewCatalogueHandler(domain.CurrencyEUR),
			Market:    handler.NewMarketHandler(markets, logger),
			Auth:      handler.NewAuthHandler(auth, logger),
		},
		nil,
		limiter,
		logger,
	)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, nil, 0)

	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/api/market/prices?currency=usd", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var prices struct {
		Currency string             `json:"currency"`
		Prices   []domain.CoinPrice `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prices))
	assert.Equal(t, "usd", prices.Currency)
	assert.Len(t, prices.Prices, len(domain.SupportedAssets()))

	rec = do(t, h, http.MethodGet, "/api/market/prices?currency=xyz", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/market/chart/ethereum?days=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var chart domain.MarketChart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	assert.Len(t, chart.Prices, 48)

	for _, days := range []string{"3651", "100000000", "1152921504606846976"} {
		rec = do(t, h, http.MethodGet, "/api/market/chart/bitcoin?days="+days, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", days)
	}

	rec = do(t, h, http.MethodGet, "/api/assets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalValue"`)

	rec = do(t, h, http.MethodGet, "/api/currencies", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/assets/catalogue", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/assets", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_TwoFactorRelay(t *testing.T) {
	h := newTestServer(t, nil, 0)

	rec := do(t, h, http.MethodPost, "/api/auth/2fa/verify", `{"sessionId":"s1","code":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"jwt"`)

	rec = do(t, h, http.MethodPost, "/api/auth/2fa/verify", `{"sessionId":"s1","code":"000000"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid code"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/auth/2fa/resend", `{"sessionId":"s1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to resend code"}`, rec.Body.String())
}

func TestServer_RateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.New(context.Background(), redis.ClientConfig{Addr: mr.Addr(), KeyPrefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	h := newTestServer(t, redis.NewRateLimiter(client), 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, h, http.MethodGet, "/api/health", "").Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

func TestClient_Markets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eur", q.Get("vs_currency"))
		assert.Equal(t, "bitcoin,ethereum", q.Get("ids"))
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "20", q.Get("per_page"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "false", q.Get("sparkline"))
		assert.Equal(t, "24h", q.Get("price_change_percentage"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png",
			 "current_price":61234.5,"price_change_percentage_24h":-1.25,"last_updated":"2024-05-01T10:00:00.000Z"},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","image":"https://img/eth.png",
			 "current_price":null,"price_change_percentage_24h":null,"last_updated":"garbage"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "demo-key", 5*time.Second)
	prices, err := c.Markets(context.Background(), "eur", []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	require.Len(t, prices, 2)

	assert.Equal(t, "bitcoin", prices[0].ID)
	assert.Equal(t, "BTC", prices[0].Symbol)
	assert.Equal(t, 61234.5, prices[0].CurrentPrice)
	assert.Equal(t, -1.25, prices[0].ChangePercent24h)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), prices[0].LastUpdated)

	assert.Zero(t, prices[1].CurrentPrice)
	assert.True(t, prices[1].LastUpdated.IsZero())
}

func TestClient_MarketChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/solana/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		w.Write([]byte(`{
			"prices":[[1714557600000,140.5],[1714561200000,141.0]],
			"market_caps":[[1714557600000,6.2e10]],
			"total_volumes":[[1714557600000,2.1e9]]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	chart, err := c.MarketChart(context.Background(), "solana", 7, "usd")
	require.NoError(t, err)

	assert.Equal(t, "solana", chart.AssetID)
	assert.Equal(t, 7, chart.Days)
	require.Len(t, chart.Prices, 2)
	assert.Equal(t, time.UnixMilli(1714557600000).UTC(), chart.Prices[0].Time)
	assert.Equal(t, 141.0, chart.Prices[1].Value)
	assert.Len(t, chart.MarketCaps, 1)
	assert.Len(t, chart.TotalVolumes, 1)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"server error", http.StatusBadGateway, domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", time.Second)
			_, err := c.MarketChart(context.Background(), "cardano", 1, "eur")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrTransport)
			assert.Contains(t, err.Error(), "cardano")
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second)
	_, err := c.Markets(context.Background(), "eur", []string{"bitcoin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Markets(context.Background(), "eur", []string{"bitcoin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetTable_EveryAssetHasMetadata(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range SupportedAssets() {
		info := id.Info()
		assert.NotEmpty(t, info.ID, "asset %d has no id", id)
		assert.NotEmpty(t, info.Symbol, "asset %s has no symbol", info.ID)
		assert.NotEmpty(t, info.Name, "asset %s has no name", info.ID)
		assert.NotEmpty(t, info.Color, "asset %s has no color", info.ID)
		assert.NotEmpty(t, info.Icon, "asset %s has no icon", info.ID)
		assert.False(t, seen[info.ID], "duplicate asset id %s", info.ID)
		seen[info.ID] = true
	}
	assert.Len(t, AssetCatalogue(), len(SupportedAssets()))
}

func TestParseAssetID(t *testing.T) {
	id, ok := ParseAssetID(" Bitcoin ")
	require.True(t, ok)
	assert.Equal(t, AssetBitcoin, id)
	assert.Equal(t, "bitcoin", id.String())

	id, ok = ParseAssetID("dogecoin")
	assert.False(t, ok)
	assert.Equal(t, AssetUnknown, id)
	assert.Equal(t, "unknown", id.String())
	assert.Equal(t, "#9E9E9E", id.Info().Color)

	assert.Equal(t, AssetUnknown.Info(), AssetID(99).Info())
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("EUR")
	require.NoError(t, err)
	assert.Equal(t, CurrencyEUR, c)
	assert.Equal(t, "eur", c.Code())

	_, err = ParseCurrency("btc")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	codes := map[string]bool{}
	for _, ci := range CurrencyCatalogue() {
		codes[ci.Code] = true
	}
	assert.True(t, codes["usd"])
	assert.Len(t, codes, int(currencyCount))
}

func TestParseBalances(t *testing.T) {
	book, err := ParseBalances(map[string]string{"bitcoin": "0.25", "ethereum": "3"})
	require.NoError(t, err)
	assert.True(t, book.Balance(AssetBitcoin).Equal(decimal.RequireFromString("0.25")))
	assert.True(t, book.Balance(AssetCardano).IsZero())

	_, err = ParseBalances(map[string]string{"dogecoin": "1"})
	assert.ErrorIs(t, err, ErrUnsupportedAsset)

	_, err = ParseBalances(map[string]string{"bitcoin": "lots"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseBalances(map[string]string{"bitcoin": "-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := fmt.Errorf("%w: http request: connection refused", ErrTransport)
	err := fmt.Errorf("wrapped: %w", NewError("market.get_prices", "Failed to load market prices", cause))

	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "Failed to load market prices", UserMessage(err, "fallback"))
	assert.Equal(t, "fallback", UserMessage(errors.New("plain"), "fallback"))
	assert.Contains(t, err.Error(), "market.get_prices")
}

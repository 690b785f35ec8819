package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceBook holds the amount held per asset. Assets without an entry have a
// zero balance.
type BalanceBook map[AssetID]decimal.Decimal

// DefaultBalances is the demo wallet shown when no balances are configured.
func DefaultBalances() BalanceBook {
	return BalanceBook{
		AssetBitcoin:  decimal.RequireFromString("0.5"),
		AssetEthereum: decimal.RequireFromString("2.5"),
		AssetTether:   decimal.RequireFromString("1000"),
		AssetUSDCoin:  decimal.RequireFromString("500"),
		AssetSolana:   decimal.RequireFromString("25"),
	}
}

// ParseBalances builds a BalanceBook from asset id -> decimal string pairs,
// as found in the [balances] config section.
func ParseBalances(raw map[string]string) (BalanceBook, error) {
	book := make(BalanceBook, len(raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		id, ok := ParseAssetID(k)
		if !ok {
			return nil, fmt.Errorf("%w: balance for %q", ErrUnsupportedAsset, k)
		}
		amount, err := decimal.NewFromString(raw[k])
		if err != nil {
			return nil, fmt.Errorf("%w: balance for %q: %v", ErrInvalidInput, k, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: balance for %q is negative", ErrInvalidInput, k)
		}
		book[id] = amount
	}
	return book, nil
}

// Balance returns the amount held in id, zero when absent.
func (b BalanceBook) Balance(id AssetID) decimal.Decimal {
	if v, ok := b[id]; ok {
		return v
	}
	return decimal.Zero
}

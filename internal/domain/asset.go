package domain

import "strings"

// AssetID enumerates the crypto assets the app knows how to display.
type AssetID int

const (
	AssetUnknown AssetID = iota
	AssetBitcoin
	AssetEthereum
	AssetTether
	AssetUSDCoin
	AssetBinanceCoin
	AssetSolana
	AssetRipple
	AssetCardano

	assetCount
)

// AssetInfo is the display metadata for one asset.
type AssetInfo struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
}

var assetTable = [assetCount]AssetInfo{
	AssetUnknown:     {ID: "", Symbol: "?", Name: "Unknown asset", Color: "#9E9E9E", Icon: "assets/icons/generic.svg"},
	AssetBitcoin:     {ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Color: "#F7931A", Icon: "assets/icons/btc.svg"},
	AssetEthereum:    {ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Color: "#627EEA", Icon: "assets/icons/eth.svg"},
	AssetTether:      {ID: "tether", Symbol: "USDT", Name: "Tether", Color: "#26A17B", Icon: "assets/icons/usdt.svg"},
	AssetUSDCoin:     {ID: "usd-coin", Symbol: "USDC", Name: "USD Coin", Color: "#2775CA", Icon: "assets/icons/usdc.svg"},
	AssetBinanceCoin: {ID: "binancecoin", Symbol: "BNB", Name: "BNB", Color: "#F3BA2F", Icon: "assets/icons/bnb.svg"},
	AssetSolana:      {ID: "solana", Symbol: "SOL", Name: "Solana", Color: "#9945FF", Icon: "assets/icons/sol.svg"},
	AssetRipple:      {ID: "ripple", Symbol: "XRP", Name: "XRP", Color: "#23292F", Icon: "assets/icons/xrp.svg"},
	AssetCardano:     {ID: "cardano", Symbol: "ADA", Name: "Cardano", Color: "#0033AD", Icon: "assets/icons/ada.svg"},
}

// ParseAssetID maps an upstream asset id (e.g. "bitcoin") to its enum value.
// Unknown ids yield AssetUnknown and false.
func ParseAssetID(s string) (AssetID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AssetUnknown, false
	}
	for id := AssetUnknown + 1; id < assetCount; id++ {
		if assetTable[id].ID == s {
			return id, true
		}
	}
	return AssetUnknown, false
}

// Info returns the display metadata for a. Out-of-range values get the
// AssetUnknown entry.
func (a AssetID) Info() AssetInfo {
	if a <= AssetUnknown || a >= assetCount {
		return assetTable[AssetUnknown]
	}
	return assetTable[a]
}

// String returns the upstream id ("bitcoin"), or "unknown".
func (a AssetID) String() string {
	if id := a.Info().ID; id != "" {
		return id
	}
	return "unknown"
}

// SupportedAssets returns every known asset, in declaration order.
func SupportedAssets() []AssetID {
	out := make([]AssetID, 0, int(assetCount)-1)
	for id := AssetUnknown + 1; id < assetCount; id++ {
		out = append(out, id)
	}
	return out
}

// AssetCatalogue returns the display metadata of every known asset.
func AssetCatalogue() []AssetInfo {
	out := make([]AssetInfo, 0, int(assetCount)-1)
	for _, id := range SupportedAssets() {
		out = append(out, assetTable[id])
	}
	return out
}

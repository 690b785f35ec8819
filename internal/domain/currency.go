package domain

import (
	"fmt"
	"strings"
)

// Currency enumerates the fiat currencies prices can be quoted in.
type Currency int

const (
	CurrencyEUR Currency = iota
	CurrencyUSD
	CurrencyGBP
	CurrencyCHF
	CurrencyJPY

	currencyCount
)

// CurrencyInfo is the display metadata for one fiat currency.
type CurrencyInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

var currencyTable = [currencyCount]CurrencyInfo{
	CurrencyEUR: {Code: "eur", Name: "Euro", Symbol: "€"},
	CurrencyUSD: {Code: "usd", Name: "US Dollar", Symbol: "$"},
	CurrencyGBP: {Code: "gbp", Name: "British Pound", Symbol: "£"},
	CurrencyCHF: {Code: "chf", Name: "Swiss Franc", Symbol: "CHF"},
	CurrencyJPY: {Code: "jpy", Name: "Japanese Yen", Symbol: "¥"},
}

// ParseCurrency accepts a currency code in any case ("EUR", "eur") and
// returns ErrUnsupportedCurrency for anything outside the table.
func ParseCurrency(code string) (Currency, error) {
	c := strings.ToLower(strings.TrimSpace(code))
	for i := Currency(0); i < currencyCount; i++ {
		if currencyTable[i].Code == c {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
}

// Info returns the currency metadata.
func (c Currency) Info() CurrencyInfo {
	if c < 0 || c >= currencyCount {
		return CurrencyInfo{Code: "", Name: "Unknown currency", Symbol: "?"}
	}
	return currencyTable[c]
}

// Code returns the lower-case ISO code used by the market-data API.
func (c Currency) Code() string {
	return c.Info().Code
}

func (c Currency) String() string {
	return c.Code()
}

// CurrencyCatalogue lists every supported fiat currency.
func CurrencyCatalogue() []CurrencyInfo {
	out := make([]CurrencyInfo, currencyCount)
	copy(out, currencyTable[:])
	return out
}

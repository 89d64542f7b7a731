// Package display holds pure presentation-layer conversions. Stored
// amounts stay in canonical cents; nothing here writes anywhere.
package display

import "math"

// USDToINRRate is the fixed display conversion rate.
const USDToINRRate = 83

const (
	CurrencyUSD = "USD"
	CurrencyINR = "INR"
)

// Balances is a wallet balance rendered for both supported currencies.
type Balances struct {
	BalanceUSD     float64 `json:"balance_usd"`
	BalanceINR     float64 `json:"balance_inr"`
	DisplayBalance float64 `json:"display_balance"`
	Currency       string  `json:"currency"`
}

// ValidCurrency reports whether raw names a supported display currency.
func ValidCurrency(raw string) bool {
	return raw == CurrencyUSD || raw == CurrencyINR
}

// Convert renders a cent balance in USD and INR. An unknown preferred
// currency falls back to USD.
func Convert(balanceCents int64, preferred string) Balances {
	usd := round2(float64(balanceCents) / 100)
	inr := round2(usd * USDToINRRate)
	balances := Balances{
		BalanceUSD:     usd,
		BalanceINR:     inr,
		DisplayBalance: usd,
		Currency:       CurrencyUSD,
	}
	if preferred == CurrencyINR {
		balances.DisplayBalance = inr
		balances.Currency = CurrencyINR
	}
	return balances
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

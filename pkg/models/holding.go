package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Holding is one position in a subscriber's portfolio
type Holding struct {
	Ticker    string              `json:"ticker" db:"ticker" validate:"required,min=1,max=5,alpha,uppercase"`
	WeightPct decimal.NullDecimal `json:"weight_pct" db:"weight_pct"`
}

// NormalizedTicker returns the upper-cased ticker
func (h Holding) NormalizedTicker() string {
	return strings.ToUpper(strings.TrimSpace(h.Ticker))
}

// WeightOrZero returns the weight, treating an absent weight as zero
func (h Holding) WeightOrZero() decimal.Decimal {
	if !h.WeightPct.Valid {
		return decimal.Zero
	}
	return h.WeightPct.Decimal
}

// Tickers returns the normalized tickers of holdings in order
func Tickers(holdings []Holding) []string {
	tickers := make([]string, 0, len(holdings))
	for _, h := range holdings {
		tickers = append(tickers, h.NormalizedTicker())
	}
	return tickers
}

// ExposurePct sums the weights of holdings whose ticker is in affected.
// Missing weights contribute nothing.
func ExposurePct(holdings []Holding, affected []string) decimal.Decimal {
	set := make(map[string]struct{}, len(affected))
	for _, t := range affected {
		set[strings.ToUpper(t)] = struct{}{}
	}

	total := decimal.Zero
	for _, h := range holdings {
		if _, ok := set[h.NormalizedTicker()]; ok {
			total = total.Add(h.WeightOrZero())
		}
	}
	return total
}

package models

import "github.com/shopspring/decimal"

// ToFloat64 safely converts decimal to float64
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Weight builds a present portfolio weight
func Weight(pct float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(pct))
}

// NoWeight is an absent portfolio weight
func NoWeight() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

// RoundPct rounds a percentage half away from zero to a whole number
func RoundPct(d decimal.Decimal) int {
	return int(d.Round(0).IntPart())
}

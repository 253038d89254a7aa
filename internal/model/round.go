package model

import "github.com/shopspring/decimal"

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Package money centralises fixed-point arithmetic for document and ledger
// amounts. All amounts are decimals with two fraction digits; rounding is
// half-up and happens per line, before summation.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RoundCents rounds half-up to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal computes unitPrice * quantity * (1 - discountPercent/100),
// rounded half-up to cents.
func LineTotal(unitPrice decimal.Decimal, quantity int64, discountPercent decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(quantity))
	factor := decimal.New(1, 0).Sub(discountPercent.Div(hundred))
	return gross.Mul(factor).Round(2)
}

// Percent returns base * pct/100 rounded half-up to cents.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred).Round(2)
}

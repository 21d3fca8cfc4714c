// Package shared holds the costing arithmetic used by quotations, sales
// orders and purchase orders. Every line is rounded to cents before
// summation so document totals match the journal lines they produce.
package shared

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/money"
	base "github.com/vantage-books/vantage/internal/shared"
)

// LineItemInput is the raw line as submitted. ItemID and ProjectID are
// optional references; zero means none.
type LineItemInput struct {
	ItemID          int64
	ProjectID       int64
	AccountCode     string
	Description     string
	Quantity        int64
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// CostedLine is one line with its derived total.
type CostedLine struct {
	ItemID          int64
	ProjectID       int64
	AccountCode     string
	Description     string
	Quantity        int64
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	LineTotal       decimal.Decimal
}

// Totals are the derived document amounts. They are recomputed from the
// lines on every save and never trusted from input.
type Totals struct {
	Subtotal   decimal.Decimal
	Freight    decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	AmountPaid decimal.Decimal
	BalanceDue decimal.Decimal
}

var (
	ErrNoLines          = fmt.Errorf("sales: document requires at least one line: %w", base.ErrValidation)
	ErrBadQuantity      = fmt.Errorf("sales: quantity must be positive: %w", base.ErrValidation)
	ErrBadUnitPrice     = fmt.Errorf("sales: unit price must not be negative: %w", base.ErrValidation)
	ErrBadDiscount      = fmt.Errorf("sales: discount must be between 0 and 100: %w", base.ErrValidation)
	ErrNegativeCharge   = fmt.Errorf("sales: freight and tax must not be negative: %w", base.ErrValidation)
	ErrOverpayment      = fmt.Errorf("sales: amount paid exceeds total: %w", base.ErrValidation)
	ErrBadPaymentAmount = fmt.Errorf("sales: payment must be positive and within balance due: %w", base.ErrValidation)
)

// CostLines validates and prices each line.
func CostLines(lines []LineItemInput) ([]CostedLine, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	out := make([]CostedLine, 0, len(lines))
	for _, in := range lines {
		if in.Quantity <= 0 {
			return nil, ErrBadQuantity
		}
		if in.UnitPrice.IsNegative() {
			return nil, ErrBadUnitPrice
		}
		if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, ErrBadDiscount
		}
		out = append(out, CostedLine{
			ItemID:          in.ItemID,
			ProjectID:       in.ProjectID,
			AccountCode:     in.AccountCode,
			Description:     in.Description,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			LineTotal:       money.LineTotal(in.UnitPrice, in.Quantity, in.DiscountPercent),
		})
	}
	return out, nil
}

// Subtotal sums already-rounded line totals.
func Subtotal(lines []CostedLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal)
	}
	return sum
}

// ComputeTotals derives document totals from lines plus explicit freight
// and tax amounts (purchase and sales orders).
func ComputeTotals(lines []CostedLine, freight, tax, amountPaid decimal.Decimal) (Totals, error) {
	if freight.IsNegative() || tax.IsNegative() {
		return Totals{}, ErrNegativeCharge
	}
	if amountPaid.IsNegative() {
		return Totals{}, ErrBadPaymentAmount
	}
	subtotal := Subtotal(lines)
	total := subtotal.Add(freight).Add(tax)
	balanceDue := total.Sub(amountPaid)
	if balanceDue.IsNegative() {
		return Totals{}, ErrOverpayment
	}
	return Totals{
		Subtotal:   subtotal,
		Freight:    freight,
		Tax:        tax,
		Total:      total,
		AmountPaid: amountPaid,
		BalanceDue: balanceDue,
	}, nil
}

// ComputePercentTaxTotals derives totals where tax is a percentage of the
// subtotal (quotations).
func ComputePercentTaxTotals(lines []CostedLine, taxPercent decimal.Decimal) (Totals, error) {
	if taxPercent.IsNegative() {
		return Totals{}, ErrNegativeCharge
	}
	subtotal := Subtotal(lines)
	tax := money.Percent(subtotal, taxPercent)
	return Totals{
		Subtotal:   subtotal,
		Tax:        tax,
		Total:      subtotal.Add(tax),
		BalanceDue: subtotal.Add(tax),
	}, nil
}

// ValidatePayment checks a partial payment amount against the open balance.
func ValidatePayment(amount, balanceDue decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(balanceDue) {
		return ErrBadPaymentAmount
	}
	return nil
}

package domain

import "github.com/shopspring/decimal"

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// ClampCommissionRate bounds a configured commission rate to [0, 1]
func ClampCommissionRate(rate decimal.Decimal) decimal.Decimal {
	if rate.LessThan(zero) {
		return zero
	}
	if rate.GreaterThan(one) {
		return one
	}
	return rate
}

// SplitLineTotal computes the platform/seller split for one line item.
// The commission is rounded to 2 decimals first; seller earnings are the
// remainder of the rounded line total, so the two always sum back to the
// line total within a cent.
func SplitLineTotal(unitPrice decimal.Decimal, quantity int, rate decimal.Decimal) (commission, earnings decimal.Decimal) {
	lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	commission = lineTotal.Mul(ClampCommissionRate(rate)).Round(2)
	earnings = lineTotal.Sub(commission).Round(2)
	return commission, earnings
}

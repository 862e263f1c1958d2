package domain

import "github.com/shopspring/decimal"

// BillableUnits returns the number of shipping units a weight occupies,
// rounding any partial unit up to the next whole one.
func BillableUnits(weightGrams, unitGrams int64) int64 {
	if weightGrams <= 0 || unitGrams <= 0 {
		return 0
	}
	return (weightGrams + unitGrams - 1) / unitGrams
}

// ClampMoney floors a monetary amount at zero.
func ClampMoney(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

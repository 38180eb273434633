package models

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ApplyDiscount returns the amount after a discount.
// Percentage: amount * (1 - value/100). Fixed: amount - value. Never negative.
func ApplyDiscount(amount decimal.Decimal, discountType DiscountType, value decimal.Decimal) decimal.Decimal {
	var result decimal.Decimal
	switch discountType {
	case DiscountTypePercentage:
		result = amount.Mul(decimal.NewFromInt(1).Sub(value.Div(hundred)))
	case DiscountTypeFixed:
		result = amount.Sub(value)
	default:
		return amount
	}
	if result.IsNegative() {
		return decimal.Zero
	}
	return result.Round(2)
}

package domain

import "github.com/shopspring/decimal"

// A Price is a unit price snapshot.
//
// Discount is ignored unless [Price.DiscountActive] reports true.
type Price struct {
	Current  decimal.Decimal
	Discount decimal.NullDecimal
	Currency string
}

// FlatPrice returns a price without discount.
func FlatPrice(amount decimal.Decimal, currency string) Price {
	return Price{Current: amount, Currency: currency}
}

// DiscountActive reports whether the discount is present, positive
// and lower than the current price.
func (p Price) DiscountActive() bool {
	if !p.Discount.Valid {
		return false
	}
	d := p.Discount.Decimal
	return d.IsPositive() && d.LessThan(p.Current)
}

// EffectiveUnitPrice returns the price actually charged per unit.
func EffectiveUnitPrice(p Price) decimal.Decimal {
	if p.DiscountActive() {
		return p.Discount.Decimal
	}
	return p.Current
}

// LineTotal returns effective unit price multiplied by quantity.
func LineTotal(item CartItem) decimal.Decimal {
	return EffectiveUnitPrice(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// SumLineTotals folds [LineTotal] over items. Zero for empty list.
func SumLineTotals(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(LineTotal(item))
	}
	return sum
}

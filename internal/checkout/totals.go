package checkout

import (
	"github.com/shopspring/decimal"

	"localserve/internal/models"
)

var (
	// FreeDeliveryThreshold is the subtotal above which delivery is free.
	FreeDeliveryThreshold = decimal.NewFromInt(500)
	DeliveryFee           = decimal.NewFromInt(40)
)

// ComputeTotals derives the money values of a cart. It is a pure function
// of the items.
func ComputeTotals(items []models.CartItem) models.OrderTotals {
	subtotal := decimal.Zero
	discount := decimal.Zero

	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		price := decimal.NewFromFloat(item.Price)
		subtotal = subtotal.Add(price.Mul(qty))

		if item.OldPrice != nil {
			saved := decimal.NewFromFloat(*item.OldPrice).Sub(price)
			if saved.IsPositive() {
				discount = discount.Add(saved.Mul(qty))
			}
		}
	}

	fee := DeliveryFee
	if subtotal.GreaterThan(FreeDeliveryThreshold) {
		fee = decimal.Zero
	}
	total := subtotal.Sub(discount).Add(fee)

	return models.OrderTotals{
		Subtotal:    subtotal.InexactFloat64(),
		Discount:    discount.InexactFloat64(),
		DeliveryFee: fee.InexactFloat64(),
		Total:       total.InexactFloat64(),
	}
}

package cart

import (
	"github.com/shopspring/decimal"

	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
)

var (
	freeShippingThreshold = decimal.NewFromInt(200)
	taxRate               = decimal.RequireFromString("0.15")

	defaultShippingRate = decimal.NewFromInt(50)
	shippingRates       = map[enums.DeliveryMethod]decimal.Decimal{
		enums.DeliveryMethodStandard: decimal.NewFromInt(50),
		enums.DeliveryMethodExpress:  decimal.NewFromInt(100),
		enums.DeliveryMethodSameDay:  decimal.NewFromInt(150),
		enums.DeliveryMethodPudo:     decimal.NewFromInt(40),
	}
)

// Totals is the deterministic money breakdown for a cart.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives the cart money columns from its line items. The same
// inputs always yield the same outputs; every amount is rounded to 2 dp.
//
// Shipping is free above the threshold for the standard method only. Tax is
// levied on the discounted subtotal, never on a negative base.
func ComputeTotals(items []models.CartItem, method *enums.DeliveryMethod, discount decimal.Decimal) Totals {
	// An empty cart owes nothing, shipping included. This keeps a cleared
	// cart at the same zeroed totals checkout leaves behind.
	if len(items) == 0 {
		return Totals{
			Subtotal: decimal.Zero,
			Shipping: decimal.Zero,
			Tax:      decimal.Zero,
			Discount: decimal.Zero,
			Total:    decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = subtotal.Round(2)

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discount = discount.Round(2)

	shipping := shippingRate(method)
	if method != nil && *method == enums.DeliveryMethodStandard && subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	taxBase := subtotal.Sub(discount)
	if taxBase.IsNegative() {
		taxBase = decimal.Zero
	}
	tax := taxBase.Mul(taxRate).Round(2)

	total := subtotal.Add(shipping).Add(tax).Sub(discount).Round(2)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}
}

func shippingRate(method *enums.DeliveryMethod) decimal.Decimal {
	if method == nil {
		return defaultShippingRate
	}
	if rate, ok := shippingRates[*method]; ok {
		return rate
	}
	return defaultShippingRate
}

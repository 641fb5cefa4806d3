package cart

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
)

// DiscountResolver turns a discount code into an amount off the cart
// subtotal. Implementations may consult promo tables or remote engines.
type DiscountResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, code string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

// FixedAmountResolver grants a flat amount for any non-empty code.
type FixedAmountResolver struct {
	Amount decimal.Decimal
}

// NewFixedAmountResolver builds the default resolver with a 10.00 discount.
func NewFixedAmountResolver() FixedAmountResolver {
	return FixedAmountResolver{Amount: decimal.NewFromInt(10)}
}

func (f FixedAmountResolver) Resolve(_ context.Context, _ uuid.UUID, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(code) == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	amount := f.Amount
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount, nil
}

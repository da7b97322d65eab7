package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CheckoutTotals is derived from line items and the chosen shipping option.
// It is recomputed as a whole whenever either input changes, never patched in
// place. Tax applies to the goods subtotal only.
type CheckoutTotals struct {
	Subtotal Money `json:"subtotal"`
	Shipping Money `json:"shipping"`
	Tax      Money `json:"tax"`
	Total    Money `json:"total"`
}

func NewCheckoutTotals(subtotal, shipping Money, taxRate decimal.Decimal) (CheckoutTotals, error) {
	var t CheckoutTotals

	if subtotal.Currency != shipping.Currency {
		return t, fmt.Errorf("currency mismatch: subtotal %s vs shipping %s", subtotal.Currency, shipping.Currency)
	}

	if taxRate.IsNegative() {
		return t, fmt.Errorf("tax rate[%s] is negative", taxRate)
	}

	tax := Money{
		Amount:   subtotal.Amount.Mul(taxRate).Round(2),
		Currency: subtotal.Currency,
	}

	total := subtotal.Amount.Add(shipping.Amount).Add(tax.Amount)

	return CheckoutTotals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    Money{Amount: total, Currency: subtotal.Currency},
	}, nil
}

package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// LineItem is one cart position captured at session start. The unit price is
// the price at capture time; it is only ever revised by resolver-confirmed
// data during confirmation, never silently.
type LineItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	UnitPrice Money     `json:"unit_price"`
}

func NewLineItem(productID uuid.UUID, quantity int64, unitPrice Money) (LineItem, error) {
	var li LineItem

	if productID == uuid.Nil {
		return li, errors.New("product id is nil")
	}

	if quantity <= 0 {
		return li, fmt.Errorf("quantity[%d] is not positive", quantity)
	}

	if unitPrice.IsNegative() {
		return li, fmt.Errorf("unit price[%s] is negative", unitPrice)
	}

	return LineItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

func (li LineItem) Subtotal() Money {
	return li.UnitPrice.MulInt(li.Quantity)
}

// SumLineItems adds up item subtotals, requiring one shared currency.
func SumLineItems(items []LineItem) (Money, error) {
	var m Money

	if len(items) == 0 {
		return m, errors.New("no line items")
	}

	sum := ZeroMoney(items[0].UnitPrice.Currency)
	for _, item := range items {
		var err error

		sum, err = sum.Add(item.Subtotal())
		if err != nil {
			return m, fmt.Errorf("item[%s]: %w", item.ProductID, err)
		}
	}

	return sum, nil
}

package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CheckoutSessionID identifies one buyer's checkout attempt, independently of
// the cart it was started from.
type CheckoutSessionID struct {
	uuid.UUID
}

func NewCheckoutSessionID() CheckoutSessionID {
	return CheckoutSessionID{UUID: uuid.New()}
}

func ParseCheckoutSessionID(s string) (CheckoutSessionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CheckoutSessionID{}, fmt.Errorf("uuid.Parse: %w", err)
	}

	return CheckoutSessionID{UUID: id}, nil
}

func (id CheckoutSessionID) IsZero() bool {
	return id.UUID == uuid.Nil
}

// CartID identifies the cart a checkout session was captured from.
type CartID struct {
	uuid.UUID
}

func NewCartID() CartID {
	return CartID{UUID: uuid.New()}
}

func ParseCartID(s string) (CartID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CartID{}, fmt.Errorf("uuid.Parse: %w", err)
	}

	return CartID{UUID: id}, nil
}

func (id CartID) IsZero() bool {
	return id.UUID == uuid.Nil
}

type CustomerID string

func (id CustomerID) IsZero() bool {
	return id == ""
}

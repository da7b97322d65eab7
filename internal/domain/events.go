package domain

import "time"

// Events are registered on the aggregate during transitions and drained by
// the persistence collaborator after a successful save. The aggregate never
// dispatches them itself.

type Event interface {
	Header() EventHeader
	Name() string
}

type EventHeader struct {
	SessionID  CheckoutSessionID `json:"session_id"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (h EventHeader) Header() EventHeader { return h }

type SessionStarted struct {
	EventHeader
	CartID     CartID     `json:"cart_id"`
	CustomerID CustomerID `json:"customer_id"`
}

func (SessionStarted) Name() string { return "checkout.session_started" }

type BuyerInfoSubmitted struct {
	EventHeader
	Buyer BuyerInfo `json:"buyer"`
}

func (BuyerInfoSubmitted) Name() string { return "checkout.buyer_info_submitted" }

type DeliverySubmitted struct {
	EventHeader
	Delivery Delivery       `json:"delivery"`
	Totals   CheckoutTotals `json:"totals"`
}

func (DeliverySubmitted) Name() string { return "checkout.delivery_submitted" }

type PaymentSubmitted struct {
	EventHeader
	Payment PaymentSelection `json:"payment"`
}

func (PaymentSubmitted) Name() string { return "checkout.payment_submitted" }

type ReviewEntered struct {
	EventHeader
}

func (ReviewEntered) Name() string { return "checkout.review_entered" }

// CheckoutConfirmed carries full order contents for downstream consumers,
// e.g. an inventory-reduction listener.
type CheckoutConfirmed struct {
	EventHeader
	CustomerID   CustomerID     `json:"customer_id"`
	Items        []LineItem     `json:"items"`
	Totals       CheckoutTotals `json:"totals"`
	PriceChanges []PriceChange  `json:"price_changes,omitempty"`
}

func (CheckoutConfirmed) Name() string { return "checkout.confirmed" }

type CheckoutCompleted struct {
	EventHeader
}

func (CheckoutCompleted) Name() string { return "checkout.completed" }

type CheckoutAbandoned struct {
	EventHeader
	FromStep CheckoutStep `json:"from_step"`
}

func (CheckoutAbandoned) Name() string { return "checkout.abandoned" }

type CheckoutExpired struct {
	EventHeader
	FromStep CheckoutStep `json:"from_step"`
	IdleFor  time.Duration `json:"idle_for"`
}

func (CheckoutExpired) Name() string { return "checkout.expired" }

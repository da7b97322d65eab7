package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SessionIdleTimeout is how long a session may sit without a successful
// transition before it becomes eligible for expiration.
const SessionIdleTimeout = 30 * time.Minute

// CheckoutSession is the aggregate root of one checkout attempt. All
// mutations go through its transition methods; the current step is the single
// source of truth for which optional value objects are populated. The
// aggregate does no I/O and holds no clock: every transition receives "now"
// from the caller.
type CheckoutSession struct {
	id         CheckoutSessionID
	cartID     CartID
	customerID CustomerID

	step     CheckoutStep
	buyer    *BuyerInfo
	delivery *Delivery
	payment  *PaymentSelection

	items   []LineItem
	totals  CheckoutTotals
	taxRate decimal.Decimal

	createdAt      time.Time
	lastActivityAt time.Time

	// persistence version for the repository CAS, 0 for a fresh session
	version int64

	events []Event
}

type SessionOption func(*CheckoutSession)

func WithTaxRate(rate decimal.Decimal) SessionOption {
	return func(s *CheckoutSession) {
		s.taxRate = rate
	}
}

// StartSession captures a cart snapshot into a new session at StepStarted.
// The caller-supplied subtotal must match the sum of the line items; a
// mismatch means the snapshot is inconsistent and the session is refused.
func StartSession(cartID CartID, customerID CustomerID, items []LineItem, subtotal Money, now time.Time, opts ...SessionOption) (*CheckoutSession, error) {
	if cartID.IsZero() {
		return nil, errors.New("cart id is zero")
	}

	if customerID.IsZero() {
		return nil, errors.New("customer id is zero")
	}

	if len(items) == 0 {
		return nil, errors.New("no line items")
	}

	computed, err := SumLineItems(items)
	if err != nil {
		return nil, fmt.Errorf("SumLineItems: %w", err)
	}

	if !computed.Equal(subtotal) {
		return nil, fmt.Errorf("subtotal[%s] does not match line items sum[%s]", subtotal, computed)
	}

	s := &CheckoutSession{
		id:             NewCheckoutSessionID(),
		cartID:         cartID,
		customerID:     customerID,
		step:           StepStarted,
		items:          append([]LineItem(nil), items...),
		taxRate:        decimal.Zero,
		createdAt:      now,
		lastActivityAt: now,
	}

	for _, opt := range opts {
		opt(s)
	}

	totals, err := NewCheckoutTotals(subtotal, ZeroMoney(subtotal.Currency), s.taxRate)
	if err != nil {
		return nil, fmt.Errorf("NewCheckoutTotals: %w", err)
	}
	s.totals = totals

	s.register(SessionStarted{
		EventHeader: s.header(now),
		CartID:      cartID,
		CustomerID:  customerID,
	})

	return s, nil
}

func (s *CheckoutSession) ID() CheckoutSessionID     { return s.id }
func (s *CheckoutSession) CartID() CartID            { return s.cartID }
func (s *CheckoutSession) CustomerID() CustomerID    { return s.customerID }
func (s *CheckoutSession) Step() CheckoutStep        { return s.step }
func (s *CheckoutSession) Totals() CheckoutTotals    { return s.totals }
func (s *CheckoutSession) TaxRate() decimal.Decimal  { return s.taxRate }
func (s *CheckoutSession) CreatedAt() time.Time      { return s.createdAt }
func (s *CheckoutSession) LastActivityAt() time.Time { return s.lastActivityAt }
func (s *CheckoutSession) Version() int64            { return s.version }

func (s *CheckoutSession) Items() []LineItem {
	return append([]LineItem(nil), s.items...)
}

// Buyer returns a copy of the submitted buyer info, or nil before the
// buyer-info step. Same pattern for Delivery and Payment.
func (s *CheckoutSession) Buyer() *BuyerInfo {
	if s.buyer == nil {
		return nil
	}
	return lo.ToPtr(*s.buyer)
}

func (s *CheckoutSession) Delivery() *Delivery {
	if s.delivery == nil {
		return nil
	}
	return lo.ToPtr(*s.delivery)
}

func (s *CheckoutSession) Payment() *PaymentSelection {
	if s.payment == nil {
		return nil
	}
	return lo.ToPtr(*s.payment)
}

// Idle reports whether the session has been inactive long enough to expire.
func (s *CheckoutSession) Idle(now time.Time) bool {
	return now.Sub(s.lastActivityAt) >= SessionIdleTimeout
}

// SubmitBuyerInfo is legal from Started, or from BuyerInfo as a resubmission
// that replaces the previous value without advancing twice.
func (s *CheckoutSession) SubmitBuyerInfo(info BuyerInfo, now time.Time) error {
	if err := s.guard(StepBuyerInfo, StepStarted, StepBuyerInfo); err != nil {
		return err
	}

	s.buyer = &info
	s.step = StepBuyerInfo
	s.touch(now)

	s.register(BuyerInfoSubmitted{
		EventHeader: s.header(now),
		Buyer:       info,
	})

	return nil
}

// SubmitDelivery stores the address and shipping choice and recomputes totals
// with the shipping cost. Legal from BuyerInfo or Delivery.
func (s *CheckoutSession) SubmitDelivery(address DeliveryAddress, shipping ShippingOption, now time.Time) error {
	if err := s.guard(StepDelivery, StepBuyerInfo, StepDelivery); err != nil {
		return err
	}

	totals, err := NewCheckoutTotals(s.totals.Subtotal, shipping.Cost, s.taxRate)
	if err != nil {
		return fmt.Errorf("NewCheckoutTotals: %w", err)
	}

	delivery := Delivery{Address: address, Shipping: shipping}

	s.delivery = &delivery
	s.totals = totals
	s.step = StepDelivery
	s.touch(now)

	s.register(DeliverySubmitted{
		EventHeader: s.header(now),
		Delivery:    delivery,
		Totals:      totals,
	})

	return nil
}

// SubmitPayment is legal from Delivery or Payment.
func (s *CheckoutSession) SubmitPayment(selection PaymentSelection, now time.Time) error {
	if err := s.guard(StepPayment, StepDelivery, StepPayment); err != nil {
		return err
	}

	s.payment = &selection
	s.step = StepPayment
	s.touch(now)

	s.register(PaymentSubmitted{
		EventHeader: s.header(now),
		Payment:     selection,
	})

	return nil
}

// EnterReview moves the session onto the review page. Legal from Payment or
// Review.
func (s *CheckoutSession) EnterReview(now time.Time) error {
	if err := s.guard(StepReview, StepPayment, StepReview); err != nil {
		return err
	}

	alreadyThere := s.step == StepReview

	s.step = StepReview
	s.touch(now)

	if !alreadyThere {
		s.register(ReviewEntered{EventHeader: s.header(now)})
	}

	return nil
}

// Confirm reconciles the captured line items against fresh article data and,
// if nothing blocks, re-prices the items, recomputes totals and advances to
// Confirmed. On a blocking verdict the session is left untouched and the
// itemized reasons are returned. Legal from Payment or Review.
func (s *CheckoutSession) Confirm(articles map[uuid.UUID]ArticleData, policy ReconcilePolicy, now time.Time) error {
	if err := s.guard(StepConfirmed, StepPayment, StepReview); err != nil {
		return err
	}

	verdict := Reconcile(s.items, articles, policy)
	if verdict.Blocking() {
		return ValidationFailedError{Verdict: verdict}
	}

	// all articles are known here, otherwise the verdict would block
	repriced := lo.Map(s.items, func(item LineItem, _ int) LineItem {
		item.UnitPrice = articles[item.ProductID].UnitPrice
		return item
	})

	subtotal, err := SumLineItems(repriced)
	if err != nil {
		return fmt.Errorf("SumLineItems: %w", err)
	}

	totals, err := NewCheckoutTotals(subtotal, s.totals.Shipping, s.taxRate)
	if err != nil {
		return fmt.Errorf("NewCheckoutTotals: %w", err)
	}

	s.items = repriced
	s.totals = totals
	s.step = StepConfirmed
	s.touch(now)

	s.register(CheckoutConfirmed{
		EventHeader:  s.header(now),
		CustomerID:   s.customerID,
		Items:        append([]LineItem(nil), repriced...),
		Totals:       totals,
		PriceChanges: verdict.PriceChanges,
	})

	return nil
}

// Complete is the single transition accepted after Confirmed. Irreversible.
func (s *CheckoutSession) Complete(now time.Time) error {
	if err := s.guard(StepCompleted, StepConfirmed); err != nil {
		return err
	}

	s.step = StepCompleted
	s.touch(now)

	s.register(CheckoutCompleted{EventHeader: s.header(now)})

	return nil
}

// Abandon is legal from any non-terminal step, including Confirmed.
func (s *CheckoutSession) Abandon(now time.Time) error {
	if s.step.IsTerminal() {
		return SessionClosedError{Step: s.step}
	}

	from := s.step

	s.step = StepAbandoned
	s.touch(now)

	s.register(CheckoutAbandoned{
		EventHeader: s.header(now),
		FromStep:    from,
	})

	return nil
}

// Expire moves an idle, non-terminal session to Expired. It is idempotent:
// on a terminal session it is a no-op, not an error, so concurrent sweep
// races resolve quietly. A session that is not yet idle is also left alone.
func (s *CheckoutSession) Expire(now time.Time) {
	if s.step.IsTerminal() {
		return
	}

	if !s.Idle(now) {
		return
	}

	from := s.step
	idleFor := now.Sub(s.lastActivityAt)

	s.step = StepExpired
	s.lastActivityAt = now

	s.register(CheckoutExpired{
		EventHeader: s.header(now),
		FromStep:    from,
		IdleFor:     idleFor,
	})
}

// DrainEvents returns the registered events and clears the internal list.
// Called once per successful persistence cycle by the orchestrator.
func (s *CheckoutSession) DrainEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

func (s *CheckoutSession) guard(attempted CheckoutStep, allowedFrom ...CheckoutStep) error {
	if s.step.IsTerminal() {
		return SessionClosedError{Step: s.step}
	}

	if lo.Contains(allowedFrom, s.step) {
		return nil
	}

	return InvalidStepTransitionError{From: s.step, Attempted: attempted}
}

func (s *CheckoutSession) touch(now time.Time) {
	s.lastActivityAt = now
}

func (s *CheckoutSession) header(now time.Time) EventHeader {
	return EventHeader{SessionID: s.id, OccurredAt: now}
}

func (s *CheckoutSession) register(e Event) {
	s.events = append(s.events, e)
}

// SessionState is the persistence memento of a session. Repositories
// round-trip aggregates through it; registered events are deliberately not
// part of the state.
type SessionState struct {
	ID             CheckoutSessionID
	CartID         CartID
	CustomerID     CustomerID
	Step           CheckoutStep
	Buyer          *BuyerInfo
	Delivery       *Delivery
	Payment        *PaymentSelection
	Items          []LineItem
	Totals         CheckoutTotals
	TaxRate        decimal.Decimal
	CreatedAt      time.Time
	LastActivityAt time.Time
	Version        int64
}

func (s *CheckoutSession) State() SessionState {
	return SessionState{
		ID:             s.id,
		CartID:         s.cartID,
		CustomerID:     s.customerID,
		Step:           s.step,
		Buyer:          s.Buyer(),
		Delivery:       s.Delivery(),
		Payment:        s.Payment(),
		Items:          s.Items(),
		Totals:         s.totals,
		TaxRate:        s.taxRate,
		CreatedAt:      s.createdAt,
		LastActivityAt: s.lastActivityAt,
		Version:        s.version,
	}
}

// RestoreSession rebuilds an aggregate from its persisted state, checking the
// step/field population invariant on the way in.
func RestoreSession(st SessionState) (*CheckoutSession, error) {
	if _, err := ToCheckoutStep(string(st.Step)); err != nil {
		return nil, fmt.Errorf("step[%s]: %w", st.Step, err)
	}

	if st.ID.IsZero() {
		return nil, errors.New("session id is zero")
	}

	if len(st.Items) == 0 {
		return nil, errors.New("no line items")
	}

	if rank, ok := st.Step.Rank(); ok {
		buyerRank, _ := StepBuyerInfo.Rank()
		deliveryRank, _ := StepDelivery.Rank()
		paymentRank, _ := StepPayment.Rank()

		if (st.Buyer != nil) != (rank >= buyerRank) {
			return nil, fmt.Errorf("buyer info population does not match step %s", st.Step)
		}
		if (st.Delivery != nil) != (rank >= deliveryRank) {
			return nil, fmt.Errorf("delivery population does not match step %s", st.Step)
		}
		if (st.Payment != nil) != (rank >= paymentRank) {
			return nil, fmt.Errorf("payment population does not match step %s", st.Step)
		}
	}

	s := &CheckoutSession{
		id:             st.ID,
		cartID:         st.CartID,
		customerID:     st.CustomerID,
		step:           st.Step,
		items:          append([]LineItem(nil), st.Items...),
		totals:         st.Totals,
		taxRate:        st.TaxRate,
		createdAt:      st.CreatedAt,
		lastActivityAt: st.LastActivityAt,
		version:        st.Version,
	}

	if st.Buyer != nil {
		s.buyer = lo.ToPtr(*st.Buyer)
	}
	if st.Delivery != nil {
		s.delivery = lo.ToPtr(*st.Delivery)
	}
	if st.Payment != nil {
		s.payment = lo.ToPtr(*st.Payment)
	}

	return s, nil
}

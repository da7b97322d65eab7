package domain

import "errors"

type CheckoutStep string

// remember to add new steps to the stepRanks or terminalSteps map
const (
	StepStarted   CheckoutStep = "started"
	StepBuyerInfo CheckoutStep = "buyer_info"
	StepDelivery  CheckoutStep = "delivery"
	StepPayment   CheckoutStep = "payment"
	StepReview    CheckoutStep = "review"
	StepConfirmed CheckoutStep = "confirmed"

	StepCompleted CheckoutStep = "completed"
	StepAbandoned CheckoutStep = "abandoned"
	StepExpired   CheckoutStep = "expired"
)

// Explicit ranks rather than declaration order, so the forward-only check
// survives reordering of the const block. Only the six happy-path steps are
// ranked; terminal outcomes are unordered absorbing states.
var stepRanks = map[CheckoutStep]int{
	StepStarted:   0,
	StepBuyerInfo: 1,
	StepDelivery:  2,
	StepPayment:   3,
	StepReview:    4,
	StepConfirmed: 5,
}

var terminalSteps = map[CheckoutStep]struct{}{
	StepCompleted: {},
	StepAbandoned: {},
	StepExpired:   {},
}

func ToCheckoutStep(s string) (CheckoutStep, error) {
	step := CheckoutStep(s)

	if _, ok := stepRanks[step]; ok {
		return step, nil
	}
	if _, ok := terminalSteps[step]; ok {
		return step, nil
	}

	return "", errors.New("invalid checkout step")
}

func (s CheckoutStep) Rank() (int, bool) {
	rank, ok := stepRanks[s]
	return rank, ok
}

func (s CheckoutStep) IsTerminal() bool {
	_, ok := terminalSteps[s]
	return ok
}

// Before reports whether s is strictly earlier than other in the happy-path
// order. Unranked steps are never ordered.
func (s CheckoutStep) Before(other CheckoutStep) bool {
	sr, ok := s.Rank()
	if !ok {
		return false
	}

	or, ok := other.Rank()
	if !ok {
		return false
	}

	return sr < or
}

func (s CheckoutStep) String() string {
	return string(s)
}

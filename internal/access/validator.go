// Package access decides what a caller may view for a given session state.
// It is a pure read-side check: it never mutates the session, and backward
// navigation is allowed here even though the aggregate's step only moves
// forward.
package access

import "github.com/nikolayk812/checkout/internal/domain"

type Target string

const (
	// TargetCart sends the caller back to the cart, outside the checkout.
	TargetCart Target = "cart"
	// TargetConfirmation shows the session's final outcome.
	TargetConfirmation Target = "confirmation"
	// TargetStep points at a specific checkout step.
	TargetStep Target = "step"
)

type Decision struct {
	Allowed bool

	// set only when Allowed is false
	Target Target
	// set only when Target is TargetStep
	Step domain.CheckoutStep
}

func allow() Decision {
	return Decision{Allowed: true}
}

func redirect(target Target) Decision {
	return Decision{Target: target}
}

func redirectStep(step domain.CheckoutStep) Decision {
	return Decision{Target: TargetStep, Step: step}
}

// ValidateAccess maps (session, requested step) to allow-or-redirect:
//
//  1. no session, or a request for something that is not a checkout view,
//     goes back to the cart;
//  2. a terminal session only shows the confirmation view;
//  3. skipping ahead redirects to the session's current step;
//  4. the current step and all earlier steps are viewable.
func ValidateAccess(session *domain.CheckoutSession, requested domain.CheckoutStep) Decision {
	if session == nil {
		return redirect(TargetCart)
	}

	requestedRank, ok := requested.Rank()
	if !ok {
		return redirect(TargetCart)
	}

	current := session.Step()

	if current.IsTerminal() {
		if requested == domain.StepConfirmed {
			return allow()
		}
		return redirect(TargetConfirmation)
	}

	currentRank, ok := current.Rank()
	if !ok {
		// unreachable given the step enum, kept as a hard stop
		return redirect(TargetCart)
	}

	if requestedRank > currentRank {
		return redirectStep(current)
	}

	return allow()
}

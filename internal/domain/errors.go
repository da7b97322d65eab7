package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned by repositories when the id or cart id
	// has no backing record.
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrConcurrentModification is returned by repositories when a save
	// loses the per-id compare-and-swap. Callers should reload and retry.
	ErrConcurrentModification = errors.New("concurrent modification of checkout session")

	// ErrResolverUnavailable wraps article-data lookup failures during
	// confirmation. Transient: the whole confirm call may be retried.
	ErrResolverUnavailable = errors.New("article data resolver unavailable")
)

// InvalidStepTransitionError reports an attempt to skip ahead or to resubmit
// a step the session has already moved past.
type InvalidStepTransitionError struct {
	From      CheckoutStep
	Attempted CheckoutStep
}

func (e InvalidStepTransitionError) Error() string {
	return fmt.Sprintf("invalid step transition from %s to %s", e.From, e.Attempted)
}

// SessionClosedError reports a mutation attempt on a terminal session.
type SessionClosedError struct {
	Step CheckoutStep
}

func (e SessionClosedError) Error() string {
	return fmt.Sprintf("checkout session is closed in state %s", e.Step)
}

// ValidationFailedError carries the itemized reconciliation problems that
// blocked confirmation. The session is left unchanged at its prior step.
type ValidationFailedError struct {
	Verdict Verdict
}

func (e ValidationFailedError) Error() string {
	return fmt.Sprintf("checkout validation failed: %d problem(s)", len(e.Verdict.Problems))
}

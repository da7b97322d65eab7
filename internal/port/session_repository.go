package port

import (
	"context"
	"time"

	"github.com/nikolayk812/checkout/internal/domain"
)

// SessionRepository is the storage contract consumed by the core: a key-value
// store keyed by session id with per-id atomic saves.
type SessionRepository interface {
	// Save upserts the session. It compares the session's loaded version
	// against the stored one and returns domain.ErrConcurrentModification
	// when another save won the race; callers reload and retry.
	Save(ctx context.Context, session *domain.CheckoutSession) error

	// FindByID returns domain.ErrSessionNotFound when absent.
	FindByID(ctx context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error)

	// FindByCartID returns the most recently created session for the cart,
	// or domain.ErrSessionNotFound. Used to prevent duplicate sessions per
	// cart.
	FindByCartID(ctx context.Context, cartID domain.CartID) (*domain.CheckoutSession, error)

	// FindExpired returns non-terminal sessions idle at least the session
	// idle timeout as of now, oldest first.
	FindExpired(ctx context.Context, now time.Time) ([]*domain.CheckoutSession, error)
}

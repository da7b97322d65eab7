package port

import (
	"context"

	"github.com/nikolayk812/checkout/internal/domain"
)

// EventPublisher dispatches drained domain events to observers. Called by
// the orchestrator after a successful save, never from the aggregate.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

package publisher

import (
	"context"

	"github.com/nikolayk812/checkout/internal/domain"
	"go.uber.org/zap"
)

// LogPublisher writes events to the log instead of a broker. Demo and
// development use.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, events []domain.Event) error {
	for _, event := range events {
		header := event.Header()

		p.logger.Info("domain event",
			zap.String("name", event.Name()),
			zap.String("session_id", header.SessionID.String()),
			zap.Time("occurred_at", header.OccurredAt))
	}

	return nil
}

// Package sweeper runs the periodic side of the expiration policy: find idle
// sessions, expire them, save, publish. Races against user-initiated
// transitions are resolved by the repository CAS plus the idempotence of
// Expire; a lost save just means the session is no longer idle.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/nikolayk812/checkout/internal/port"
	"go.uber.org/zap"
)

type Sweeper struct {
	repo      port.SessionRepository
	publisher port.EventPublisher
	clock     port.Clock
	logger    *zap.Logger
	interval  time.Duration
}

func New(repo port.SessionRepository, publisher port.EventPublisher, clock port.Clock,
	logger *zap.Logger, interval time.Duration) (*Sweeper, error) {
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if publisher == nil {
		return nil, errors.New("publisher is nil")
	}
	if clock == nil {
		return nil, errors.New("clock is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval[%s] is not positive", interval)
	}

	return &Sweeper{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		interval:  interval,
	}, nil
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error("sweep failed", zap.Error(err))
				continue
			}
			if expired > 0 {
				s.logger.Info("expired idle sessions", zap.Int("count", expired))
			}
		}
	}
}

// SweepOnce expires every currently idle session and returns how many it
// closed. Sessions that lose the save race are skipped; the next pass sees
// them with fresh activity and ignores them.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()

	sessions, err := s.repo.FindExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("repo.FindExpired: %w", err)
	}

	var expired int
	for _, session := range sessions {
		session.Expire(now)

		if err := s.repo.Save(ctx, session); err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				s.logger.Debug("session touched during sweep, skipping",
					zap.String("session_id", session.ID().String()))
				continue
			}
			return expired, fmt.Errorf("repo.Save: %w", err)
		}

		events := session.DrainEvents()
		if len(events) > 0 {
			if err := s.publisher.Publish(ctx, events); err != nil {
				s.logger.Warn("publish events",
					zap.String("session_id", session.ID().String()),
					zap.Error(err))
			}
		}

		expired++
	}

	return expired, nil
}

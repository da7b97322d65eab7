package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/nikolayk812/checkout/internal/port"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const defaultResolveTimeout = 5 * time.Second

// CheckoutService orchestrates one transition per call: load the session,
// mutate it, save it, then drain and publish its events. Event publication
// is best-effort after the save; a publish failure never fails the
// transition.
type CheckoutService struct {
	repo      port.SessionRepository
	articles  port.ArticleSource
	publisher port.EventPublisher
	clock     port.Clock
	logger    *zap.Logger

	policy         domain.ReconcilePolicy
	resolveTimeout time.Duration
}

type Option func(*CheckoutService)

func WithReconcilePolicy(policy domain.ReconcilePolicy) Option {
	return func(s *CheckoutService) {
		s.policy = policy
	}
}

func WithResolveTimeout(timeout time.Duration) Option {
	return func(s *CheckoutService) {
		s.resolveTimeout = timeout
	}
}

func New(repo port.SessionRepository, articles port.ArticleSource, publisher port.EventPublisher,
	clock port.Clock, logger *zap.Logger, opts ...Option) (*CheckoutService, error) {
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if articles == nil {
		return nil, errors.New("articles is nil")
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

	s := &CheckoutService{
		repo:           repo,
		articles:       articles,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
		resolveTimeout: defaultResolveTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start creates a session from a cart snapshot. If the cart already has a
// live session, that session is returned instead of creating a duplicate.
func (s *CheckoutService) Start(ctx context.Context, cartID domain.CartID, customerID domain.CustomerID,
	items []domain.LineItem, subtotal domain.Money, opts ...domain.SessionOption) (*domain.CheckoutSession, error) {

	existing, err := s.repo.FindByCartID(ctx, cartID)
	switch {
	case err == nil:
		if !existing.Step().IsTerminal() {
			s.logger.Info("reusing existing checkout session",
				zap.String("session_id", existing.ID().String()),
				zap.String("cart_id", cartID.String()))
			return existing, nil
		}
	case !errors.Is(err, domain.ErrSessionNotFound):
		return nil, fmt.Errorf("repo.FindByCartID: %w", err)
	}

	session, err := domain.StartSession(cartID, customerID, items, subtotal, s.clock.Now(), opts...)
	if err != nil {
		return nil, fmt.Errorf("domain.StartSession: %w", err)
	}

	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Get loads a session, expiring it lazily when it turns out to be idle.
func (s *CheckoutService) Get(ctx context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error) {
	return s.load(ctx, id)
}

func (s *CheckoutService) SubmitBuyerInfo(ctx context.Context, id domain.CheckoutSessionID, info domain.BuyerInfo) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(session *domain.CheckoutSession) error {
		return session.SubmitBuyerInfo(info, s.clock.Now())
	})
}

func (s *CheckoutService) SubmitDelivery(ctx context.Context, id domain.CheckoutSessionID,
	address domain.DeliveryAddress, shipping domain.ShippingOption) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(session *domain.CheckoutSession) error {
		return session.SubmitDelivery(address, shipping, s.clock.Now())
	})
}

func (s *CheckoutService) SubmitPayment(ctx context.Context, id domain.CheckoutSessionID,
	selection domain.PaymentSelection) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(session *domain.CheckoutSession) error {
		return session.SubmitPayment(selection, s.clock.Now())
	})
}

func (s *CheckoutService) EnterReview(ctx context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(session *domain.CheckoutSession) error {
		return session.EnterReview(s.clock.Now())
	})
}

// Confirm fetches fresh article data within a bounded timeout and hands it to
// the aggregate. A fetch failure surfaces as domain.ErrResolverUnavailable
// and leaves the session unchanged; the whole call may be retried.
func (s *CheckoutService) Confirm(ctx context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	productIDs := lo.Map(session.Items(), func(item domain.LineItem, _ int) uuid.UUID {
		return item.ProductID
	})

	fetchCtx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	articles, err := s.articles.FetchArticleData(fetchCtx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("articles.FetchArticleData: %w", errors.Join(domain.ErrResolverUnavailable, err))
	}

	if err := session.Confirm(articles, s.policy, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("session.Confirm: %w", err)
	}

	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *CheckoutService) Complete(ctx context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(session *domain.CheckoutSession) error {
		return session.Complete(s.clock.Now())
	})
}

func (s *CheckoutService) Abandon(ctx context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(session *domain.CheckoutSession) error {
		return session.Abandon(s.clock.Now())
	})
}

func (s *CheckoutService) transition(ctx context.Context, id domain.CheckoutSessionID,
	fn func(*domain.CheckoutSession) error) (*domain.CheckoutSession, error) {

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// load notices an idle session at read time and expires it before returning,
// the lazy branch of the expiration policy. A CAS loss on that save means
// someone else just touched the session, so it is reloaded instead.
func (s *CheckoutService) load(ctx context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo.FindByID: %w", err)
	}

	now := s.clock.Now()
	if session.Step().IsTerminal() || !session.Idle(now) {
		return session, nil
	}

	session.Expire(now)

	if err := s.persist(ctx, session); err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return s.repo.FindByID(ctx, id)
		}
		return nil, err
	}

	return session, nil
}

func (s *CheckoutService) persist(ctx context.Context, session *domain.CheckoutSession) error {
	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("repo.Save: %w", err)
	}

	events := session.DrainEvents()
	if len(events) == 0 {
		return nil
	}

	if err := s.publisher.Publish(ctx, events); err != nil {
		s.logger.Warn("publish events",
			zap.String("session_id", session.ID().String()),
			zap.Int("events", len(events)),
			zap.Error(err))
	}

	return nil
}

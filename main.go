package main

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/checkout/internal/access"
	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/nikolayk812/checkout/internal/port"
	"github.com/nikolayk812/checkout/internal/publisher"
	"github.com/nikolayk812/checkout/internal/repository"
	"github.com/nikolayk812/checkout/internal/service"
	"github.com/nikolayk812/checkout/internal/sweeper"
	"go.uber.org/zap"
)

// Demo wiring: walks one session through the whole step sequence, lets a
// second one go idle and shows the sweep closing it. Set
// CHECKOUT_DATABASE_URL and/or CHECKOUT_KAFKA_BROKERS to run against real
// backends instead of the in-memory defaults.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	repo := buildRepository(ctx, logger)
	pub := buildPublisher(logger)
	clock := &manualClock{now: time.Now()}

	articles := &staticArticleSource{articles: map[uuid.UUID]domain.ArticleData{}}

	svc, err := service.New(repo, articles, pub, clock, logger)
	if err != nil {
		logger.Fatal("service.New", zap.Error(err))
	}

	items := []domain.LineItem{
		mustLineItem(uuid.New(), 2, domain.MustMoney("19.99", "EUR")),
		mustLineItem(uuid.New(), 1, domain.MustMoney("10.02", "EUR")),
	}
	for _, item := range items {
		articles.put(domain.ArticleData{
			ProductID:      item.ProductID,
			UnitPrice:      item.UnitPrice,
			AvailableStock: 10,
			Available:      true,
		})
	}

	subtotal := domain.MustMoney("50.00", "EUR")

	session, err := svc.Start(ctx, domain.NewCartID(), "customer-42", items, subtotal)
	if err != nil {
		logger.Fatal("svc.Start", zap.Error(err))
	}
	logger.Info("session started", zap.String("session_id", session.ID().String()))

	// skipping ahead is refused on the read side as well
	decision := access.ValidateAccess(session, domain.StepPayment)
	logger.Info("access check for payment step while started",
		zap.Bool("allowed", decision.Allowed),
		zap.String("redirect_step", decision.Step.String()))

	buyer, err := domain.NewBuyerInfo("buyer@example.com", "Jane Buyer", "")
	if err != nil {
		logger.Fatal("domain.NewBuyerInfo", zap.Error(err))
	}
	if session, err = svc.SubmitBuyerInfo(ctx, session.ID(), buyer); err != nil {
		logger.Fatal("svc.SubmitBuyerInfo", zap.Error(err))
	}

	address, err := domain.NewDeliveryAddress("1 Main St", "", "Berlin", "10115", "DE")
	if err != nil {
		logger.Fatal("domain.NewDeliveryAddress", zap.Error(err))
	}
	shipping, err := domain.NewShippingOption("standard", "Standard", domain.MustMoney("5.00", "EUR"))
	if err != nil {
		logger.Fatal("domain.NewShippingOption", zap.Error(err))
	}
	if session, err = svc.SubmitDelivery(ctx, session.ID(), address, shipping); err != nil {
		logger.Fatal("svc.SubmitDelivery", zap.Error(err))
	}
	logger.Info("delivery submitted", zap.String("total", session.Totals().Total.String()))

	payment, err := domain.NewPaymentSelection("acme-pay", "card", "auth-token-123")
	if err != nil {
		logger.Fatal("domain.NewPaymentSelection", zap.Error(err))
	}
	if session, err = svc.SubmitPayment(ctx, session.ID(), payment); err != nil {
		logger.Fatal("svc.SubmitPayment", zap.Error(err))
	}

	if session, err = svc.EnterReview(ctx, session.ID()); err != nil {
		logger.Fatal("svc.EnterReview", zap.Error(err))
	}

	if session, err = svc.Confirm(ctx, session.ID()); err != nil {
		logger.Fatal("svc.Confirm", zap.Error(err))
	}
	logger.Info("session confirmed", zap.String("total", session.Totals().Total.String()))

	if _, err = svc.Complete(ctx, session.ID()); err != nil {
		logger.Fatal("svc.Complete", zap.Error(err))
	}

	// a second session goes idle and the sweep closes it
	idleItems := []domain.LineItem{mustLineItem(uuid.New(), 1, domain.MustMoney("7.50", "EUR"))}
	if _, err = svc.Start(ctx, domain.NewCartID(), "customer-43", idleItems, domain.MustMoney("7.50", "EUR")); err != nil {
		logger.Fatal("svc.Start", zap.Error(err))
	}

	clock.advance(domain.SessionIdleTimeout + time.Minute)

	sw, err := sweeper.New(repo, pub, clock, logger, sweepInterval())
	if err != nil {
		logger.Fatal("sweeper.New", zap.Error(err))
	}

	expired, err := sw.SweepOnce(ctx)
	if err != nil {
		logger.Fatal("sw.SweepOnce", zap.Error(err))
	}
	logger.Info("sweep finished", zap.Int("expired", expired))
}

func buildRepository(ctx context.Context, logger *zap.Logger) port.SessionRepository {
	connStr := os.Getenv("CHECKOUT_DATABASE_URL")
	if connStr == "" {
		return repository.NewMemory()
	}

	if err := repository.RunMigrations(connStr); err != nil {
		logger.Fatal("repository.RunMigrations", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}

	return repository.NewPostgres(pool)
}

func buildPublisher(logger *zap.Logger) port.EventPublisher {
	brokersCSV := os.Getenv("CHECKOUT_KAFKA_BROKERS")
	if brokersCSV == "" {
		return publisher.NewLog(logger)
	}

	return publisher.NewKafka(strings.Split(brokersCSV, ","), "checkout-events")
}

func sweepInterval() time.Duration {
	raw := os.Getenv("CHECKOUT_SWEEP_INTERVAL")
	if raw == "" {
		return 2 * time.Minute
	}

	interval, err := time.ParseDuration(raw)
	if err != nil {
		return 2 * time.Minute
	}

	return interval
}

func mustLineItem(productID uuid.UUID, quantity int64, price domain.Money) domain.LineItem {
	item, err := domain.NewLineItem(productID, quantity, price)
	if err != nil {
		panic(err)
	}
	return item
}

// staticArticleSource serves article data from a fixed table.
type staticArticleSource struct {
	mu       sync.RWMutex
	articles map[uuid.UUID]domain.ArticleData
}

func (s *staticArticleSource) put(article domain.ArticleData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[article.ProductID] = article
}

func (s *staticArticleSource) FetchArticleData(_ context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.ArticleData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[uuid.UUID]domain.ArticleData, len(productIDs))
	for _, id := range productIDs {
		if article, ok := s.articles[id]; ok {
			result[id] = article
		}
	}

	return result, nil
}

// manualClock lets the demo fast-forward past the idle timeout.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

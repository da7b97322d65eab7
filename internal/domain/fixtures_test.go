package domain_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func fakeLineItem() domain.LineItem {
	price := decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2)

	return domain.LineItem{
		ProductID: uuid.New(),
		Quantity:  int64(gofakeit.Number(1, 5)),
		UnitPrice: domain.NewMoney(price, domain.MustMoney("0", "EUR").Currency),
	}
}

func testBuyer(t *testing.T) domain.BuyerInfo {
	t.Helper()

	buyer, err := domain.NewBuyerInfo(gofakeit.Email(), gofakeit.Name(), gofakeit.Phone())
	require.NoError(t, err)
	return buyer
}

func testAddress(t *testing.T) domain.DeliveryAddress {
	t.Helper()

	address, err := domain.NewDeliveryAddress(gofakeit.Street(), "", gofakeit.City(), gofakeit.Zip(), "DE")
	require.NoError(t, err)
	return address
}

func testShipping(t *testing.T, cost string) domain.ShippingOption {
	t.Helper()

	shipping, err := domain.NewShippingOption("standard", "Standard", domain.MustMoney(cost, "EUR"))
	require.NoError(t, err)
	return shipping
}

func testPayment(t *testing.T) domain.PaymentSelection {
	t.Helper()

	payment, err := domain.NewPaymentSelection("acme-pay", "card", gofakeit.UUID())
	require.NoError(t, err)
	return payment
}

// matchingArticles builds resolver data that exactly matches the session's
// captured items, i.e. a clean confirmation.
func matchingArticles(session *domain.CheckoutSession) map[uuid.UUID]domain.ArticleData {
	articles := make(map[uuid.UUID]domain.ArticleData)
	for _, item := range session.Items() {
		articles[item.ProductID] = domain.ArticleData{
			ProductID:      item.ProductID,
			UnitPrice:      item.UnitPrice,
			AvailableStock: item.Quantity + 100,
			Available:      true,
		}
	}
	return articles
}

func startedSession(t *testing.T) *domain.CheckoutSession {
	t.Helper()

	items := []domain.LineItem{fakeLineItem(), fakeLineItem()}

	subtotal, err := domain.SumLineItems(items)
	require.NoError(t, err)

	session, err := domain.StartSession(domain.NewCartID(), "customer-1", items, subtotal, t0)
	require.NoError(t, err)

	return session
}

// sessionAt drives a fresh session to the given step and clears its events.
func sessionAt(t *testing.T, step domain.CheckoutStep) *domain.CheckoutSession {
	t.Helper()

	session := startedSession(t)

	targetRank, ranked := step.Rank()

	advance := func(to domain.CheckoutStep, fn func() error) {
		rank, _ := to.Rank()
		if ranked && targetRank >= rank {
			require.NoError(t, fn())
		}
	}

	if ranked {
		advance(domain.StepBuyerInfo, func() error { return session.SubmitBuyerInfo(testBuyer(t), t0) })
		advance(domain.StepDelivery, func() error {
			return session.SubmitDelivery(testAddress(t), testShipping(t, "5.00"), t0)
		})
		advance(domain.StepPayment, func() error { return session.SubmitPayment(testPayment(t), t0) })
		advance(domain.StepReview, func() error { return session.EnterReview(t0) })
		advance(domain.StepConfirmed, func() error {
			return session.Confirm(matchingArticles(session), domain.ReconcilePolicy{}, t0)
		})
	}

	switch step {
	case domain.StepCompleted:
		session = sessionAt(t, domain.StepConfirmed)
		require.NoError(t, session.Complete(t0))
	case domain.StepAbandoned:
		require.NoError(t, session.Abandon(t0))
	case domain.StepExpired:
		session.Expire(t0.Add(domain.SessionIdleTimeout))
	}

	require.Equal(t, step, session.Step())

	session.DrainEvents()
	return session
}

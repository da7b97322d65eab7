package repository_test

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/nikolayk812/checkout/internal/port"
	"github.com/nikolayk812/checkout/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/goleak"
)

type postgresRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	repo      port.SessionRepository
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestPostgresRepositorySuite(t *testing.T) {
	// Verifies no leaks after all tests in the suite run.
	defer goleak.VerifyNone(t)

	suite.Run(t, new(postgresRepositorySuite))
}

// before all tests in the suite
func (suite *postgresRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = startPostgres(ctx)
	suite.NoError(err)

	suite.NoError(repository.RunMigrations(connStr))

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.NoError(err)

	suite.repo = repository.NewPostgres(suite.pool)
}

// after all tests in the suite
func (suite *postgresRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *postgresRepositorySuite) TestSaveAndFindByID() {
	t := suite.T()
	ctx := t.Context()

	tests := []struct {
		name        string
		sessionFunc func() *domain.CheckoutSession
	}{
		{
			name:        "fresh session: ok",
			sessionFunc: func() *domain.CheckoutSession { return fakeSession(t) },
		},
		{
			name: "session with buyer info: ok",
			sessionFunc: func() *domain.CheckoutSession {
				s := fakeSession(t)
				require.NoError(t, s.SubmitBuyerInfo(fakeBuyer(t), t0.Add(time.Minute)))
				s.DrainEvents()
				return s
			},
		},
		{
			name: "abandoned session: ok",
			sessionFunc: func() *domain.CheckoutSession {
				s := fakeSession(t)
				require.NoError(t, s.Abandon(t0.Add(time.Minute)))
				s.DrainEvents()
				return s
			},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			session := tt.sessionFunc()
			require.NoError(t, suite.repo.Save(ctx, session))

			loaded, err := suite.repo.FindByID(ctx, session.ID())
			require.NoError(t, err)

			assert.Equal(t, int64(1), loaded.Version())
			assertSessionState(t, session.State(), loaded.State())
		})
	}
}

func (suite *postgresRepositorySuite) TestFindByIDNotFound() {
	t := suite.T()

	_, err := suite.repo.FindByID(t.Context(), domain.NewCheckoutSessionID())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func (suite *postgresRepositorySuite) TestSaveDetectsLostUpdate() {
	t := suite.T()
	ctx := t.Context()

	session := fakeSession(t)
	require.NoError(t, suite.repo.Save(ctx, session))

	first, err := suite.repo.FindByID(ctx, session.ID())
	require.NoError(t, err)
	second, err := suite.repo.FindByID(ctx, session.ID())
	require.NoError(t, err)

	require.NoError(t, first.SubmitBuyerInfo(fakeBuyer(t), t0.Add(time.Minute)))
	require.NoError(t, suite.repo.Save(ctx, first))

	require.NoError(t, second.SubmitBuyerInfo(fakeBuyer(t), t0.Add(2*time.Minute)))
	err = suite.repo.Save(ctx, second)
	require.ErrorIs(t, err, domain.ErrConcurrentModification)

	// the winner's data is what persisted
	loaded, err := suite.repo.FindByID(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Version())
	require.NotNil(t, loaded.Buyer())
	assert.Equal(t, first.Buyer().Email, loaded.Buyer().Email)
}

func (suite *postgresRepositorySuite) TestFindByCartID() {
	t := suite.T()
	ctx := t.Context()

	_, err := suite.repo.FindByCartID(ctx, domain.NewCartID())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	cartID := domain.NewCartID()

	older := fakeSessionForCart(t, cartID, t0)
	require.NoError(t, suite.repo.Save(ctx, older))

	newer := fakeSessionForCart(t, cartID, t0.Add(time.Hour))
	require.NoError(t, suite.repo.Save(ctx, newer))

	found, err := suite.repo.FindByCartID(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID(), found.ID())
}

func (suite *postgresRepositorySuite) TestFindExpired() {
	t := suite.T()
	ctx := t.Context()

	// far in the past relative to the other tests' sessions, so only the
	// sessions seeded here fall behind the cutoff
	base := t0.Add(-48 * time.Hour)

	idleOld := fakeSessionForCart(t, domain.NewCartID(), base)
	require.NoError(t, suite.repo.Save(ctx, idleOld))

	idleNewer := fakeSessionForCart(t, domain.NewCartID(), base.Add(time.Minute))
	require.NoError(t, suite.repo.Save(ctx, idleNewer))

	terminal := fakeSessionForCart(t, domain.NewCartID(), base)
	require.NoError(t, terminal.Abandon(base.Add(time.Minute)))
	terminal.DrainEvents()
	require.NoError(t, suite.repo.Save(ctx, terminal))

	expired, err := suite.repo.FindExpired(ctx, base.Add(domain.SessionIdleTimeout+2*time.Minute))
	require.NoError(t, err)

	require.Len(t, expired, 2)
	// oldest first
	assert.Equal(t, idleOld.ID(), expired[0].ID())
	assert.Equal(t, idleNewer.ID(), expired[1].ID())
}

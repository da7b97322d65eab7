package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/nikolayk812/checkout/internal/port"
	"github.com/shopspring/decimal"
)

// postgresRepository stores one row per session: fixed columns for the fields
// queries filter on, the rest of the aggregate as a JSONB payload. The
// version column implements the per-id compare-and-swap.
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) port.SessionRepository {
	return &postgresRepository{pool: pool}
}

// sessionPayload holds the parts of the state without their own column.
type sessionPayload struct {
	Buyer    *domain.BuyerInfo        `json:"buyer,omitempty"`
	Delivery *domain.Delivery         `json:"delivery,omitempty"`
	Payment  *domain.PaymentSelection `json:"payment,omitempty"`
	Items    []domain.LineItem        `json:"items"`
	Totals   domain.CheckoutTotals    `json:"totals"`
	TaxRate  decimal.Decimal          `json:"tax_rate"`
}

const sessionColumns = "id, cart_id, customer_id, current_step, payload, version, created_at, last_activity_at"

func (r *postgresRepository) Save(ctx context.Context, session *domain.CheckoutSession) error {
	st := session.State()

	payload, err := json.Marshal(sessionPayload{
		Buyer:    st.Buyer,
		Delivery: st.Delivery,
		Payment:  st.Payment,
		Items:    st.Items,
		Totals:   st.Totals,
		TaxRate:  st.TaxRate,
	})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	// The WHERE clause makes a lost update surface as zero affected rows:
	// an insert racing an existing row, or an update against a newer
	// version, both fail the CAS.
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO checkout_sessions (id, cart_id, customer_id, current_step, payload, version, created_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET current_step     = EXCLUDED.current_step,
		    payload          = EXCLUDED.payload,
		    version          = EXCLUDED.version,
		    last_activity_at = EXCLUDED.last_activity_at
		WHERE checkout_sessions.version = EXCLUDED.version - 1`,
		st.ID.UUID, st.CartID.UUID, string(st.CustomerID), string(st.Step),
		payload, st.Version+1, st.CreatedAt, st.LastActivityAt)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}

	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM checkout_sessions WHERE id = $1`, id.UUID)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("scanSession: %w", err)
	}

	return session, nil
}

func (r *postgresRepository) FindByCartID(ctx context.Context, cartID domain.CartID) (*domain.CheckoutSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM checkout_sessions
		 WHERE cart_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, cartID.UUID)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("scanSession: %w", err)
	}

	return session, nil
}

func (r *postgresRepository) FindExpired(ctx context.Context, now time.Time) ([]*domain.CheckoutSession, error) {
	cutoff := now.Add(-domain.SessionIdleTimeout)

	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM checkout_sessions
		 WHERE last_activity_at <= $1
		   AND current_step NOT IN ($2, $3, $4)
		 ORDER BY last_activity_at`,
		cutoff, string(domain.StepCompleted), string(domain.StepAbandoned), string(domain.StepExpired))
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.CheckoutSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanSession: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return sessions, nil
}

func scanSession(row pgx.Row) (*domain.CheckoutSession, error) {
	var (
		id             uuid.UUID
		cartID         uuid.UUID
		customerID     string
		currentStep    string
		rawPayload     []byte
		version        int64
		createdAt      time.Time
		lastActivityAt time.Time
	)

	if err := row.Scan(&id, &cartID, &customerID, &currentStep, &rawPayload, &version, &createdAt, &lastActivityAt); err != nil {
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	step, err := domain.ToCheckoutStep(currentStep)
	if err != nil {
		return nil, fmt.Errorf("domain.ToCheckoutStep[%s]: %w", currentStep, err)
	}

	var payload sessionPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	session, err := domain.RestoreSession(domain.SessionState{
		ID:             domain.CheckoutSessionID{UUID: id},
		CartID:         domain.CartID{UUID: cartID},
		CustomerID:     domain.CustomerID(customerID),
		Step:           step,
		Buyer:          payload.Buyer,
		Delivery:       payload.Delivery,
		Payment:        payload.Payment,
		Items:          payload.Items,
		Totals:         payload.Totals,
		TaxRate:        payload.TaxRate,
		CreatedAt:      createdAt,
		LastActivityAt: lastActivityAt,
		Version:        version,
	})
	if err != nil {
		return nil, fmt.Errorf("domain.RestoreSession: %w", err)
	}

	return session, nil
}

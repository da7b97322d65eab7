package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/nikolayk812/checkout/internal/port"
	"github.com/samber/lo"
)

// memoryRepository keeps session states in a mutex-guarded map with the same
// version CAS contract as the Postgres implementation. Used in tests and the
// demo binary.
type memoryRepository struct {
	mu       sync.RWMutex
	sessions map[domain.CheckoutSessionID]domain.SessionState
}

func NewMemory() port.SessionRepository {
	return &memoryRepository{
		sessions: make(map[domain.CheckoutSessionID]domain.SessionState),
	}
}

func (r *memoryRepository) Save(_ context.Context, session *domain.CheckoutSession) error {
	st := session.State()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[st.ID]
	if ok && stored.Version != st.Version {
		return domain.ErrConcurrentModification
	}
	if !ok && st.Version != 0 {
		return domain.ErrConcurrentModification
	}

	st.Version++
	r.sessions[st.ID] = st

	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id domain.CheckoutSessionID) (*domain.CheckoutSession, error) {
	r.mu.RLock()
	st, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	session, err := domain.RestoreSession(st)
	if err != nil {
		return nil, fmt.Errorf("domain.RestoreSession: %w", err)
	}

	return session, nil
}

func (r *memoryRepository) FindByCartID(_ context.Context, cartID domain.CartID) (*domain.CheckoutSession, error) {
	r.mu.RLock()
	states := lo.Filter(lo.Values(r.sessions), func(st domain.SessionState, _ int) bool {
		return st.CartID == cartID
	})
	r.mu.RUnlock()

	if len(states) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	// most recently created wins, matching the Postgres query
	sort.Slice(states, func(i, j int) bool {
		return states[i].CreatedAt.After(states[j].CreatedAt)
	})

	session, err := domain.RestoreSession(states[0])
	if err != nil {
		return nil, fmt.Errorf("domain.RestoreSession: %w", err)
	}

	return session, nil
}

func (r *memoryRepository) FindExpired(_ context.Context, now time.Time) ([]*domain.CheckoutSession, error) {
	cutoff := now.Add(-domain.SessionIdleTimeout)

	r.mu.RLock()
	states := lo.Filter(lo.Values(r.sessions), func(st domain.SessionState, _ int) bool {
		return !st.Step.IsTerminal() && !st.LastActivityAt.After(cutoff)
	})
	r.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		return states[i].LastActivityAt.Before(states[j].LastActivityAt)
	})

	var sessions []*domain.CheckoutSession
	for _, st := range states {
		session, err := domain.RestoreSession(st)
		if err != nil {
			return nil, fmt.Errorf("domain.RestoreSession: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

package memory

import (
	"context"
	"fmt"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PointsRepo implements ports.PointsRepository.
type PointsRepo struct {
	s *Store
}

func NewPointsRepo(s *Store) *PointsRepo { return &PointsRepo{s: s} }

func (r *PointsRepo) GetEvent(ctx context.Context, code string) (*domain.PointsEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.pointsEvents[code]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *PointsRepo) GetAccount(ctx context.Context, userID uuid.UUID) (*domain.PointsAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.pointsAccounts[userID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// GetOrCreateAccountForUpdate locks the user's account for the rest of tx.
// A created account survives rollback, matching INSERT ... ON CONFLICT
// followed by row locking in its own statement.
func (r *PointsRepo) GetOrCreateAccountForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.PointsAccount, error) {
	if mt := asTx(tx); mt != nil {
		if err := mt.lock(ctx, "points_account:"+userID.String()); err != nil {
			return nil, err
		}
	}

	r.s.mu.Lock()
	a, ok := r.s.pointsAccounts[userID]
	if !ok {
		now := time.Now().UTC()
		a = &domain.PointsAccount{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		r.s.pointsAccounts[userID] = a
	}
	cp := *a
	r.s.mu.Unlock()
	return &cp, nil
}

func (r *PointsRepo) UpdateAccountBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.pointsAccounts {
		if a.ID != accountID {
			continue
		}
		prev, prevUpdated := a.Balance, a.UpdatedAt
		a.Balance = balance
		a.UpdatedAt = time.Now().UTC()
		if mt := asTx(tx); mt != nil {
			acc := a
			mt.record(func() {
				acc.Balance = prev
				acc.UpdatedAt = prevUpdated
			})
		}
		return nil
	}
	return fmt.Errorf("points account not found: %s", accountID)
}

// CreateTransaction enforces the unique key and the one-time partial index.
func (r *PointsRepo) CreateTransaction(ctx context.Context, tx pgx.Tx, t *domain.PointsTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pointsKeys[t.IdempotencyKey]; ok {
		return fmt.Errorf("insert points transaction: duplicate idempotency key %q", t.IdempotencyKey)
	}
	if t.OneTime && t.Status == domain.TransactionStatusCompleted {
		for _, existing := range r.s.pointsTxns {
			if existing.OneTime && existing.UserID == t.UserID && existing.EventCode == t.EventCode &&
				existing.Status == domain.TransactionStatusCompleted {
				return fmt.Errorf("insert points transaction: one-time event %s already credited", t.EventCode)
			}
		}
	}

	cp := *t
	r.s.pointsTxns[t.ID] = &cp
	r.s.pointsKeys[t.IdempotencyKey] = t.ID
	r.s.pointsOrder = append(r.s.pointsOrder, t.ID)

	if mt := asTx(tx); mt != nil {
		id, key := t.ID, t.IdempotencyKey
		mt.record(func() {
			delete(r.s.pointsTxns, id)
			delete(r.s.pointsKeys, key)
			r.s.pointsOrder = removeID(r.s.pointsOrder, id)
		})
	}
	return nil
}

func (r *PointsRepo) GetTransactionByKey(ctx context.Context, key string) (*domain.PointsTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.pointsKeys[key]
	if !ok {
		return nil, nil
	}
	cp := *r.s.pointsTxns[id]
	return &cp, nil
}

func (r *PointsRepo) GetCompletedForEvent(ctx context.Context, userID uuid.UUID, eventCode string) (*domain.PointsTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.pointsOrder {
		t := r.s.pointsTxns[id]
		if t.UserID == userID && t.EventCode == eventCode && t.Status == domain.TransactionStatusCompleted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

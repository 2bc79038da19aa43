package memory

import (
	"context"
	"fmt"
	"time"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	s *Store
}

func NewTransactionRepo(s *Store) *TransactionRepo { return &TransactionRepo{s: s} }

func copyTransaction(t *domain.WalletTransaction) *domain.WalletTransaction {
	cp := *t
	if t.Metadata != nil {
		cp.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// Create enforces the unique idempotency key like the postgres index does.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.idempotency[t.IdempotencyKey]; ok && t.IdempotencyKey != "" {
		return fmt.Errorf("insert wallet transaction: duplicate idempotency key %q", t.IdempotencyKey)
	}

	r.s.transactions[t.ID] = copyTransaction(t)
	r.s.txOrder = append(r.s.txOrder, t.ID)
	if t.IdempotencyKey != "" {
		r.s.idempotency[t.IdempotencyKey] = t.ID
	}

	if mt := asTx(tx); mt != nil {
		id, key := t.ID, t.IdempotencyKey
		mt.record(func() {
			delete(r.s.transactions, id)
			delete(r.s.idempotency, key)
			r.s.txOrder = removeID(r.s.txOrder, id)
		})
	}
	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.transactions[id]
	if !ok {
		return nil, nil
	}
	return copyTransaction(t), nil
}

func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WalletTransaction, error) {
	if mt := asTx(tx); mt != nil {
		if err := mt.lock(ctx, "transaction:"+id.String()); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *TransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.WalletTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.idempotency[key]
	if !ok {
		return nil, nil
	}
	return copyTransaction(r.s.transactions[id]), nil
}

func (r *TransactionRepo) GetByProviderRef(ctx context.Context, ref string, txType domain.TransactionType) (*domain.WalletTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.txOrder {
		t := r.s.transactions[id]
		if t.Type == txType && t.ProviderRef != nil && *t.ProviderRef == ref {
			return copyTransaction(t), nil
		}
	}
	return nil, nil
}

func (r *TransactionRepo) Update(ctx context.Context, tx pgx.Tx, id uuid.UUID, upd ports.TransactionUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transactions[id]
	if !ok {
		return fmt.Errorf("wallet transaction not found: %s", id)
	}

	prev := copyTransaction(t)
	now := time.Now().UTC()
	t.UpdatedAt = now
	if upd.Status != nil {
		t.Status = *upd.Status
		if *upd.Status == domain.TransactionStatusCompleted {
			t.CompletedAt = &now
		}
	}
	if upd.TxHash != nil {
		h := *upd.TxHash
		t.TxHash = &h
	}
	if upd.Fee != nil {
		f := *upd.Fee
		t.Fee = &f
	}
	if upd.FailureReason != nil {
		reason := *upd.FailureReason
		t.FailureReason = &reason
	}
	if len(upd.Metadata) > 0 {
		if t.Metadata == nil {
			t.Metadata = make(map[string]string, len(upd.Metadata))
		}
		for k, v := range upd.Metadata {
			t.Metadata[k] = v
		}
	}

	if mt := asTx(tx); mt != nil {
		mt.record(func() { r.s.transactions[id] = prev })
	}
	return nil
}

// List returns newest first, like the postgres ORDER BY created_at DESC.
func (r *TransactionRepo) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.WalletTransaction, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.WalletTransaction
	for i := len(r.s.txOrder) - 1; i >= 0; i-- {
		t := r.s.transactions[r.s.txOrder[i]]
		if t.WalletID != filter.WalletID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Subtype != nil && t.Subtype != *filter.Subtype {
			continue
		}
		matched = append(matched, *copyTransaction(t))
	}

	total := int64(len(matched))
	start := filter.Offset()
	if start >= len(matched) {
		return nil, total, nil
	}
	end := len(matched)
	if filter.PageSize > 0 && start+filter.PageSize < end {
		end = start + filter.PageSize
	}
	return matched[start:end], total, nil
}

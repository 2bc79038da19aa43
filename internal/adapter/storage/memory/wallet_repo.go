package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	s *Store
}

func NewWalletRepo(s *Store) *WalletRepo { return &WalletRepo{s: s} }

func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[w.ID]; ok {
		return fmt.Errorf("insert wallet: duplicate id %s", w.ID)
	}
	for _, existing := range r.s.wallets {
		if existing.UserID == w.UserID && existing.Asset == w.Asset {
			return fmt.Errorf("insert wallet: user %s already holds %s", w.UserID, w.Asset)
		}
	}

	cp := *w
	r.s.wallets[w.ID] = &cp
	if mt := asTx(tx); mt != nil {
		id := w.ID
		mt.record(func() { delete(r.s.wallets, id) })
	}
	return nil
}

func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// GetByIDForUpdate holds the wallet row lock until tx ends.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	if mt := asTx(tx); mt != nil {
		if err := mt.lock(ctx, "wallet:"+id.String()); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *WalletRepo) GetByProviderAccount(ctx context.Context, providerAccountRef, asset string) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.wallets {
		if w.ProviderAccountRef == providerAccountRef && w.Asset == asset {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *WalletRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Wallet
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsVisible != out[j].IsVisible {
			return out[i].IsVisible
		}
		return out[i].Asset < out[j].Asset
	})
	return out, nil
}

func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	if len(balance) > 0 && balance[0] == '-' {
		return fmt.Errorf("update wallet balance: balance must not be negative")
	}

	prev, prevUpdated := w.Balance, w.UpdatedAt
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	if mt := asTx(tx); mt != nil {
		mt.record(func() {
			w.Balance = prev
			w.UpdatedAt = prevUpdated
		})
	}
	return nil
}

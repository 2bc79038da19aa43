package memory

import (
	"context"
	"fmt"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// GasRefillRepo implements ports.GasRefillRepository.
type GasRefillRepo struct {
	s *Store
}

func NewGasRefillRepo(s *Store) *GasRefillRepo { return &GasRefillRepo{s: s} }

func (r *GasRefillRepo) GetByProviderRef(ctx context.Context, ref string) (*domain.GasRefill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.gasRefills[ref]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

// Create reports false when the provider ref is already tracked.
func (r *GasRefillRepo) Create(ctx context.Context, g *domain.GasRefill) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.gasRefills[g.ProviderRef]; ok {
		return false, nil
	}
	cp := *g
	r.s.gasRefills[g.ProviderRef] = &cp
	return true, nil
}

func (r *GasRefillRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GasRefillStatus, txHash *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.gasRefills {
		if g.ID != id {
			continue
		}
		g.Status = status
		if txHash != nil {
			h := *txHash
			g.TxHash = &h
		}
		g.UpdatedAt = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("gas refill not found: %s", id)
}

// VirtualAccountRepo implements ports.VirtualAccountRepository.
type VirtualAccountRepo struct {
	s *Store
}

func NewVirtualAccountRepo(s *Store) *VirtualAccountRepo { return &VirtualAccountRepo{s: s} }

func (r *VirtualAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.VirtualAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.virtualAccts[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *VirtualAccountRepo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if v, ok := r.s.virtualAccts[id]; ok && v.DeletedAt == nil {
		v.DeletedAt = &at
	}
	return nil
}

// RailTransferRepo implements ports.RailTransferRepository.
type RailTransferRepo struct {
	s *Store
}

func NewRailTransferRepo(s *Store) *RailTransferRepo { return &RailTransferRepo{s: s} }

func (r *RailTransferRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.RailTransfer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.railTransfers[jobID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *RailTransferRepo) Create(ctx context.Context, t *domain.RailTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.railTransfers[t.JobID]; ok {
		return fmt.Errorf("insert rail transfer: job %s already tracked", t.JobID)
	}
	cp := *t
	r.s.railTransfers[t.JobID] = &cp
	return nil
}

func (r *RailTransferRepo) Update(ctx context.Context, t *domain.RailTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.railTransfers[t.JobID]
	if !ok || existing.ID != t.ID {
		return fmt.Errorf("rail transfer not found: %s", t.ID)
	}
	cp := *t
	cp.UpdatedAt = time.Now().UTC()
	r.s.railTransfers[t.JobID] = &cp
	return nil
}

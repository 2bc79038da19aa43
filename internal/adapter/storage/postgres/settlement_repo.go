package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GasRefillRepo implements ports.GasRefillRepository.
type GasRefillRepo struct {
	pool Pool
}

// NewGasRefillRepo creates a new GasRefillRepo.
func NewGasRefillRepo(pool Pool) *GasRefillRepo {
	return &GasRefillRepo{pool: pool}
}

func (r *GasRefillRepo) GetByProviderRef(ctx context.Context, ref string) (*domain.GasRefill, error) {
	query := `SELECT id, provider_ref, vault_id, asset, amount, status, tx_hash, created_at, updated_at
		FROM gas_refills WHERE provider_ref = $1`

	g := &domain.GasRefill{}
	err := r.pool.QueryRow(ctx, query, ref).Scan(
		&g.ID, &g.ProviderRef, &g.VaultID, &g.Asset, &g.Amount, &g.Status, &g.TxHash, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get gas refill: %w", err)
	}
	return g, nil
}

// Create inserts a refill. It reports false, without error, when a concurrent
// delivery already inserted the same provider ref.
func (r *GasRefillRepo) Create(ctx context.Context, g *domain.GasRefill) (bool, error) {
	query := `INSERT INTO gas_refills (id, provider_ref, vault_id, asset, amount, status, tx_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (provider_ref) DO NOTHING RETURNING id`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query,
		g.ID, g.ProviderRef, g.VaultID, g.Asset, g.Amount, g.Status, g.TxHash, g.CreatedAt, g.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert gas refill: %w", err)
	}
	return true, nil
}

func (r *GasRefillRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GasRefillStatus, txHash *string) error {
	query := `UPDATE gas_refills SET status = $1, tx_hash = COALESCE($2, tx_hash), updated_at = NOW() WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, txHash, id)
	if err != nil {
		return fmt.Errorf("update gas refill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("gas refill not found: %s", id)
	}
	return nil
}

// VirtualAccountRepo implements ports.VirtualAccountRepository.
type VirtualAccountRepo struct {
	pool Pool
}

// NewVirtualAccountRepo creates a new VirtualAccountRepo.
func NewVirtualAccountRepo(pool Pool) *VirtualAccountRepo {
	return &VirtualAccountRepo{pool: pool}
}

// GetByID returns the account including soft-deleted rows; callers check IsDeleted.
func (r *VirtualAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.VirtualAccount, error) {
	query := `SELECT id, user_id, type, provider, currency, account_number, account_name, bank_code, created_at, deleted_at
		FROM virtual_accounts WHERE id = $1`

	v := &domain.VirtualAccount{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.UserID, &v.Type, &v.Provider, &v.Currency, &v.AccountNumber,
		&v.AccountName, &v.BankCode, &v.CreatedAt, &v.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get virtual account: %w", err)
	}
	return v, nil
}

// SoftDelete marks the account deleted once; repeated calls are no-ops.
func (r *VirtualAccountRepo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE virtual_accounts SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	if _, err := r.pool.Exec(ctx, query, at, id); err != nil {
		return fmt.Errorf("soft delete virtual account: %w", err)
	}
	return nil
}

// RailTransferRepo implements ports.RailTransferRepository.
type RailTransferRepo struct {
	pool Pool
}

// NewRailTransferRepo creates a new RailTransferRepo.
func NewRailTransferRepo(pool Pool) *RailTransferRepo {
	return &RailTransferRepo{pool: pool}
}

func (r *RailTransferRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.RailTransfer, error) {
	query := `SELECT id, job_id, user_id, transaction_id, virtual_account_id, provider, currency, status,
		exchange_ref, exchange_sequence_ref, rail_ref, settlement_address, failure_reason, attempt, created_at, updated_at
		FROM rail_transfers WHERE job_id = $1`

	t := &domain.RailTransfer{}
	err := r.pool.QueryRow(ctx, query, jobID).Scan(
		&t.ID, &t.JobID, &t.UserID, &t.TransactionID, &t.VirtualAccountID, &t.Provider, &t.Currency, &t.Status,
		&t.ExchangeRef, &t.ExchangeSequenceRef, &t.RailRef, &t.SettlementAddress, &t.FailureReason,
		&t.Attempt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rail transfer: %w", err)
	}
	return t, nil
}

func (r *RailTransferRepo) Create(ctx context.Context, t *domain.RailTransfer) error {
	query := `INSERT INTO rail_transfers (id, job_id, user_id, transaction_id, virtual_account_id, provider, currency, status,
		exchange_ref, exchange_sequence_ref, rail_ref, settlement_address, failure_reason, attempt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.JobID, t.UserID, t.TransactionID, t.VirtualAccountID, t.Provider, t.Currency, t.Status,
		t.ExchangeRef, t.ExchangeSequenceRef, t.RailRef, t.SettlementAddress, t.FailureReason,
		t.Attempt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rail transfer: %w", err)
	}
	return nil
}

// Update rewrites the mutable saga columns.
func (r *RailTransferRepo) Update(ctx context.Context, t *domain.RailTransfer) error {
	query := `UPDATE rail_transfers SET transaction_id = $1, provider = $2, status = $3, exchange_ref = $4,
		exchange_sequence_ref = $5, rail_ref = $6, settlement_address = $7, failure_reason = $8, attempt = $9,
		updated_at = NOW() WHERE id = $10`

	tag, err := r.pool.Exec(ctx, query,
		t.TransactionID, t.Provider, t.Status, t.ExchangeRef, t.ExchangeSequenceRef, t.RailRef,
		t.SettlementAddress, t.FailureReason, t.Attempt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update rail transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rail transfer not found: %s", t.ID)
	}
	return nil
}

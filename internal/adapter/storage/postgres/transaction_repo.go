package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, wallet_id, user_id, asset, type, subtype, amount::text, balance_before::text,
		balance_after::text, status, idempotency_key, provider_ref, tx_hash, peer_ref, parent_id, fee::text,
		description, failure_reason, metadata, created_at, updated_at, completed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error {
	meta, err := encodeMetadata(t.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO wallet_transactions (id, wallet_id, user_id, asset, type, subtype, amount, balance_before,
		balance_after, status, idempotency_key, provider_ref, tx_hash, peer_ref, parent_id, fee,
		description, failure_reason, metadata, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err = tx.Exec(ctx, query,
		t.ID, t.WalletID, t.UserID, t.Asset, t.Type, t.Subtype, t.Amount, t.BalanceBefore,
		t.BalanceAfter, t.Status, t.IdempotencyKey, t.ProviderRef, t.TxHash, t.PeerRef, t.ParentID, t.Fee,
		t.Description, t.FailureReason, meta, t.CreatedAt, t.UpdatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate locks the transaction row. This MUST be called within a transaction.
func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = $1 FOR UPDATE`
	return scanTransaction(tx.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey is the authoritative duplicate check.
func (r *TransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE idempotency_key = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, key))
}

// GetByProviderRef returns the oldest transaction of txType carrying ref.
func (r *TransactionRepo) GetByProviderRef(ctx context.Context, ref string, txType domain.TransactionType) (*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions
		WHERE provider_ref = $1 AND type = $2 ORDER BY created_at ASC LIMIT 1`
	return scanTransaction(r.pool.QueryRow(ctx, query, ref, txType))
}

// Update applies the non-nil fields of upd within a database transaction.
func (r *TransactionRepo) Update(ctx context.Context, tx pgx.Tx, id uuid.UUID, upd ports.TransactionUpdate) error {
	sets := []string{"updated_at = NOW()"}
	var args []any
	argIdx := 1

	if upd.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *upd.Status)
		argIdx++
		if *upd.Status == domain.TransactionStatusCompleted {
			sets = append(sets, "completed_at = NOW()")
		}
	}
	if upd.TxHash != nil {
		sets = append(sets, fmt.Sprintf("tx_hash = $%d", argIdx))
		args = append(args, *upd.TxHash)
		argIdx++
	}
	if upd.Fee != nil {
		sets = append(sets, fmt.Sprintf("fee = $%d", argIdx))
		args = append(args, *upd.Fee)
		argIdx++
	}
	if upd.FailureReason != nil {
		sets = append(sets, fmt.Sprintf("failure_reason = $%d", argIdx))
		args = append(args, *upd.FailureReason)
		argIdx++
	}
	if len(upd.Metadata) > 0 {
		meta, err := encodeMetadata(upd.Metadata)
		if err != nil {
			return err
		}
		sets = append(sets, fmt.Sprintf("metadata = metadata || $%d", argIdx))
		args = append(args, meta)
		argIdx++
	}

	query := fmt.Sprintf("UPDATE wallet_transactions SET %s WHERE id = $%d", strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update wallet transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet transaction not found: %s", id)
	}
	return nil
}

// List fetches a wallet's transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.WalletTransaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("wallet_id = $%d", argIdx))
	args = append(args, filter.WalletID)
	argIdx++

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Subtype != nil {
		conditions = append(conditions, fmt.Sprintf("subtype = $%d", argIdx))
		args = append(args, *filter.Subtype)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM wallet_transactions %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallet transactions: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM wallet_transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.WalletTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wallet transaction rows: %w", err)
	}
	return txns, total, nil
}

func scanTransaction(row pgx.Row) (*domain.WalletTransaction, error) {
	t := &domain.WalletTransaction{}
	var meta []byte
	err := row.Scan(
		&t.ID, &t.WalletID, &t.UserID, &t.Asset, &t.Type, &t.Subtype, &t.Amount, &t.BalanceBefore,
		&t.BalanceAfter, &t.Status, &t.IdempotencyKey, &t.ProviderRef, &t.TxHash, &t.PeerRef, &t.ParentID, &t.Fee,
		&t.Description, &t.FailureReason, &meta, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet transaction: %w", err)
	}
	if t.Metadata, err = decodeMetadata(meta); err != nil {
		return nil, err
	}
	return t, nil
}

func encodeMetadata(m map[string]string) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

func decodeMetadata(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

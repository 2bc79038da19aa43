package postgres

import (
	"context"
	"errors"
	"fmt"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const pointsTxColumns = `id, account_id, user_id, event_code, source_ref, one_time, amount, balance_before,
		balance_after, status, idempotency_key, description, metadata, created_at`

// PointsRepo implements ports.PointsRepository.
type PointsRepo struct {
	pool Pool
}

// NewPointsRepo creates a new PointsRepo.
func NewPointsRepo(pool Pool) *PointsRepo {
	return &PointsRepo{pool: pool}
}

// GetEvent fetches a points event definition by code.
func (r *PointsRepo) GetEvent(ctx context.Context, code string) (*domain.PointsEvent, error) {
	query := `SELECT id, code, name, points::text, is_active, one_time_per_user, starts_at, ends_at
		FROM points_events WHERE code = $1`

	e := &domain.PointsEvent{}
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&e.ID, &e.Code, &e.Name, &e.Points, &e.IsActive, &e.OneTimePerUser, &e.StartsAt, &e.EndsAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get points event: %w", err)
	}
	return e, nil
}

// GetAccount fetches a user's points account (without locking).
func (r *PointsRepo) GetAccount(ctx context.Context, userID uuid.UUID) (*domain.PointsAccount, error) {
	query := `SELECT id, user_id, balance, created_at, updated_at FROM points_accounts WHERE user_id = $1`
	return scanPointsAccount(r.pool.QueryRow(ctx, query, userID), "get points account")
}

// GetOrCreateAccountForUpdate creates the account at zero if missing, then locks it.
// This MUST be called within a transaction.
func (r *PointsRepo) GetOrCreateAccountForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.PointsAccount, error) {
	insert := `INSERT INTO points_accounts (id, user_id, balance) VALUES ($1, $2, 0) ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.Exec(ctx, insert, uuid.New(), userID); err != nil {
		return nil, fmt.Errorf("ensure points account: %w", err)
	}

	query := `SELECT id, user_id, balance, created_at, updated_at FROM points_accounts WHERE user_id = $1 FOR UPDATE`
	return scanPointsAccount(tx.QueryRow(ctx, query, userID), "get points account for update")
}

// UpdateAccountBalance writes the points balance within a transaction.
func (r *PointsRepo) UpdateAccountBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance int64) error {
	query := `UPDATE points_accounts SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, accountID)
	if err != nil {
		return fmt.Errorf("update points balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("points account not found: %s", accountID)
	}
	return nil
}

// CreateTransaction inserts a points credit within a transaction.
func (r *PointsRepo) CreateTransaction(ctx context.Context, tx pgx.Tx, t *domain.PointsTransaction) error {
	meta, err := encodeMetadata(t.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO points_transactions (` + pointsTxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, query,
		t.ID, t.AccountID, t.UserID, t.EventCode, t.SourceRef, t.OneTime, t.Amount, t.BalanceBefore,
		t.BalanceAfter, t.Status, t.IdempotencyKey, t.Description, meta, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert points transaction: %w", err)
	}
	return nil
}

// GetTransactionByKey looks a credit up by its (user, event, source) key.
func (r *PointsRepo) GetTransactionByKey(ctx context.Context, key string) (*domain.PointsTransaction, error) {
	query := `SELECT ` + pointsTxColumns + ` FROM points_transactions WHERE idempotency_key = $1`
	return scanPointsTransaction(r.pool.QueryRow(ctx, query, key))
}

// GetCompletedForEvent returns the earliest completed credit of an event for a user.
func (r *PointsRepo) GetCompletedForEvent(ctx context.Context, userID uuid.UUID, eventCode string) (*domain.PointsTransaction, error) {
	query := `SELECT ` + pointsTxColumns + ` FROM points_transactions
		WHERE user_id = $1 AND event_code = $2 AND status = 'completed' ORDER BY created_at ASC LIMIT 1`
	return scanPointsTransaction(r.pool.QueryRow(ctx, query, userID, eventCode))
}

func scanPointsAccount(row pgx.Row, op string) (*domain.PointsAccount, error) {
	a := &domain.PointsAccount{}
	if err := row.Scan(&a.ID, &a.UserID, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func scanPointsTransaction(row pgx.Row) (*domain.PointsTransaction, error) {
	t := &domain.PointsTransaction{}
	var meta []byte
	err := row.Scan(
		&t.ID, &t.AccountID, &t.UserID, &t.EventCode, &t.SourceRef, &t.OneTime, &t.Amount, &t.BalanceBefore,
		&t.BalanceAfter, &t.Status, &t.IdempotencyKey, &t.Description, &meta, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan points transaction: %w", err)
	}
	if t.Metadata, err = decodeMetadata(meta); err != nil {
		return nil, err
	}
	return t, nil
}

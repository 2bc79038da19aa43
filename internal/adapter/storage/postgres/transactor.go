package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ledgerTxOptions is the isolation every wallet and points mutation runs at.
// Balances are re-read under SELECT ... FOR UPDATE, so read committed sees
// the latest committed row once the lock is granted.
var ledgerTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// Transactor implements ports.DBTransactor for ledger writes.
type Transactor struct {
	pool        Pool
	lockTimeout time.Duration
}

// NewTransactor wraps the pool. A positive rowLockTimeout caps how long a
// ledger transaction waits on a wallet or points row lock. It is normally the
// per-wallet Redis lock TTL so a stuck row lock fails the mutation before the
// outer lock expires.
func NewTransactor(pool Pool, rowLockTimeout time.Duration) *Transactor {
	return &Transactor{pool: pool, lockTimeout: rowLockTimeout}
}

// Begin opens a ledger transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.BeginTx(ctx, ledgerTxOptions)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}
	if t.lockTimeout <= 0 {
		return tx, nil
	}

	// SET LOCAL takes no bind parameters.
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
	if _, err := tx.Exec(ctx, stmt); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("set ledger row lock timeout: %w", err)
	}
	return tx, nil
}

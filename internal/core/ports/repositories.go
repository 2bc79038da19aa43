package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByProviderAccount(ctx context.Context, providerAccountRef, asset string) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance string) error
}

// TransactionUpdate lists the mutable columns of a wallet transaction.
// Nil fields are left untouched; Metadata is merged into the stored map.
type TransactionUpdate struct {
	Status        *domain.TransactionStatus
	TxHash        *string
	Fee           *string
	FailureReason *string
	Metadata      map[string]string
}

// TransactionRepository defines persistence operations for wallet transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.WalletTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletTransaction, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WalletTransaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.WalletTransaction, error)
	// GetByProviderRef returns the oldest transaction of the given type carrying ref.
	GetByProviderRef(ctx context.Context, ref string, txType domain.TransactionType) (*domain.WalletTransaction, error)
	Update(ctx context.Context, tx pgx.Tx, id uuid.UUID, upd TransactionUpdate) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.WalletTransaction, int64, error)
}

// PointsRepository defines persistence for the points ledger.
type PointsRepository interface {
	GetEvent(ctx context.Context, code string) (*domain.PointsEvent, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (*domain.PointsAccount, error)
	// GetOrCreateAccountForUpdate locks the user's account row, creating it at zero.
	GetOrCreateAccountForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.PointsAccount, error)
	UpdateAccountBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance int64) error
	CreateTransaction(ctx context.Context, tx pgx.Tx, transaction *domain.PointsTransaction) error
	GetTransactionByKey(ctx context.Context, key string) (*domain.PointsTransaction, error)
	// GetCompletedForEvent returns any completed credit of eventCode for userID.
	GetCompletedForEvent(ctx context.Context, userID uuid.UUID, eventCode string) (*domain.PointsTransaction, error)
}

// GasRefillRepository tracks custody gas-tank top-ups.
type GasRefillRepository interface {
	GetByProviderRef(ctx context.Context, ref string) (*domain.GasRefill, error)
	// Create reports false when the provider ref is already tracked.
	Create(ctx context.Context, refill *domain.GasRefill) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GasRefillStatus, txHash *string) error
}

// VirtualAccountRepository stores fiat settlement accounts.
type VirtualAccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VirtualAccount, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RailTransferRepository stores the saga state of exchange jobs.
type RailTransferRepository interface {
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.RailTransfer, error)
	Create(ctx context.Context, transfer *domain.RailTransfer) error
	Update(ctx context.Context, transfer *domain.RailTransfer) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

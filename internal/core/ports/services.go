package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// --- Infrastructure Ports ---

// LockOptions bounds lock acquisition. fn passed to WithLock must finish well
// within TTL or exclusivity is lost.
type LockOptions struct {
	TTL        time.Duration
	RetryCount int
	RetryDelay time.Duration
}

// Locker runs fn while holding a named lock and releases it on every exit
// path. Exhausted retries return apperror.ErrLockTimeout.
type Locker interface {
	WithLock(ctx context.Context, key string, opts LockOptions, fn func(ctx context.Context) error) error
}

// IdempotencyCache maps a ledger idempotency key to the transaction it
// produced. It is a fast path only; the unique key index decides.
type IdempotencyCache interface {
	Lookup(ctx context.Context, key string) (txID uuid.UUID, found bool, err error)
	Remember(ctx context.Context, key string, txID uuid.UUID, ttl time.Duration) error
}

// ReplayGuard remembers delivered webhook ids.
type ReplayGuard interface {
	// FirstSeen returns true the first time id is presented within ttl.
	FirstSeen(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
	// Forget drops id so a redelivery is accepted again.
	Forget(ctx context.Context, scope, id string) error
}

// BalancePublisher delivers WalletBalanceChanged to observers.
type BalancePublisher interface {
	PublishBalanceChanged(ctx context.Context, event domain.WalletBalanceChanged) error
}

// BalanceSubscriber streams a user's balance changes until cancel is called.
type BalanceSubscriber interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (events <-chan domain.WalletBalanceChanged, cancel func(), err error)
}

// Notifier is fire-and-forget user messaging.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Job is one delivery of a queued payload.
type Job struct {
	ID          string
	Queue       string
	Name        string
	Payload     []byte
	Attempt     int // 1-based
	MaxAttempts int
}

// JobOptions controls retries. Backoff doubles per attempt.
type JobOptions struct {
	Attempts int
	Backoff  time.Duration
	Delay    time.Duration
}

// JobHandler returning nil acknowledges the job; an error schedules a retry.
type JobHandler func(ctx context.Context, job Job) error

// JobQueue is an at-least-once job transport.
type JobQueue interface {
	AddJob(ctx context.Context, queue, name string, payload any, opts JobOptions) (string, error)
	// ProcessJobs blocks until ctx is done.
	ProcessJobs(ctx context.Context, queue, name string, handler JobHandler, concurrency int) error
}

// Queue and job names.
const (
	QueueSettlement         = "settlement"
	JobProviderEvent        = "provider-event"
	QueueExchange           = "exchange"
	JobExchangeSettle       = "settle"
	JobExchangeReconcile    = "reconcile"
	QueueMaintenance        = "maintenance"
	JobDeleteVirtualAccount = "delete-virtual-account"
)

// --- Provider Ports ---

// CustodyWebhookParser verifies and classifies custody webhooks.
type CustodyWebhookParser interface {
	ParseWebhook(payload []byte, signature, timestamp, version string) (*domain.ProviderEvent, error)
}

// ExchangeProvider is the crypto-to-fiat payout provider.
type ExchangeProvider interface {
	GetChannels(ctx context.Context, country string) ([]domain.Channel, error)
	GetBanks(ctx context.Context, country string) ([]domain.Bank, error)
	CreatePayOutRequest(ctx context.Context, req domain.PayOutRequest) (*domain.PayOut, error)
}

// FiatRailProvider moves funds to the payout provider's settlement address.
type FiatRailProvider interface {
	Name() string
	GetWithdrawalQuote(ctx context.Context, asset, amount string) (*domain.WithdrawalQuote, error)
	CreateWithdrawalRequest(ctx context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, error)
	GetTransferDetails(ctx context.Context, ref string) (*domain.TransferDetails, error)
}

// FiatRailRegistry resolves the rail serving a currency.
type FiatRailRegistry interface {
	ForCurrency(currency string) (FiatRailProvider, error)
}

// RateService validates a previously issued quote.
type RateService interface {
	ValidateRate(ctx context.Context, rateID, amount, side string) error
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// --- Service Ports (Business Logic) ---

// DebitRequest takes funds out of a wallet pending external settlement.
type DebitRequest struct {
	WalletID       uuid.UUID
	Amount         string
	Asset          string
	Subtype        domain.TransactionSubtype
	Description    string
	PeerRef        string
	ProviderRef    string
	IdempotencyKey string // optional; generated when empty
	Metadata       map[string]string
}

// CreditRequest adds funds that have already arrived.
type CreditRequest struct {
	WalletID       uuid.UUID
	Amount         string
	Asset          string
	Subtype        domain.TransactionSubtype
	Description    string
	PeerRef        string
	ProviderRef    string
	TxHash         string
	Fee            string
	ParentID       *uuid.UUID
	IdempotencyKey string
	Metadata       map[string]string
}

// RevertRequest compensates a pending debit.
type RevertRequest struct {
	WalletID      uuid.UUID
	Amount        string
	Asset         string
	TransactionID uuid.UUID
	Reason        string
}

// LedgerService is the locked, idempotent wallet mutator.
type LedgerService interface {
	Debit(ctx context.Context, req DebitRequest) (*domain.WalletTransaction, error)
	Credit(ctx context.Context, req CreditRequest) (*domain.WalletTransaction, error)
	// Revert returns the compensating record.
	Revert(ctx context.Context, req RevertRequest) (*domain.WalletTransaction, error)
	// AdvanceTransaction applies a status-only change under the wallet lock.
	AdvanceTransaction(ctx context.Context, walletID, txID uuid.UUID, upd TransactionUpdate) (*domain.WalletTransaction, error)
	CompleteTransaction(ctx context.Context, walletID, txID uuid.UUID, txHash, fee string) (*domain.WalletTransaction, error)
	FailTransaction(ctx context.Context, walletID, txID uuid.UUID, reason string) (*domain.WalletTransaction, error)
	GetBalance(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.WalletTransaction, int64, error)
}

// SettlementService reconciles custody events with the ledger.
type SettlementService interface {
	HandleEvent(ctx context.Context, event *domain.ProviderEvent) error
}

// ExchangeRequest is the validated user input of a crypto-to-fiat exchange.
type ExchangeRequest struct {
	UserID           uuid.UUID
	WalletID         uuid.UUID
	Amount           string
	CountryCode      string
	Currency         string
	RateID           string
	VirtualAccountID uuid.UUID
}

// ExchangeService queues and runs exchange settlements.
type ExchangeService interface {
	RequestExchange(ctx context.Context, req ExchangeRequest) (*domain.ExchangeJob, error)
	HandleJob(ctx context.Context, job domain.ExchangeJob, attempt int) error
	// ReconcileTransfer settles the ledger once the fiat rail reports the
	// job's withdrawal final.
	ReconcileTransfer(ctx context.Context, jobID, walletID uuid.UUID) error
	DeleteVirtualAccount(ctx context.Context, id uuid.UUID) error
}

// CreditPointsRequest awards the points of one event occurrence.
type CreditPointsRequest struct {
	UserID      uuid.UUID
	EventCode   string
	SourceRef   string
	Description string
	Metadata    map[string]string
}

// PointsService is the points-rewards ledger.
type PointsService interface {
	CreditPoints(ctx context.Context, req CreditPointsRequest) (*domain.CreditPointsResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.PointsAccount, error)
}

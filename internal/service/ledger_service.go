package service

import (
	"context"
	"fmt"
	"time"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

const (
	opDebit   = "debit"
	opCredit  = "credit"
	opRevert  = "revert"
	opAdvance = "advance"
)

// LedgerServiceImpl implements ports.LedgerService. Every balance change runs
// under the wallet lock and inside one storage transaction.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	locker     ports.Locker
	idempCache ports.IdempotencyCache
	publisher  ports.BalancePublisher
	notifier   ports.Notifier
	lockOpts   ports.LockOptions
	metrics    *Metrics
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	locker ports.Locker,
	idempCache ports.IdempotencyCache,
	publisher ports.BalancePublisher,
	notifier ports.Notifier,
	lockOpts ports.LockOptions,
	metrics *Metrics,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		locker:     locker,
		idempCache: idempCache,
		publisher:  publisher,
		notifier:   notifier,
		lockOpts:   lockOpts,
		metrics:    metrics,
		log:        log,
	}
}

// mutation is the outcome of one locked ledger step. A duplicate is not
// committed and emits no event.
type mutation struct {
	tx        *domain.WalletTransaction
	event     *domain.WalletBalanceChanged
	duplicate bool
}

type mutateFunc func(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet) (*mutation, error)

// Debit takes funds out of the wallet and leaves the record pending until
// settlement confirms it.
func (s *LedgerServiceImpl) Debit(ctx context.Context, req ports.DebitRequest) (*domain.WalletTransaction, error) {
	if req.IdempotencyKey != "" {
		if existing := s.cachedTransaction(ctx, req.IdempotencyKey, req.WalletID); existing != nil {
			return existing, nil
		}
	}

	key := req.IdempotencyKey
	if key == "" {
		key = "debit:" + uuid.NewString()
	}
	subtype := req.Subtype
	if subtype == "" {
		subtype = domain.SubtypeWithdrawal
	}

	m, err := s.run(ctx, opDebit, req.WalletID, func(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet) (*mutation, error) {
		if dup, err := s.existingForKey(ctx, key, wallet.ID); err != nil || dup != nil {
			return dup, err
		}
		if !wallet.IsActive() {
			return nil, apperror.ErrInvalidRequest("wallet is not active")
		}
		amount, err := parsePositive(wallet, req.Amount, req.Asset)
		if err != nil {
			return nil, err
		}

		before, err := wallet.BalanceAmount()
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		after := before.Sub(amount)
		if after.IsNegative() {
			return nil, apperror.ErrInsufficientBalance()
		}

		txn := newLedgerEntry(wallet, domain.TransactionTypeDebit, subtype, amount, before, after, key)
		txn.Status = domain.TransactionStatusPending
		txn.Description = req.Description
		txn.PeerRef = domain.StrPtr(req.PeerRef)
		txn.ProviderRef = domain.StrPtr(req.ProviderRef)
		txn.Metadata = copyMetadata(req.Metadata)

		return s.apply(ctx, dbTx, wallet, txn, before, after)
	})
	if err != nil {
		return nil, err
	}
	if !m.duplicate {
		s.cacheTransaction(ctx, key, m.tx.ID)
		s.log.Info().
			Str("tx_id", m.tx.ID.String()).
			Str("wallet_id", req.WalletID.String()).
			Str("amount", m.tx.Amount).
			Msg("wallet debited")
	}
	return m.tx, nil
}

// Credit adds funds that have already arrived; the record is completed at once.
func (s *LedgerServiceImpl) Credit(ctx context.Context, req ports.CreditRequest) (*domain.WalletTransaction, error) {
	if req.IdempotencyKey != "" {
		if existing := s.cachedTransaction(ctx, req.IdempotencyKey, req.WalletID); existing != nil {
			return existing, nil
		}
	}

	key := req.IdempotencyKey
	if key == "" {
		key = "credit:" + uuid.NewString()
	}
	subtype := req.Subtype
	if subtype == "" {
		subtype = domain.SubtypeDeposit
	}

	m, err := s.run(ctx, opCredit, req.WalletID, func(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet) (*mutation, error) {
		if dup, err := s.existingForKey(ctx, key, wallet.ID); err != nil || dup != nil {
			return dup, err
		}
		if !wallet.IsActive() {
			return nil, apperror.ErrInvalidRequest("wallet is not active")
		}
		amount, err := parsePositive(wallet, req.Amount, req.Asset)
		if err != nil {
			return nil, err
		}

		before, err := wallet.BalanceAmount()
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		after := before.Add(amount)

		txn := newLedgerEntry(wallet, domain.TransactionTypeCredit, subtype, amount, before, after, key)
		txn.Status = domain.TransactionStatusCompleted
		txn.CompletedAt = &txn.CreatedAt
		txn.Description = req.Description
		txn.PeerRef = domain.StrPtr(req.PeerRef)
		txn.ProviderRef = domain.StrPtr(req.ProviderRef)
		txn.TxHash = domain.StrPtr(req.TxHash)
		txn.Fee = domain.StrPtr(req.Fee)
		txn.ParentID = req.ParentID
		txn.Metadata = copyMetadata(req.Metadata)

		return s.apply(ctx, dbTx, wallet, txn, before, after)
	})
	if err != nil {
		return nil, err
	}
	if m.duplicate {
		return m.tx, nil
	}

	s.cacheTransaction(ctx, key, m.tx.ID)
	s.notify(ctx, domain.Notification{
		UserID: m.tx.UserID,
		Kind:   "wallet.credited",
		Title:  "Funds received",
		Body:   fmt.Sprintf("%s %s has been added to your wallet", m.tx.Amount, m.tx.Asset),
		Metadata: map[string]string{
			"wallet_id":      m.tx.WalletID.String(),
			"transaction_id": m.tx.ID.String(),
		},
	})
	s.log.Info().
		Str("tx_id", m.tx.ID.String()).
		Str("wallet_id", req.WalletID.String()).
		Str("amount", m.tx.Amount).
		Str("subtype", string(subtype)).
		Msg("wallet credited")
	return m.tx, nil
}

// Revert restores a pending debit: the original is failed and a completed
// reversal entry documents the refund. Inactive wallets can still be reverted.
func (s *LedgerServiceImpl) Revert(ctx context.Context, req ports.RevertRequest) (*domain.WalletTransaction, error) {
	key := domain.ReversalIdempotencyKey(req.TransactionID)

	m, err := s.run(ctx, opRevert, req.WalletID, func(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet) (*mutation, error) {
		if dup, err := s.existingForKey(ctx, key, wallet.ID); err != nil || dup != nil {
			return dup, err
		}
		amount, err := parsePositive(wallet, req.Amount, req.Asset)
		if err != nil {
			return nil, err
		}

		original, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, req.TransactionID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
		}
		if original == nil {
			return nil, apperror.ErrNotFound("transaction")
		}
		if original.WalletID != wallet.ID {
			return nil, apperror.ErrInvalidRequest("transaction does not belong to wallet")
		}
		if original.Type != domain.TransactionTypeDebit {
			return nil, apperror.ErrInvalidRequest("only debits can be reverted")
		}
		if original.Status != domain.TransactionStatusPending {
			return nil, apperror.ErrInvalidRequest(fmt.Sprintf("transaction is %s; only pending debits can be reverted", original.Status))
		}
		originalAmount, err := domain.FromPersisted(original.Amount, wallet.Asset, wallet.Decimals)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		if !originalAmount.Equal(amount) {
			return nil, apperror.ErrInvalidRequest(fmt.Sprintf("revert amount %s does not match transaction amount %s",
				amount.ToPersisted(), originalAmount.ToPersisted()))
		}

		before, err := wallet.BalanceAmount()
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		after := before.Add(amount)

		reason := req.Reason
		if reason == "" {
			reason = "reverted"
		}
		failed := domain.TransactionStatusFailed
		if err := s.txRepo.Update(ctx, dbTx, original.ID, ports.TransactionUpdate{
			Status:        &failed,
			FailureReason: &reason,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("fail original: %w", err))
		}

		reversal := newLedgerEntry(wallet, domain.TransactionTypeCredit, domain.SubtypeReversal, amount, before, after, key)
		reversal.Status = domain.TransactionStatusCompleted
		reversal.CompletedAt = &reversal.CreatedAt
		reversal.ParentID = &original.ID
		reversal.Description = "Reversal: " + reason
		reversal.Metadata = map[string]string{domain.MetaReversalOf: original.ID.String()}

		return s.apply(ctx, dbTx, wallet, reversal, before, after)
	})
	if err != nil {
		return nil, err
	}
	if !m.duplicate {
		s.log.Info().
			Str("tx_id", req.TransactionID.String()).
			Str("reversal_id", m.tx.ID.String()).
			Str("reason", req.Reason).
			Msg("debit reverted")
	}
	return m.tx, nil
}

// AdvanceTransaction applies a status or reference change that leaves the
// balance untouched. Repeating an applied change is a no-op.
func (s *LedgerServiceImpl) AdvanceTransaction(ctx context.Context, walletID, txID uuid.UUID, upd ports.TransactionUpdate) (*domain.WalletTransaction, error) {
	m, err := s.run(ctx, opAdvance, walletID, func(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet) (*mutation, error) {
		txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, txID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
		}
		if txn == nil {
			return nil, apperror.ErrNotFound("transaction")
		}
		if txn.WalletID != wallet.ID {
			return nil, apperror.ErrInvalidRequest("transaction does not belong to wallet")
		}

		if upd.Status == nil || *upd.Status == txn.Status {
			if txn.IsTerminal() || !hasChanges(upd) {
				return &mutation{tx: txn, duplicate: true}, nil
			}
			upd.Status = nil
		} else if !txn.CanTransition(*upd.Status) {
			return nil, apperror.ErrInvalidRequest(fmt.Sprintf("cannot move transaction from %s to %s", txn.Status, *upd.Status))
		}

		if err := s.txRepo.Update(ctx, dbTx, txn.ID, upd); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("update transaction: %w", err))
		}
		applyUpdate(txn, upd, time.Now().UTC())
		return &mutation{tx: txn}, nil
	})
	if err != nil {
		return nil, err
	}
	if !m.duplicate {
		s.log.Info().
			Str("tx_id", txID.String()).
			Str("status", string(m.tx.Status)).
			Msg("transaction advanced")
	}
	return m.tx, nil
}

// CompleteTransaction marks a pending or processing transaction completed.
func (s *LedgerServiceImpl) CompleteTransaction(ctx context.Context, walletID, txID uuid.UUID, txHash, fee string) (*domain.WalletTransaction, error) {
	completed := domain.TransactionStatusCompleted
	return s.AdvanceTransaction(ctx, walletID, txID, ports.TransactionUpdate{
		Status: &completed,
		TxHash: domain.StrPtr(txHash),
		Fee:    domain.StrPtr(fee),
	})
}

// FailTransaction marks a transaction failed without touching the balance.
// Compensation is the caller's job.
func (s *LedgerServiceImpl) FailTransaction(ctx context.Context, walletID, txID uuid.UUID, reason string) (*domain.WalletTransaction, error) {
	failed := domain.TransactionStatusFailed
	return s.AdvanceTransaction(ctx, walletID, txID, ports.TransactionUpdate{
		Status:        &failed,
		FailureReason: &reason,
	})
}

// GetBalance reads the wallet without locking.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// ListTransactions returns a page of the wallet's history, newest first.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.WalletTransaction, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	txns, total, err := s.txRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// run executes fn under the wallet lock with the wallet row locked for update.
// Events are published only after commit.
func (s *LedgerServiceImpl) run(ctx context.Context, op string, walletID uuid.UUID, fn mutateFunc) (*mutation, error) {
	start := time.Now()

	var result *mutation
	err := s.locker.WithLock(ctx, domain.WalletLockKey(walletID), s.lockOpts, func(ctx context.Context) error {
		dbTx, err := s.transactor.Begin(ctx)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
		}
		defer dbTx.Rollback(ctx) //nolint:errcheck

		wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, walletID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if wallet == nil {
			return apperror.ErrNotFound("wallet")
		}

		m, err := fn(ctx, dbTx, wallet)
		if err != nil {
			return err
		}
		if !m.duplicate {
			if err := dbTx.Commit(ctx); err != nil {
				return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
			}
		}
		result = m
		return nil
	})

	s.metrics.ObserveMutation(op, mutationStatus(result, err), time.Since(start))
	if err != nil {
		if apperror.Is(err, apperror.CodeLockTimeout) {
			s.metrics.IncLockTimeout()
			s.log.Warn().Str("wallet_id", walletID.String()).Str("op", op).Msg("wallet lock timeout")
		}
		return nil, err
	}

	if result.event != nil {
		if err := s.publisher.PublishBalanceChanged(ctx, *result.event); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("failed to publish balance change")
		}
	}
	return result, nil
}

// apply writes the entry and the new balance in dbTx.
func (s *LedgerServiceImpl) apply(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet, txn *domain.WalletTransaction, before, after domain.AssetAmount) (*mutation, error) {
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, after.ToPersisted()); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	return &mutation{
		tx: txn,
		event: &domain.WalletBalanceChanged{
			UserID:          wallet.UserID,
			WalletID:        wallet.ID,
			Asset:           wallet.Asset,
			PreviousBalance: before.ToPersisted(),
			NewBalance:      after.ToPersisted(),
			TransactionID:   txn.ID,
			OccurredAt:      txn.CreatedAt,
		},
	}, nil
}

// existingForKey is the authoritative duplicate check. A key recorded on
// another wallet is a caller error.
func (s *LedgerServiceImpl) existingForKey(ctx context.Context, key string, walletID uuid.UUID) (*mutation, error) {
	existing, err := s.txRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if existing == nil {
		return nil, nil
	}
	if existing.WalletID != walletID {
		return nil, apperror.ErrInvalidRequest("idempotency key already used on another wallet")
	}
	return &mutation{tx: existing, duplicate: true}, nil
}

// cachedTransaction consults the Redis fast path. Any miss or error falls
// through to the locked path.
func (s *LedgerServiceImpl) cachedTransaction(ctx context.Context, key string, walletID uuid.UUID) *domain.WalletTransaction {
	txID, found, err := s.idempCache.Lookup(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
		return nil
	}
	if !found {
		return nil
	}
	txn, err := s.txRepo.GetByID(ctx, txID)
	if err != nil || txn == nil || txn.WalletID != walletID {
		return nil
	}
	return txn
}

func (s *LedgerServiceImpl) cacheTransaction(ctx context.Context, key string, txID uuid.UUID) {
	if err := s.idempCache.Remember(ctx, key, txID, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

func (s *LedgerServiceImpl) notify(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("user_id", n.UserID.String()).Str("kind", n.Kind).Msg("notification failed")
	}
}

// parsePositive validates raw against the wallet's asset and scale.
func parsePositive(wallet *domain.Wallet, raw, asset string) (domain.AssetAmount, error) {
	if asset != wallet.Asset {
		return domain.AssetAmount{}, apperror.ErrInvalidRequest(fmt.Sprintf("asset %s does not match wallet asset %s", asset, wallet.Asset))
	}
	amount, err := domain.ParseAmount(raw, wallet.Asset, wallet.Decimals)
	if err != nil {
		return domain.AssetAmount{}, apperror.ErrInvalidRequest(err.Error())
	}
	if !amount.IsPositive() {
		return domain.AssetAmount{}, apperror.ErrInvalidRequest("amount must be greater than zero")
	}
	return amount, nil
}

func newLedgerEntry(
	wallet *domain.Wallet,
	txType domain.TransactionType,
	subtype domain.TransactionSubtype,
	amount, before, after domain.AssetAmount,
	key string,
) *domain.WalletTransaction {
	now := time.Now().UTC()
	return &domain.WalletTransaction{
		ID:             uuid.New(),
		WalletID:       wallet.ID,
		UserID:         wallet.UserID,
		Asset:          wallet.Asset,
		Type:           txType,
		Subtype:        subtype,
		Amount:         amount.ToPersisted(),
		BalanceBefore:  before.ToPersisted(),
		BalanceAfter:   after.ToPersisted(),
		IdempotencyKey: key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func hasChanges(upd ports.TransactionUpdate) bool {
	return upd.TxHash != nil || upd.Fee != nil || upd.FailureReason != nil || len(upd.Metadata) > 0
}

func applyUpdate(txn *domain.WalletTransaction, upd ports.TransactionUpdate, now time.Time) {
	if upd.Status != nil {
		txn.Status = *upd.Status
		if txn.Status == domain.TransactionStatusCompleted {
			txn.CompletedAt = &now
		}
	}
	if upd.TxHash != nil {
		txn.TxHash = upd.TxHash
	}
	if upd.Fee != nil {
		txn.Fee = upd.Fee
	}
	if upd.FailureReason != nil {
		txn.FailureReason = upd.FailureReason
	}
	if len(upd.Metadata) > 0 {
		if txn.Metadata == nil {
			txn.Metadata = make(map[string]string, len(upd.Metadata))
		}
		for k, v := range upd.Metadata {
			txn.Metadata[k] = v
		}
	}
	txn.UpdatedAt = now
}

func copyMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mutationStatus(m *mutation, err error) string {
	switch {
	case err == nil && m != nil && m.duplicate:
		return "duplicate"
	case err == nil:
		return "ok"
	case apperror.IsTransient(err):
		return "error"
	default:
		return "rejected"
	}
}

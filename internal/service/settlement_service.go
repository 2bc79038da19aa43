package service

import (
	"context"
	"fmt"
	"time"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Settlement outcomes, used as metric labels.
const (
	outcomeApplied   = "applied"
	outcomeDuplicate = "duplicate"
	outcomeUnmatched = "unmatched"
	outcomeAnomaly   = "anomaly"
	outcomeIgnored   = "ignored"
	outcomeError     = "error"
)

// SettlementServiceImpl implements ports.SettlementService. Lookups are keyed
// by provider reference and an already applied event is a success.
type SettlementServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	gasRepo    ports.GasRefillRepository
	ledger     ports.LedgerService
	metrics    *Metrics
	log        zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	gasRepo ports.GasRefillRepository,
	ledger ports.LedgerService,
	metrics *Metrics,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		gasRepo:    gasRepo,
		ledger:     ledger,
		metrics:    metrics,
		log:        log,
	}
}

// HandleEvent advances local state for one classified custody event.
func (s *SettlementServiceImpl) HandleEvent(ctx context.Context, event *domain.ProviderEvent) error {
	if event == nil {
		return apperror.ErrInvalidRequest("event is required")
	}
	if event.ProviderRef == "" && event.Kind != domain.ProviderEventAccount {
		return apperror.ErrInvalidRequest("event has no provider reference")
	}

	var (
		outcome string
		err     error
	)
	switch event.Kind {
	case domain.ProviderEventBroadcasting:
		outcome, err = s.handleBroadcasting(ctx, event)
	case domain.ProviderEventCompleted:
		outcome, err = s.handleCompleted(ctx, event)
	case domain.ProviderEventFailed:
		outcome, err = s.handleFailed(ctx, event)
	case domain.ProviderEventGasRefill:
		outcome, err = s.handleGasRefill(ctx, event)
	case domain.ProviderEventAccount:
		s.log.Debug().Str("account_id", event.AccountID).Msg("account event received")
		outcome = outcomeIgnored
	default:
		return apperror.ErrInvalidRequest(fmt.Sprintf("unknown event kind %q", event.Kind))
	}

	if err != nil {
		outcome = outcomeError
	}
	s.metrics.IncSettlementEvent(string(event.Kind), outcome)
	return err
}

// handleBroadcasting records the hash; the transaction stays pending.
func (s *SettlementServiceImpl) handleBroadcasting(ctx context.Context, event *domain.ProviderEvent) (string, error) {
	txn, err := s.findDebit(ctx, event.ProviderRef)
	if err != nil {
		return "", err
	}
	if txn == nil {
		s.log.Info().Str("provider_ref", event.ProviderRef).Msg("broadcasting event for unknown transaction")
		return outcomeUnmatched, nil
	}
	if event.TxHash == "" || txn.IsTerminal() {
		return outcomeDuplicate, nil
	}

	if _, err := s.ledger.AdvanceTransaction(ctx, txn.WalletID, txn.ID, ports.TransactionUpdate{
		TxHash: &event.TxHash,
	}); err != nil {
		return "", fmt.Errorf("record broadcast hash: %w", err)
	}
	return outcomeApplied, nil
}

func (s *SettlementServiceImpl) handleCompleted(ctx context.Context, event *domain.ProviderEvent) (string, error) {
	switch {
	case event.IsDeposit():
		return s.handleDeposit(ctx, event)
	case event.Source.IsVault():
		return s.handleOutgoing(ctx, event)
	}

	s.log.Warn().
		Str("provider_ref", event.ProviderRef).
		Str("source_type", string(event.Source.Type)).
		Str("destination_type", string(event.Destination.Type)).
		Msg("completed event is neither a deposit nor from a vault")
	return outcomeAnomaly, nil
}

// handleDeposit credits an external payment into one of our vaults, once.
func (s *SettlementServiceImpl) handleDeposit(ctx context.Context, event *domain.ProviderEvent) (string, error) {
	existing, err := s.txRepo.GetByProviderRef(ctx, event.ProviderRef, domain.TransactionTypeCredit)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("lookup deposit: %w", err))
	}
	if existing != nil {
		return outcomeDuplicate, nil
	}

	wallet, err := s.walletRepo.GetByProviderAccount(ctx, event.Destination.ID, event.Asset)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("lookup deposit wallet: %w", err))
	}
	if wallet == nil {
		s.log.Warn().
			Str("provider_ref", event.ProviderRef).
			Str("vault_id", event.Destination.ID).
			Str("asset", event.Asset).
			Msg("deposit into unknown wallet")
		return outcomeUnmatched, nil
	}

	if _, err := s.ledger.Credit(ctx, ports.CreditRequest{
		WalletID:       wallet.ID,
		Amount:         event.Amount,
		Asset:          event.Asset,
		Subtype:        domain.SubtypeDeposit,
		Description:    "Deposit",
		PeerRef:        event.Source.Address,
		ProviderRef:    event.ProviderRef,
		TxHash:         event.TxHash,
		Fee:            event.Fee,
		IdempotencyKey: domain.DepositIdempotencyKey(event.ProviderRef),
	}); err != nil {
		return "", fmt.Errorf("credit deposit: %w", err)
	}
	return outcomeApplied, nil
}

// handleOutgoing completes a pending debit and, for vault-to-vault
// transfers, credits the receiving wallet.
func (s *SettlementServiceImpl) handleOutgoing(ctx context.Context, event *domain.ProviderEvent) (string, error) {
	txn, err := s.findDebit(ctx, event.ProviderRef)
	if err != nil {
		return "", err
	}
	if txn == nil {
		s.log.Warn().Str("provider_ref", event.ProviderRef).Msg("completed event for unknown transaction")
		return outcomeUnmatched, nil
	}

	outcome := outcomeApplied
	switch txn.Status {
	case domain.TransactionStatusFailed:
		s.log.Warn().
			Str("provider_ref", event.ProviderRef).
			Str("tx_id", txn.ID.String()).
			Msg("completed event for a failed transaction")
		return outcomeAnomaly, nil
	case domain.TransactionStatusCompleted:
		outcome = outcomeDuplicate
	default:
		if _, err := s.ledger.CompleteTransaction(ctx, txn.WalletID, txn.ID, event.TxHash, event.Fee); err != nil {
			return "", fmt.Errorf("complete transaction: %w", err)
		}
	}

	if event.Destination.IsVault() {
		credited, err := s.creditPeer(ctx, event, txn)
		if err != nil {
			return "", err
		}
		if credited {
			outcome = outcomeApplied
		}
	}
	return outcome, nil
}

// creditPeer is idempotent on the transfer-in key, so a redelivered event
// after a crash between the two steps still credits exactly once.
func (s *SettlementServiceImpl) creditPeer(ctx context.Context, event *domain.ProviderEvent, parent *domain.WalletTransaction) (bool, error) {
	key := domain.TransferInIdempotencyKey(event.ProviderRef)
	existing, err := s.txRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("lookup transfer-in: %w", err))
	}
	if existing != nil {
		return false, nil
	}

	peer, err := s.walletRepo.GetByProviderAccount(ctx, event.Destination.ID, parent.Asset)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("lookup peer wallet: %w", err))
	}
	if peer == nil {
		s.log.Warn().
			Str("provider_ref", event.ProviderRef).
			Str("vault_id", event.Destination.ID).
			Msg("transfer to vault without a wallet")
		return false, nil
	}

	parentID := parent.ID
	if _, err := s.ledger.Credit(ctx, ports.CreditRequest{
		WalletID:       peer.ID,
		Amount:         parent.Amount,
		Asset:          parent.Asset,
		Subtype:        domain.SubtypeTransferIn,
		Description:    "Transfer received",
		PeerRef:        parent.WalletID.String(),
		ProviderRef:    event.ProviderRef,
		TxHash:         event.TxHash,
		ParentID:       &parentID,
		IdempotencyKey: key,
	}); err != nil {
		return false, fmt.Errorf("credit transfer-in: %w", err)
	}
	return true, nil
}

// handleFailed marks the debit failed. Compensation belongs to whoever
// issued the debit.
func (s *SettlementServiceImpl) handleFailed(ctx context.Context, event *domain.ProviderEvent) (string, error) {
	txn, err := s.findDebit(ctx, event.ProviderRef)
	if err != nil {
		return "", err
	}
	if txn == nil {
		s.log.Info().Str("provider_ref", event.ProviderRef).Msg("failed event for unknown transaction")
		return outcomeUnmatched, nil
	}
	if txn.IsTerminal() {
		return outcomeDuplicate, nil
	}

	reason := event.FailureReason
	if reason == "" {
		reason = "provider reported failure"
	}
	if _, err := s.ledger.FailTransaction(ctx, txn.WalletID, txn.ID, reason); err != nil {
		return "", fmt.Errorf("fail transaction: %w", err)
	}
	return outcomeApplied, nil
}

// handleGasRefill tracks gas-station top-ups outside the wallet ledger.
func (s *SettlementServiceImpl) handleGasRefill(ctx context.Context, event *domain.ProviderEvent) (string, error) {
	status := event.GasRefillStatus
	if status == "" {
		status = domain.GasRefillPending
	}

	existing, err := s.gasRepo.GetByProviderRef(ctx, event.ProviderRef)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("lookup gas refill: %w", err))
	}

	if existing == nil {
		now := time.Now().UTC()
		created, err := s.gasRepo.Create(ctx, &domain.GasRefill{
			ID:          uuid.New(),
			ProviderRef: event.ProviderRef,
			VaultID:     event.Destination.ID,
			Asset:       event.Asset,
			Amount:      event.Amount,
			Status:      status,
			TxHash:      domain.StrPtr(event.TxHash),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("create gas refill: %w", err))
		}
		if created {
			return outcomeApplied, nil
		}

		// Another delivery inserted it first; apply ours as a transition.
		existing, err = s.gasRepo.GetByProviderRef(ctx, event.ProviderRef)
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("lookup gas refill: %w", err))
		}
		if existing == nil {
			return "", apperror.InternalError(fmt.Errorf("gas refill %s lost after insert conflict", event.ProviderRef))
		}
	}

	if !existing.CanTransition(status) {
		return outcomeDuplicate, nil
	}
	if err := s.gasRepo.UpdateStatus(ctx, existing.ID, status, domain.StrPtr(event.TxHash)); err != nil {
		return "", apperror.InternalError(fmt.Errorf("update gas refill: %w", err))
	}
	return outcomeApplied, nil
}

func (s *SettlementServiceImpl) findDebit(ctx context.Context, ref string) (*domain.WalletTransaction, error) {
	txn, err := s.txRepo.GetByProviderRef(ctx, ref, domain.TransactionTypeDebit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup transaction: %w", err))
	}
	return txn, nil
}

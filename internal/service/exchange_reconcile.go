package service

import (
	"context"
	"fmt"
	"strings"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// railOutcome folds a fiat-rail withdrawal status into the rail transfer
// lifecycle. Unknown statuses count as still in flight.
func railOutcome(status string) domain.RailTransferStatus {
	switch strings.ToLower(status) {
	case "completed", "success", "successful", "settled", "paid":
		return domain.RailTransferCompleted
	case "failed", "rejected", "cancelled", "canceled", "reversed", "expired":
		return domain.RailTransferFailed
	}
	return domain.RailTransferProcessing
}

// ReconcileTransfer polls the fiat rail for a handed-off withdrawal. A final
// status settles the debit: completed closes it, failed closes it and refunds
// the wallet. A withdrawal still in flight is a transient error so the queue
// polls again after its backoff.
func (s *ExchangeServiceImpl) ReconcileTransfer(ctx context.Context, jobID, walletID uuid.UUID) error {
	log := s.log.With().Str("job_id", jobID.String()).Logger()

	transfer, err := s.railRepo.GetByJobID(ctx, jobID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get rail transfer: %w", err))
	}
	if transfer == nil || transfer.RailRef == nil || transfer.TransactionID == nil {
		return apperror.ErrNotFound("handed-off rail transfer")
	}
	if transfer.Status == domain.RailTransferCompleted || transfer.Status == domain.RailTransferFailed {
		return nil
	}

	rail, err := s.rails.ForCurrency(transfer.Currency)
	if err != nil {
		return err
	}
	details, err := rail.GetTransferDetails(ctx, *transfer.RailRef)
	if err != nil {
		return fmt.Errorf("withdrawal details: %w", err)
	}

	log = log.With().Str("rail_ref", *transfer.RailRef).Str("rail_status", details.Status).Logger()

	switch railOutcome(details.Status) {
	case domain.RailTransferCompleted:
		if _, err := s.ledger.CompleteTransaction(ctx, walletID, *transfer.TransactionID, details.TxHash, ""); err != nil {
			return fmt.Errorf("complete exchange debit: %w", err)
		}
		transfer.Status = domain.RailTransferCompleted
		if err := s.railRepo.Update(ctx, transfer); err != nil {
			return apperror.InternalError(fmt.Errorf("mark rail transfer completed: %w", err))
		}
		s.metrics.IncExchangeSaga("completed")
		log.Info().Msg("exchange completed")
		return nil

	case domain.RailTransferFailed:
		reason := "fiat rail withdrawal " + strings.ToLower(details.Status)
		if err := s.refund(ctx, walletID, *transfer.TransactionID, reason); err != nil {
			return err
		}
		transfer.Status = domain.RailTransferFailed
		transfer.FailureReason = &reason
		if err := s.railRepo.Update(ctx, transfer); err != nil {
			return apperror.InternalError(fmt.Errorf("mark rail transfer failed: %w", err))
		}

		va, err := s.vaRepo.GetByID(ctx, transfer.VirtualAccountID)
		if err != nil {
			log.Warn().Err(err).Msg("failed to load virtual account for cleanup")
		} else {
			s.scheduleCleanup(ctx, va)
		}
		s.metrics.IncExchangeSaga("refunded")
		log.Warn().Str("reason", reason).Msg("exchange withdrawal failed, wallet refunded")
		return nil
	}

	return apperror.ErrProvider(rail.Name(), fmt.Errorf("withdrawal %s is still %s", *transfer.RailRef, details.Status))
}

// refund closes a processing debit as failed and credits the amount back.
// Revert only applies to pending debits; the reversal key makes the credit
// single-shot either way.
func (s *ExchangeServiceImpl) refund(ctx context.Context, walletID, txID uuid.UUID, reason string) error {
	debit, err := s.ledger.FailTransaction(ctx, walletID, txID, reason)
	if err != nil {
		return fmt.Errorf("fail exchange debit: %w", err)
	}
	if _, err := s.ledger.Credit(ctx, ports.CreditRequest{
		WalletID:       walletID,
		Amount:         debit.Amount,
		Asset:          debit.Asset,
		Subtype:        domain.SubtypeReversal,
		Description:    "Reversal: " + reason,
		ParentID:       &txID,
		IdempotencyKey: domain.ReversalIdempotencyKey(txID),
		Metadata:       map[string]string{domain.MetaReversalOf: txID.String()},
	}); err != nil {
		return fmt.Errorf("refund exchange debit: %w", err)
	}
	return nil
}

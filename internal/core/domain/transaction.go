package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is the direction of a balance mutation.
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "debit"
	TransactionTypeCredit TransactionType = "credit"
)

// TransactionSubtype says why the balance moved.
type TransactionSubtype string

const (
	SubtypeDeposit     TransactionSubtype = "deposit"
	SubtypeWithdrawal  TransactionSubtype = "withdrawal"
	SubtypeTransferIn  TransactionSubtype = "transfer_in"
	SubtypeTransferOut TransactionSubtype = "transfer_out"
	SubtypeFee         TransactionSubtype = "fee"
	SubtypeReversal    TransactionSubtype = "reversal"
	SubtypeSwap        TransactionSubtype = "swap"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
)

// Metadata keys recorded on transactions handed to external providers.
const (
	MetaExchangeRef         = "exchange_ref"
	MetaExchangeSequenceRef = "exchange_sequence_ref"
	MetaRailProvider        = "rail_provider"
	MetaRailRef             = "rail_ref"
	MetaSettlementAddress   = "settlement_address"
	MetaJobID               = "job_id"
	MetaReversalOf          = "reversal_of"
)

// WalletTransaction is the record of one balance mutation attempt. Amount and
// balances are stored in the wallet's fixed-point form.
type WalletTransaction struct {
	ID             uuid.UUID          `json:"id"`
	WalletID       uuid.UUID          `json:"wallet_id"`
	UserID         uuid.UUID          `json:"user_id"`
	Asset          string             `json:"asset"`
	Type           TransactionType    `json:"type"`
	Subtype        TransactionSubtype `json:"subtype"`
	Amount         string             `json:"amount"`
	BalanceBefore  string             `json:"balance_before"`
	BalanceAfter   string             `json:"balance_after"`
	Status         TransactionStatus  `json:"status"`
	IdempotencyKey string             `json:"idempotency_key"`
	ProviderRef    *string            `json:"provider_ref,omitempty"`
	TxHash         *string            `json:"tx_hash,omitempty"`
	PeerRef        *string            `json:"peer_ref,omitempty"`
	ParentID       *uuid.UUID         `json:"parent_id,omitempty"`
	Fee            *string            `json:"fee,omitempty"`
	Description    string             `json:"description,omitempty"`
	FailureReason  *string            `json:"failure_reason,omitempty"`
	Metadata       map[string]string  `json:"metadata,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *WalletTransaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// CanTransition reports whether status may move to next.
// pending -> processing -> completed|failed, pending -> completed|failed.
func (t *WalletTransaction) CanTransition(next TransactionStatus) bool {
	switch t.Status {
	case TransactionStatusPending:
		return next == TransactionStatusProcessing ||
			next == TransactionStatusCompleted ||
			next == TransactionStatusFailed
	case TransactionStatusProcessing:
		return next == TransactionStatusCompleted || next == TransactionStatusFailed
	}
	return false
}

// TransactionFilter narrows a wallet's history listing.
type TransactionFilter struct {
	WalletID uuid.UUID
	Status   *TransactionStatus
	Subtype  *TransactionSubtype
	Page     int
	PageSize int
}

// Offset returns the row offset for the page.
func (f TransactionFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// StrPtr is a small helper for the optional string columns.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrVal reads an optional string column, empty when unset.
func StrVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

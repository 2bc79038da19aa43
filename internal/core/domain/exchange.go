package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeJob is the immutable queue payload of one crypto-to-fiat settlement.
// Retries replay the same payload.
type ExchangeJob struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	WalletID         uuid.UUID `json:"wallet_id"`
	Asset            string    `json:"asset"`
	Amount           string    `json:"amount"`
	CountryCode      string    `json:"country_code"`
	Currency         string    `json:"currency"`
	RateID           string    `json:"rate_id"`
	VirtualAccountID uuid.UUID `json:"virtual_account_id"`
	RequestedAt      time.Time `json:"requested_at"`
}

// VirtualAccountType distinguishes disposable settlement accounts.
type VirtualAccountType string

const (
	VirtualAccountExchange  VirtualAccountType = "exchange"
	VirtualAccountPermanent VirtualAccountType = "permanent"
)

// VirtualAccount is the bank account receiving fiat for a user.
type VirtualAccount struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	Type          VirtualAccountType `json:"type"`
	Provider      string             `json:"provider"`
	Currency      string             `json:"currency"`
	AccountNumber string             `json:"account_number"`
	AccountName   string             `json:"account_name"`
	BankCode      string             `json:"bank_code"`
	CreatedAt     time.Time          `json:"created_at"`
	DeletedAt     *time.Time         `json:"deleted_at,omitempty"`
}

func (v *VirtualAccount) IsDeleted() bool { return v.DeletedAt != nil }

// IsDisposable reports accounts created for a single exchange.
func (v *VirtualAccount) IsDisposable() bool { return v.Type == VirtualAccountExchange }

// RailTransferStatus mirrors the primary transaction for the fiat leg.
type RailTransferStatus string

const (
	RailTransferPending    RailTransferStatus = "pending"
	RailTransferProcessing RailTransferStatus = "processing"
	RailTransferCompleted  RailTransferStatus = "completed"
	RailTransferFailed     RailTransferStatus = "failed"
)

// RailTransfer is the saga state of one exchange job, unique per job id.
type RailTransfer struct {
	ID                  uuid.UUID          `json:"id"`
	JobID               uuid.UUID          `json:"job_id"`
	UserID              uuid.UUID          `json:"user_id"`
	TransactionID       *uuid.UUID         `json:"transaction_id,omitempty"`
	VirtualAccountID    uuid.UUID          `json:"virtual_account_id"`
	Provider            string             `json:"provider"`
	Currency            string             `json:"currency"`
	Status              RailTransferStatus `json:"status"`
	ExchangeRef         *string            `json:"exchange_ref,omitempty"`
	ExchangeSequenceRef *string            `json:"exchange_sequence_ref,omitempty"`
	RailRef             *string            `json:"rail_ref,omitempty"`
	SettlementAddress   *string            `json:"settlement_address,omitempty"`
	FailureReason       *string            `json:"failure_reason,omitempty"`
	Attempt             int                `json:"attempt"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// IsSettled reports a job that a redelivery must not run again.
func (r *RailTransfer) IsSettled() bool {
	return r.Status == RailTransferProcessing || r.Status == RailTransferCompleted
}

// Channel is a payout provider's withdrawal channel for a country.
type Channel struct {
	ID       string `json:"id"`
	Country  string `json:"country"`
	Type     string `json:"type"`     // withdrawal, deposit
	Status   string `json:"status"`   // active, inactive
	Currency string `json:"currency"`
}

func (c Channel) IsActiveWithdrawal() bool {
	return c.Type == "withdrawal" && c.Status == "active"
}

// Bank is a settlement bank offered by the payout provider.
type Bank struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
}

// PayOutRequest asks the exchange provider for a settlement address.
type PayOutRequest struct {
	Reference     string `json:"reference"`
	ChannelID     string `json:"channel_id"`
	BankID        string `json:"bank_id"`
	Asset         string `json:"asset"`
	Amount        string `json:"amount"`
	Country       string `json:"country"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// PayOut is the exchange provider's answer.
type PayOut struct {
	Ref           string `json:"ref"`
	SequenceRef   string `json:"sequence_ref"`
	WalletAddress string `json:"wallet_address"`
}

// WithdrawalQuote is a fiat-rail fee/amount estimate.
type WithdrawalQuote struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
}

// WithdrawalRequest moves crypto from our vault to the settlement address.
type WithdrawalRequest struct {
	Reference   string `json:"reference"`
	QuoteID     string `json:"quote_id"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	Address     string `json:"address"`
	SourceVault string `json:"source_vault"`
}

// Withdrawal is the fiat-rail acknowledgement.
type Withdrawal struct {
	Ref    string `json:"ref"`
	Status string `json:"status"`
}

// TransferDetails is the fiat-rail view of a past withdrawal.
type TransferDetails struct {
	Ref    string `json:"ref"`
	Status string `json:"status"`
	TxHash string `json:"tx_hash,omitempty"`
}

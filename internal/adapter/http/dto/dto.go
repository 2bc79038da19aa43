package dto

import (
	"time"

	"asset-ledger/internal/core/domain"
)

// CreateExchangeRequest is the request body of POST /api/v1/exchanges.
type CreateExchangeRequest struct {
	WalletID         string `json:"wallet_id" binding:"required,uuid"`
	Amount           string `json:"amount" binding:"required,positive_amount"`
	CountryCode      string `json:"country_code" binding:"required,len=2,alpha"`
	Currency         string `json:"currency" binding:"required,len=3,alpha"`
	RateID           string `json:"rate_id" binding:"required,max=100,safe_id"`
	VirtualAccountID string `json:"virtual_account_id" binding:"required,uuid"`
}

// ExchangeResponse acknowledges a queued exchange.
type ExchangeResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	RequestedAt string `json:"requested_at"`
}

// ListTransactionsQuery is the query string of a wallet history listing.
type ListTransactionsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending processing completed failed"`
	Subtype  string `form:"subtype" binding:"omitempty,oneof=deposit withdrawal transfer_in transfer_out fee reversal swap"`
}

// WalletBalanceResponse is the body of GET /api/v1/wallets/:id/balance.
type WalletBalanceResponse struct {
	WalletID  string `json:"wallet_id"`
	Asset     string `json:"asset"`
	Balance   string `json:"balance"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

// TransactionResponse is one wallet history entry.
type TransactionResponse struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Subtype       string            `json:"subtype"`
	Asset         string            `json:"asset"`
	Amount        string            `json:"amount"`
	BalanceBefore string            `json:"balance_before"`
	BalanceAfter  string            `json:"balance_after"`
	Status        string            `json:"status"`
	Description   string            `json:"description,omitempty"`
	TxHash        *string           `json:"tx_hash,omitempty"`
	Fee           *string           `json:"fee,omitempty"`
	FailureReason *string           `json:"failure_reason,omitempty"`
	ParentID      *string           `json:"parent_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     string            `json:"created_at"`
	CompletedAt   *string           `json:"completed_at,omitempty"`
}

// CreditPointsRequest is the request body of POST /api/v1/points/events/:code.
type CreditPointsRequest struct {
	SourceRef   string            `json:"source_ref" binding:"required,max=200,safe_id"`
	Description string            `json:"description" binding:"max=255"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PointsCreditResponse reports an award, or the earlier award it duplicates.
type PointsCreditResponse struct {
	TransactionID string `json:"transaction_id"`
	EventCode     string `json:"event_code"`
	Amount        int64  `json:"amount"`
	BalanceAfter  int64  `json:"balance_after"`
	IsDuplicate   bool   `json:"is_duplicate"`
}

// PointsBalanceResponse is the body of GET /api/v1/points/balance.
type PointsBalanceResponse struct {
	Balance int64 `json:"balance"`
}

// WebhookAck is returned to the custody provider once an event is queued.
type WebhookAck struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate"`
	Kind      string `json:"kind,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ToWalletBalance maps a wallet onto its balance view.
func ToWalletBalance(w *domain.Wallet) WalletBalanceResponse {
	return WalletBalanceResponse{
		WalletID:  w.ID.String(),
		Asset:     w.Asset,
		Balance:   w.Balance,
		Status:    string(w.Status),
		UpdatedAt: formatTime(w.UpdatedAt),
	}
}

// ToTransaction maps a ledger record onto its history view.
func ToTransaction(tx *domain.WalletTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            tx.ID.String(),
		Type:          string(tx.Type),
		Subtype:       string(tx.Subtype),
		Asset:         tx.Asset,
		Amount:        tx.Amount,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		Status:        string(tx.Status),
		Description:   tx.Description,
		TxHash:        tx.TxHash,
		Fee:           tx.Fee,
		FailureReason: tx.FailureReason,
		Metadata:      tx.Metadata,
		CreatedAt:     formatTime(tx.CreatedAt),
	}
	if tx.ParentID != nil {
		s := tx.ParentID.String()
		resp.ParentID = &s
	}
	if tx.CompletedAt != nil {
		s := formatTime(*tx.CompletedAt)
		resp.CompletedAt = &s
	}
	return resp
}

// ToExchange maps a queued job onto its acknowledgement.
func ToExchange(job *domain.ExchangeJob) ExchangeResponse {
	return ExchangeResponse{
		JobID:       job.ID.String(),
		Status:      "queued",
		Asset:       job.Asset,
		Amount:      job.Amount,
		Currency:    job.Currency,
		RequestedAt: formatTime(job.RequestedAt),
	}
}

// ToPointsCredit maps a credit result onto its response.
func ToPointsCredit(res *domain.CreditPointsResult) PointsCreditResponse {
	tx := res.Transaction
	return PointsCreditResponse{
		TransactionID: tx.ID.String(),
		EventCode:     tx.EventCode,
		Amount:        tx.Amount,
		BalanceAfter:  tx.BalanceAfter,
		IsDuplicate:   res.IsDuplicate,
	}
}

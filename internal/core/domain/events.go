package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletBalanceChanged is emitted after every committed balance mutation.
type WalletBalanceChanged struct {
	UserID          uuid.UUID `json:"userId"`
	WalletID        uuid.UUID `json:"walletId"`
	Asset           string    `json:"asset"`
	PreviousBalance string    `json:"previousBalance"`
	NewBalance      string    `json:"newBalance"`
	TransactionID   uuid.UUID `json:"transactionId"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// Notification is a fire-and-forget user message.
type Notification struct {
	UserID   uuid.UUID         `json:"user_id"`
	Kind     string            `json:"kind"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

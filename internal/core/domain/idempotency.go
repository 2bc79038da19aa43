package domain

import (
	"strconv"

	"github.com/google/uuid"
)

// WalletLockKey is the lock name serialising every mutation of one wallet.
func WalletLockKey(walletID uuid.UUID) string {
	return "wallet:" + walletID.String() + ":ledger"
}

// PointsLockKey scopes the points lock. One-time events lock on (user, event)
// so two different sources cannot both pass the existence check.
func PointsLockKey(userID uuid.UUID, eventCode, sourceRef string, oneTime bool) string {
	if oneTime {
		return "points:" + userID.String() + ":" + eventCode
	}
	return "points:" + userID.String() + ":" + eventCode + ":" + sourceRef
}

// PointsIdempotencyKey is unique per (user, event, source).
func PointsIdempotencyKey(userID uuid.UUID, eventCode, sourceRef string) string {
	return "points:" + userID.String() + ":" + eventCode + ":" + sourceRef
}

// DepositIdempotencyKey keys an implicit deposit by the provider reference.
func DepositIdempotencyKey(providerRef string) string {
	return "deposit:" + providerRef
}

// TransferInIdempotencyKey keys the credit side of a vault-to-vault transfer.
func TransferInIdempotencyKey(providerRef string) string {
	return "transfer-in:" + providerRef
}

// ExchangeDebitIdempotencyKey is unique per saga attempt. A failed attempt
// reverts its own debit, so the next attempt must be able to debit again.
func ExchangeDebitIdempotencyKey(jobID uuid.UUID, attempt int) string {
	return "exchange:" + jobID.String() + ":" + strconv.Itoa(attempt)
}

// ReversalIdempotencyKey keys the compensating entry of a reverted debit.
func ReversalIdempotencyKey(originalID uuid.UUID) string {
	return "reversal:" + originalID.String()
}

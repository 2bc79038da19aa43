package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletStatus is the lifecycle state of a wallet. Wallets are deactivated,
// never deleted.
type WalletStatus string

const (
	WalletStatusActive   WalletStatus = "active"
	WalletStatusInactive WalletStatus = "inactive"
)

// Wallet is an asset-scoped balance owned by exactly one user.
// Balance is only changed by the ledger while the wallet lock is held.
type Wallet struct {
	ID                 uuid.UUID    `json:"id"`
	UserID             uuid.UUID    `json:"user_id"`
	Asset              string       `json:"asset"`
	Decimals           int32        `json:"decimals"`
	Balance            string       `json:"balance"`
	Status             WalletStatus `json:"status"`
	ProviderAccountRef string       `json:"provider_account_ref"` // custody vault id
	IsVisible          bool         `json:"is_visible"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// BalanceAmount returns the persisted balance as an AssetAmount.
func (w *Wallet) BalanceAmount() (AssetAmount, error) {
	return FromPersisted(w.Balance, w.Asset, w.Decimals)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProviderEventKind classifies an inbound custody webhook. The custody adapter
// decides the kind; the reconciler never inspects raw payloads.
type ProviderEventKind string

const (
	ProviderEventBroadcasting ProviderEventKind = "broadcasting"
	ProviderEventCompleted    ProviderEventKind = "completed"
	ProviderEventFailed       ProviderEventKind = "failed"
	ProviderEventGasRefill    ProviderEventKind = "gas_refill"
	ProviderEventAccount      ProviderEventKind = "account"
)

// EndpointType is the custody-side kind of a transfer endpoint.
type EndpointType string

const (
	EndpointVaultAccount   EndpointType = "vault_account"
	EndpointExternal       EndpointType = "external"
	EndpointOneTimeAddress EndpointType = "one_time_address"
	EndpointGasStation     EndpointType = "gas_station"
	EndpointUnknown        EndpointType = "unknown"
)

// Endpoint is one side of a custody transfer.
type Endpoint struct {
	Type    EndpointType `json:"type"`
	ID      string       `json:"id,omitempty"`
	Address string       `json:"address,omitempty"`
}

func (e Endpoint) IsVault() bool { return e.Type == EndpointVaultAccount }

// IsExternal covers every endpoint the custody provider does not hold for us.
func (e Endpoint) IsExternal() bool {
	return e.Type == EndpointExternal || e.Type == EndpointOneTimeAddress
}

// ProviderEvent is a verified, classified custody webhook.
type ProviderEvent struct {
	Kind            ProviderEventKind `json:"kind"`
	ProviderRef     string            `json:"provider_ref"`
	ProviderStatus  string            `json:"provider_status,omitempty"` // raw upstream status, e.g. SUBMITTED
	TxHash          string            `json:"tx_hash,omitempty"`
	Asset           string            `json:"asset,omitempty"`
	Amount          string            `json:"amount,omitempty"`
	Fee             string            `json:"fee,omitempty"`
	Source          Endpoint          `json:"source"`
	Destination     Endpoint          `json:"destination"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	GasRefillStatus GasRefillStatus   `json:"gas_refill_status,omitempty"`
	AccountID       string            `json:"account_id,omitempty"`
	ReceivedAt      time.Time         `json:"received_at"`
}

// IsDeposit reports an external sender paying into one of our vaults.
func (e *ProviderEvent) IsDeposit() bool {
	return e.Source.IsExternal() && e.Destination.IsVault()
}

// GasRefillStatus tracks a custody gas-tank top-up.
type GasRefillStatus string

const (
	GasRefillPending    GasRefillStatus = "pending"
	GasRefillProcessing GasRefillStatus = "processing"
	GasRefillCompleted  GasRefillStatus = "completed"
	GasRefillFailed     GasRefillStatus = "failed"
)

func (s GasRefillStatus) rank() int {
	switch s {
	case GasRefillPending:
		return 0
	case GasRefillProcessing:
		return 1
	case GasRefillCompleted, GasRefillFailed:
		return 2
	}
	return -1
}

// GasRefill is tracked independently of wallet transactions.
type GasRefill struct {
	ID          uuid.UUID       `json:"id"`
	ProviderRef string          `json:"provider_ref"`
	VaultID     string          `json:"vault_id"`
	Asset       string          `json:"asset"`
	Amount      string          `json:"amount"`
	Status      GasRefillStatus `json:"status"`
	TxHash      *string         `json:"tx_hash,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CanTransition never lets a refill regress or leave a terminal state.
func (g *GasRefill) CanTransition(next GasRefillStatus) bool {
	cur, nxt := g.Status.rank(), next.rank()
	if nxt < 0 || cur == 2 {
		return false
	}
	return nxt > cur
}

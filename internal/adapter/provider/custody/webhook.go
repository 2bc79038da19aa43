// Package custody verifies and classifies webhooks from the custody provider.
package custody

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"asset-ledger/internal/core/domain"
	"asset-ledger/pkg/apperror"
)

const defaultMaxDrift = 5 * time.Minute

// WebhookParser implements ports.CustodyWebhookParser.
type WebhookParser struct {
	secret   []byte
	maxDrift time.Duration
	now      func() time.Time
}

func NewWebhookParser(secret string, maxDrift time.Duration) *WebhookParser {
	if maxDrift <= 0 {
		maxDrift = defaultMaxDrift
	}
	return &WebhookParser{secret: []byte(secret), maxDrift: maxDrift, now: time.Now}
}

// Sign returns the hex signature the provider sends for payload.
func Sign(secret, timestamp, version string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write([]byte(version))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook verifies signature and freshness, then decodes the payload
// into a classified event.
func (p *WebhookParser) ParseWebhook(payload []byte, signature, timestamp, version string) (*domain.ProviderEvent, error) {
	if err := p.verify(payload, signature, timestamp, version); err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, apperror.ErrInvalidRequest("malformed webhook payload")
	}
	if len(env.Data) == 0 {
		return nil, apperror.ErrInvalidRequest("webhook has no data")
	}

	event, err := classify(env)
	if err != nil {
		return nil, err
	}
	event.ReceivedAt = p.now().UTC()
	return event, nil
}

func (p *WebhookParser) verify(payload []byte, signature, timestamp, version string) error {
	if signature == "" || timestamp == "" {
		return apperror.ErrInvalidSignature()
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return apperror.ErrInvalidSignature()
	}
	drift := p.now().Sub(time.Unix(ts, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > p.maxDrift {
		return apperror.ErrTimestampExpired()
	}

	expected := Sign(string(p.secret), timestamp, version, payload)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return apperror.ErrInvalidSignature()
	}
	return nil
}

type envelope struct {
	Type      string          `json:"type"`
	CreatedAt int64           `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
}

type peer struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type txData struct {
	ID                 string      `json:"id"`
	Status             string      `json:"status"`
	SubStatus          string      `json:"subStatus"`
	TxHash             string      `json:"txHash"`
	AssetID            string      `json:"assetId"`
	Amount             json.Number `json:"amount"`
	AmountInfo         *amountInfo `json:"amountInfo"`
	NetworkFee         json.Number `json:"networkFee"`
	FeeInfo            *feeInfo    `json:"feeInfo"`
	Source             *peer       `json:"source"`
	Destination        *peer       `json:"destination"`
	SourceAddress      string      `json:"sourceAddress"`
	DestinationAddress string      `json:"destinationAddress"`
	GasTankRefill      *bool       `json:"gasTankRefill"`
}

type amountInfo struct {
	Amount string `json:"amount"`
}

type feeInfo struct {
	NetworkFee string `json:"networkFee"`
}

// classify uses structural checks: a status with a hash or source is a
// transaction, a refill marker or gas-station source is a gas refill, and
// anything else is an account notification.
func classify(env envelope) (*domain.ProviderEvent, error) {
	var data txData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, apperror.ErrInvalidRequest("malformed webhook data")
	}

	isTransaction := data.Status != "" && (data.TxHash != "" || data.Source != nil)
	isGasRefill := (data.GasTankRefill != nil && *data.GasTankRefill) ||
		(data.Source != nil && endpointType(data.Source.Type) == domain.EndpointGasStation)

	switch {
	case isGasRefill:
		if data.ID == "" {
			return nil, apperror.ErrInvalidRequest("gas refill has no id")
		}
		ev := transactionEvent(data)
		ev.Kind = domain.ProviderEventGasRefill
		ev.GasRefillStatus = gasRefillStatus(data.Status)
		return ev, nil
	case isTransaction:
		if data.ID == "" {
			return nil, apperror.ErrInvalidRequest("transaction has no id")
		}
		ev := transactionEvent(data)
		ev.Kind = transactionKind(data.Status)
		if ev.Kind == domain.ProviderEventFailed {
			ev.FailureReason = failureReason(data)
		}
		return ev, nil
	}

	var account struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &account)
	return &domain.ProviderEvent{Kind: domain.ProviderEventAccount, AccountID: account.ID}, nil
}

func transactionEvent(data txData) *domain.ProviderEvent {
	ev := &domain.ProviderEvent{
		ProviderRef:    data.ID,
		ProviderStatus: strings.ToUpper(data.Status),
		TxHash:         data.TxHash,
		Asset:          data.AssetID,
		Amount:         data.Amount.String(),
		Fee:            data.NetworkFee.String(),
		Source:         endpoint(data.Source, data.SourceAddress),
		Destination:    endpoint(data.Destination, data.DestinationAddress),
	}
	if data.AmountInfo != nil && data.AmountInfo.Amount != "" {
		ev.Amount = data.AmountInfo.Amount
	}
	if data.FeeInfo != nil && data.FeeInfo.NetworkFee != "" {
		ev.Fee = data.FeeInfo.NetworkFee
	}
	return ev
}

func endpoint(p *peer, address string) domain.Endpoint {
	if p == nil {
		return domain.Endpoint{Type: domain.EndpointUnknown, Address: address}
	}
	return domain.Endpoint{Type: endpointType(p.Type), ID: p.ID, Address: address}
}

func endpointType(raw string) domain.EndpointType {
	switch strings.ToUpper(raw) {
	case "VAULT_ACCOUNT":
		return domain.EndpointVaultAccount
	case "EXTERNAL_WALLET", "UNKNOWN_PEER":
		return domain.EndpointExternal
	case "ONE_TIME_ADDRESS":
		return domain.EndpointOneTimeAddress
	case "GAS_STATION":
		return domain.EndpointGasStation
	}
	return domain.EndpointUnknown
}

func transactionKind(status string) domain.ProviderEventKind {
	switch strings.ToUpper(status) {
	case "COMPLETED":
		return domain.ProviderEventCompleted
	case "FAILED", "REJECTED", "CANCELLED", "BLOCKED", "TIMEOUT":
		return domain.ProviderEventFailed
	}
	// Submitted, queued, signing, broadcasting and confirming all leave the
	// transaction pending; only a hash is recorded.
	return domain.ProviderEventBroadcasting
}

func gasRefillStatus(status string) domain.GasRefillStatus {
	switch strings.ToUpper(status) {
	case "COMPLETED":
		return domain.GasRefillCompleted
	case "FAILED", "REJECTED", "CANCELLED", "BLOCKED", "TIMEOUT":
		return domain.GasRefillFailed
	case "BROADCASTING", "CONFIRMING":
		return domain.GasRefillProcessing
	}
	return domain.GasRefillPending
}

func failureReason(data txData) string {
	status := strings.ToLower(data.Status)
	if data.SubStatus == "" {
		return status
	}
	return fmt.Sprintf("%s: %s", status, strings.ToLower(data.SubStatus))
}

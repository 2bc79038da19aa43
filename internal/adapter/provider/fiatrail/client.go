// Package fiatrail moves crypto from our vaults to payout settlement
// addresses through a per-currency rail provider.
package fiatrail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"asset-ledger/config"
	"asset-ledger/internal/adapter/provider/restapi"
	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// Client implements ports.FiatRailProvider for one rail.
type Client struct {
	api *restapi.Client
}

func NewClient(opts restapi.Options, log zerolog.Logger) *Client {
	return &Client{api: restapi.New(opts, log)}
}

func (c *Client) Name() string { return c.api.Provider() }

type quoteRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type quoteResponse struct {
	Data struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
		Fee    string `json:"fee"`
	} `json:"data"`
}

func (c *Client) GetWithdrawalQuote(ctx context.Context, asset, amount string) (*domain.WithdrawalQuote, error) {
	var resp quoteResponse
	if err := c.api.Post(ctx, "/v1/withdrawals/quotes", quoteRequest{Asset: asset, Amount: amount}, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, apperror.ErrProvider(c.Name(), errors.New("quote response has no id"))
	}
	return &domain.WithdrawalQuote{ID: resp.Data.ID, Amount: resp.Data.Amount, Fee: resp.Data.Fee}, nil
}

type withdrawalRequest struct {
	Reference   string `json:"reference"`
	QuoteID     string `json:"quoteId"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	Address     string `json:"address"`
	SourceVault string `json:"sourceVault"`
}

type withdrawalResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

func (c *Client) CreateWithdrawalRequest(ctx context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, error) {
	var resp withdrawalResponse
	if err := c.api.Post(ctx, "/v1/withdrawals", withdrawalRequest(req), &resp); err != nil {
		return nil, err
	}
	return &domain.Withdrawal{Ref: resp.Data.ID, Status: strings.ToLower(resp.Data.Status)}, nil
}

type transferResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		TxHash string `json:"txHash"`
	} `json:"data"`
}

func (c *Client) GetTransferDetails(ctx context.Context, ref string) (*domain.TransferDetails, error) {
	var resp transferResponse
	if err := c.api.Get(ctx, "/v1/withdrawals/"+ref, nil, &resp); err != nil {
		return nil, err
	}
	return &domain.TransferDetails{
		Ref:    resp.Data.ID,
		Status: strings.ToLower(resp.Data.Status),
		TxHash: resp.Data.TxHash,
	}, nil
}

// Registry implements ports.FiatRailRegistry keyed by lowercased currency.
type Registry struct {
	rails map[string]ports.FiatRailProvider
}

func NewRegistry() *Registry {
	return &Registry{rails: make(map[string]ports.FiatRailProvider)}
}

// NewRegistryFromConfig builds one client per configured currency.
func NewRegistryFromConfig(cfg config.ProvidersConfig, log zerolog.Logger) *Registry {
	r := NewRegistry()
	for currency, rail := range cfg.FiatRails {
		r.Register(currency, NewClient(restapi.Options{
			Provider: rail.Provider,
			BaseURL:  rail.BaseURL,
			APIKey:   rail.APIKey,
			Timeout:  cfg.Timeout,
		}, log))
	}
	return r
}

func (r *Registry) Register(currency string, rail ports.FiatRailProvider) {
	r.rails[strings.ToLower(currency)] = rail
}

// ForCurrency fails permanently for a currency without a rail.
func (r *Registry) ForCurrency(currency string) (ports.FiatRailProvider, error) {
	rail, ok := r.rails[strings.ToLower(currency)]
	if !ok {
		return nil, apperror.ErrProviderPermanent("fiat rail", fmt.Errorf("unsupported currency %s", currency))
	}
	return rail, nil
}

// Package exchange is the HTTP client of the crypto-to-fiat payout provider.
package exchange

import (
	"context"
	"strings"

	"asset-ledger/internal/adapter/provider/restapi"
	"asset-ledger/internal/core/domain"

	"github.com/rs/zerolog"
)

// Client implements ports.ExchangeProvider.
type Client struct {
	api *restapi.Client
}

func NewClient(opts restapi.Options, log zerolog.Logger) *Client {
	if opts.Provider == "" {
		opts.Provider = "exchange"
	}
	return &Client{api: restapi.New(opts, log)}
}

type channelsResponse struct {
	Channels []struct {
		ID          string `json:"id"`
		Country     string `json:"country"`
		ChannelType string `json:"channelType"`
		Status      string `json:"status"`
		Currency    string `json:"currency"`
	} `json:"channels"`
}

func (c *Client) GetChannels(ctx context.Context, country string) ([]domain.Channel, error) {
	var resp channelsResponse
	if err := c.api.Get(ctx, "/v1/channels", map[string]string{"country": strings.ToUpper(country)}, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Channel, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		out = append(out, domain.Channel{
			ID:       ch.ID,
			Country:  ch.Country,
			Type:     strings.ToLower(ch.ChannelType),
			Status:   strings.ToLower(ch.Status),
			Currency: strings.ToUpper(ch.Currency),
		})
	}
	return out, nil
}

type banksResponse struct {
	Networks []struct {
		ID         string   `json:"id"`
		Code       string   `json:"code"`
		Name       string   `json:"name"`
		ChannelIDs []string `json:"channelIds"`
	} `json:"networks"`
}

// GetBanks flattens banks served by several channels into one entry per
// channel.
func (c *Client) GetBanks(ctx context.Context, country string) ([]domain.Bank, error) {
	var resp banksResponse
	if err := c.api.Get(ctx, "/v1/networks", map[string]string{"country": strings.ToUpper(country)}, &resp); err != nil {
		return nil, err
	}
	var out []domain.Bank
	for _, n := range resp.Networks {
		if len(n.ChannelIDs) == 0 {
			out = append(out, domain.Bank{ID: n.ID, Code: n.Code, Name: n.Name})
			continue
		}
		for _, ch := range n.ChannelIDs {
			out = append(out, domain.Bank{ID: n.ID, Code: n.Code, Name: n.Name, ChannelID: ch})
		}
	}
	return out, nil
}

type payOutRequest struct {
	SequenceID  string      `json:"sequenceId"`
	ChannelID   string      `json:"channelId"`
	Currency    string      `json:"currency"`
	Country     string      `json:"country"`
	Amount      string      `json:"amount"`
	ForceAccept bool        `json:"forceAccept"`
	Destination destination `json:"destination"`
}

type destination struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	AccountType   string `json:"accountType"`
	NetworkID     string `json:"networkId"`
}

type payOutResponse struct {
	ID         string `json:"id"`
	SequenceID string `json:"sequenceId"`
	CryptoInfo struct {
		WalletAddress string `json:"walletAddress"`
	} `json:"cryptoInfo"`
}

// CreatePayOutRequest asks for the address that the crypto leg must pay.
func (c *Client) CreatePayOutRequest(ctx context.Context, req domain.PayOutRequest) (*domain.PayOut, error) {
	body := payOutRequest{
		SequenceID:  req.Reference,
		ChannelID:   req.ChannelID,
		Currency:    req.Asset,
		Country:     req.Country,
		Amount:      req.Amount,
		ForceAccept: true,
		Destination: destination{
			AccountName:   req.AccountName,
			AccountNumber: req.AccountNumber,
			AccountType:   "bank",
			NetworkID:     req.BankID,
		},
	}
	var resp payOutResponse
	if err := c.api.Post(ctx, "/v1/payments", body, &resp); err != nil {
		return nil, err
	}
	return &domain.PayOut{
		Ref:           resp.ID,
		SequenceRef:   resp.SequenceID,
		WalletAddress: resp.CryptoInfo.WalletAddress,
	}, nil
}

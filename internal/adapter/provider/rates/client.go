// Package rates validates quotes issued by the rate service.
package rates

import (
	"context"
	"errors"
	"fmt"

	"asset-ledger/internal/adapter/provider/restapi"
	"asset-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// Client implements ports.RateService.
type Client struct {
	api *restapi.Client
}

func NewClient(opts restapi.Options, log zerolog.Logger) *Client {
	if opts.Provider == "" {
		opts.Provider = "rates"
	}
	return &Client{api: restapi.New(opts, log)}
}

type validateRequest struct {
	RateID string `json:"rateId"`
	Amount string `json:"amount"`
	Side   string `json:"side"`
}

type validateResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// ValidateRate fails when the quote is stale or the amount exceeds its
// tolerance. A refusal is transient: the user may be re-quoted and the job
// retried.
func (c *Client) ValidateRate(ctx context.Context, rateID, amount, side string) error {
	var resp validateResponse
	if err := c.api.Post(ctx, "/v1/rates/validate", validateRequest{RateID: rateID, Amount: amount, Side: side}, &resp); err != nil {
		return err
	}
	if resp.Valid {
		return nil
	}
	reason := resp.Reason
	if reason == "" {
		reason = "rate no longer valid"
	}
	return apperror.ErrProvider(c.api.Provider(), fmt.Errorf("rate %s: %w", rateID, errors.New(reason)))
}

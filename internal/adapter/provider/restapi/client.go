// Package restapi holds the resty plumbing shared by the provider clients.
package restapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"asset-ledger/pkg/apperror"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// Options configures one provider connection.
type Options struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// Client is a named resty client. Retries are left to the caller's job queue.
type Client struct {
	provider string
	http     *resty.Client
	log      zerolog.Logger
}

func New(opts Options, log zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		c.SetAuthToken(opts.APIKey)
	}
	return &Client{
		provider: opts.Provider,
		http:     c,
		log:      log.With().Str("provider", opts.Provider).Logger(),
	}
}

func (c *Client) Provider() string { return c.provider }

// errorBody covers the error shapes the providers return.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func (e errorBody) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	}
	return e.Code
}

// Get decodes the response of GET path into result.
func (c *Client) Get(ctx context.Context, path string, query map[string]string, result any) error {
	req := c.request(ctx, result)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	return c.check(req.Get(path))
}

// Post sends body as JSON and decodes the response into result.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.check(c.request(ctx, result).SetBody(body).Post(path))
}

func (c *Client) request(ctx context.Context, result any) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if result != nil {
		req.SetResult(result)
	}
	return req
}

// check maps transport and HTTP failures onto provider errors. Rejected
// credentials are permanent; everything else is left for the saga to
// classify.
func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.log.Warn().Err(err).Msg("provider request failed")
		return apperror.ErrProvider(c.provider, err)
	}
	if !resp.IsError() {
		return nil
	}

	msg := http.StatusText(resp.StatusCode())
	if body, ok := resp.Error().(*errorBody); ok && body.text() != "" {
		msg = body.text()
	}
	cause := fmt.Errorf("%s %s: %d %s", resp.Request.Method, resp.Request.URL, resp.StatusCode(), msg)

	c.log.Warn().
		Int("status", resp.StatusCode()).
		Str("method", resp.Request.Method).
		Str("url", resp.Request.URL).
		Msg("provider returned error")

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperror.ErrProviderPermanent(c.provider, fmt.Errorf("invalid configuration: %w", cause))
	}
	return apperror.ErrProvider(c.provider, cause)
}

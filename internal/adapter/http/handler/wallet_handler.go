package handler

import (
	"time"

	"asset-ledger/internal/adapter/http/dto"
	"asset-ledger/internal/adapter/http/middleware"
	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"
	"asset-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	sseHeartbeat    = 25 * time.Second
)

// WalletHandler serves a user's balances, history and live balance stream.
type WalletHandler struct {
	ledger ports.LedgerService
	events ports.BalanceSubscriber
	log    zerolog.Logger
}

func NewWalletHandler(ledger ports.LedgerService, events ports.BalanceSubscriber, log zerolog.Logger) *WalletHandler {
	return &WalletHandler{ledger: ledger, events: events, log: log}
}

// ownedWallet loads the wallet in the :id path param. Other users' wallets
// are reported as not found.
func (h *WalletHandler) ownedWallet(c *gin.Context) (*domain.Wallet, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return nil, false
	}
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidRequest("invalid wallet id"))
		return nil, false
	}

	wallet, err := h.ledger.GetBalance(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if wallet.UserID != userID {
		response.Error(c, apperror.ErrNotFound("wallet"))
		return nil, false
	}
	return wallet, true
}

// GetBalance handles GET /api/v1/wallets/:id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	wallet, ok := h.ownedWallet(c)
	if !ok {
		return
	}
	response.OK(c, dto.ToWalletBalance(wallet))
}

// ListTransactions handles GET /api/v1/wallets/:id/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	var q dto.ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.ErrInvalidRequest(err.Error()))
		return
	}
	wallet, ok := h.ownedWallet(c)
	if !ok {
		return
	}

	if q.Page == 0 {
		q.Page = defaultPage
	}
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}
	filter := domain.TransactionFilter{WalletID: wallet.ID, Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		s := domain.TransactionStatus(q.Status)
		filter.Status = &s
	}
	if q.Subtype != "" {
		s := domain.TransactionSubtype(q.Subtype)
		filter.Subtype = &s
	}

	txns, total, err := h.ledger.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.ToTransaction(&txns[i]))
	}
	response.Page(c, items, q.Page, q.PageSize, total)
}

// Events handles GET /api/v1/wallets/events as a server-sent event stream of
// the caller's balance changes.
func (h *WalletHandler) Events(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	ctx := c.Request.Context()
	events, cancel, err := h.events.Subscribe(ctx, userID)
	if err != nil {
		h.log.Warn().Err(err).Msg("balance subscription failed")
		response.Error(c, apperror.ErrUnavailable(err))
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			c.SSEvent("balance", ev)
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
		}
		c.Writer.Flush()
	}
}

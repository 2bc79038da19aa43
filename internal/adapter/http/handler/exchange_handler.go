package handler

import (
	"asset-ledger/internal/adapter/http/dto"
	"asset-ledger/internal/adapter/http/middleware"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"
	"asset-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExchangeHandler queues crypto-to-fiat exchanges.
type ExchangeHandler struct {
	svc ports.ExchangeService
}

func NewExchangeHandler(svc ports.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{svc: svc}
}

// Create handles POST /api/v1/exchanges. The exchange runs asynchronously;
// the response carries the job id only.
func (h *ExchangeHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	var req dto.CreateExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidRequest(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	job, err := h.svc.RequestExchange(c.Request.Context(), ports.ExchangeRequest{
		UserID:           userID,
		WalletID:         uuid.MustParse(req.WalletID),
		Amount:           req.Amount,
		CountryCode:      req.CountryCode,
		Currency:         req.Currency,
		RateID:           req.RateID,
		VirtualAccountID: uuid.MustParse(req.VirtualAccountID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, dto.ToExchange(job))
}

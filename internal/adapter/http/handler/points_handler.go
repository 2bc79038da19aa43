package handler

import (
	"asset-ledger/internal/adapter/http/dto"
	"asset-ledger/internal/adapter/http/middleware"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"
	"asset-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type PointsHandler struct {
	svc ports.PointsService
}

func NewPointsHandler(svc ports.PointsService) *PointsHandler {
	return &PointsHandler{svc: svc}
}

// GetBalance handles GET /api/v1/points/balance.
func (h *PointsHandler) GetBalance(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	account, err := h.svc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.PointsBalanceResponse{Balance: account.Balance})
}

// Credit handles POST /api/v1/points/events/:code. A repeated source is
// answered with the original award.
func (h *PointsHandler) Credit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	var req dto.CreditPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidRequest(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	res, err := h.svc.CreditPoints(c.Request.Context(), ports.CreditPointsRequest{
		UserID:      userID,
		EventCode:   c.Param("code"),
		SourceRef:   req.SourceRef,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToPointsCredit(res))
}

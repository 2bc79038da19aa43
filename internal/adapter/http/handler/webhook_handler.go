package handler

import (
	"context"
	"io"
	"strings"
	"time"

	"asset-ledger/internal/adapter/http/dto"
	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"
	"asset-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	HeaderCustodySignature = "X-Custody-Signature"
	HeaderCustodyTimestamp = "X-Custody-Timestamp"
	HeaderCustodyVersion   = "X-Custody-Version"

	replayScopeCustody = "custody"
)

// WebhookHandler accepts custody callbacks and hands them to the settlement
// queue. Processing happens in the worker.
type WebhookHandler struct {
	parser    ports.CustodyWebhookParser
	replay    ports.ReplayGuard
	queue     ports.JobQueue
	replayTTL time.Duration
	jobOpts   ports.JobOptions
	log       zerolog.Logger
}

func NewWebhookHandler(
	parser ports.CustodyWebhookParser,
	replay ports.ReplayGuard,
	queue ports.JobQueue,
	replayTTL time.Duration,
	jobOpts ports.JobOptions,
	log zerolog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		parser:    parser,
		replay:    replay,
		queue:     queue,
		replayTTL: replayTTL,
		jobOpts:   jobOpts,
		log:       log.With().Str("component", "custody_webhook").Logger(),
	}
}

// Custody handles POST /webhooks/custody.
func (h *WebhookHandler) Custody(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.ErrInvalidRequest("cannot read request body"))
		return
	}

	event, err := h.parser.ParseWebhook(body,
		c.GetHeader(HeaderCustodySignature),
		c.GetHeader(HeaderCustodyTimestamp),
		c.GetHeader(HeaderCustodyVersion),
	)
	if err != nil {
		h.log.Warn().Err(err).Msg("custody webhook rejected")
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	id := deliveryID(event)
	if h.replay != nil {
		first, err := h.replay.FirstSeen(ctx, replayScopeCustody, id, h.replayTTL)
		switch {
		case err != nil:
			h.log.Warn().Err(err).Msg("replay guard unavailable, accepting delivery")
		case !first:
			response.OK(c, dto.WebhookAck{Received: true, Duplicate: true, Kind: string(event.Kind)})
			return
		}
	}

	if _, err := h.queue.AddJob(ctx, ports.QueueSettlement, ports.JobProviderEvent, event, h.jobOpts); err != nil {
		h.log.Error().Err(err).Str("provider_ref", event.ProviderRef).Msg("failed to queue custody event")
		// The provider redelivers on 503; that delivery must not look like a replay.
		if h.replay != nil {
			if fErr := h.replay.Forget(context.WithoutCancel(ctx), replayScopeCustody, id); fErr != nil {
				h.log.Warn().Err(fErr).Str("delivery_id", id).Msg("failed to forget custody delivery")
			}
		}
		response.Error(c, apperror.ErrUnavailable(err))
		return
	}

	response.OK(c, dto.WebhookAck{Received: true, Kind: string(event.Kind)})
}

// deliveryID identifies one observed state of one custody object: its kind,
// reference, raw provider status and hash. A transfer going from SUBMITTED to
// BROADCASTING with a hash to COMPLETED yields three distinct ids, while a
// verbatim redelivery of any of them collapses onto the first.
func deliveryID(e *domain.ProviderEvent) string {
	ref := e.ProviderRef
	if ref == "" {
		ref = e.AccountID
	}
	parts := []string{string(e.Kind), ref}
	for _, p := range []string{e.ProviderStatus, string(e.GasRefillStatus), e.TxHash} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}

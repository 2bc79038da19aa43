package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// pointsAsset is the pseudo-asset used to parse event point values.
const pointsAsset = "POINTS"

// PointsServiceImpl implements ports.PointsService.
type PointsServiceImpl struct {
	pointsRepo ports.PointsRepository
	transactor ports.DBTransactor
	locker     ports.Locker
	notifier   ports.Notifier
	lockOpts   ports.LockOptions
	metrics    *Metrics
	log        zerolog.Logger
}

// NewPointsService creates a new PointsServiceImpl.
func NewPointsService(
	pointsRepo ports.PointsRepository,
	transactor ports.DBTransactor,
	locker ports.Locker,
	notifier ports.Notifier,
	lockOpts ports.LockOptions,
	metrics *Metrics,
	log zerolog.Logger,
) *PointsServiceImpl {
	return &PointsServiceImpl{
		pointsRepo: pointsRepo,
		transactor: transactor,
		locker:     locker,
		notifier:   notifier,
		lockOpts:   lockOpts,
		metrics:    metrics,
		log:        log,
	}
}

// CreditPoints awards an event to a user at most once per source, and at most
// once overall for one-time events.
func (s *PointsServiceImpl) CreditPoints(ctx context.Context, req ports.CreditPointsRequest) (*domain.CreditPointsResult, error) {
	if err := validatePointsRequest(req); err != nil {
		s.metrics.IncPointsCredit("rejected")
		return nil, err
	}

	event, err := s.pointsRepo.GetEvent(ctx, req.EventCode)
	if err != nil {
		s.metrics.IncPointsCredit("error")
		return nil, apperror.InternalError(fmt.Errorf("get points event: %w", err))
	}
	if event == nil {
		s.metrics.IncPointsCredit("rejected")
		return nil, apperror.ErrEventInvalid(apperror.EventNotFound)
	}

	var result *domain.CreditPointsResult
	lockKey := domain.PointsLockKey(req.UserID, event.Code, req.SourceRef, event.OneTimePerUser)
	err = s.locker.WithLock(ctx, lockKey, s.lockOpts, func(ctx context.Context) error {
		var err error
		result, err = s.creditLocked(ctx, req, event)
		return err
	})
	if err != nil {
		if apperror.Is(err, apperror.CodeLockTimeout) {
			s.metrics.IncLockTimeout()
		}
		s.metrics.IncPointsCredit(mutationStatus(nil, err))
		return nil, err
	}

	if result.IsDuplicate {
		s.metrics.IncPointsCredit("duplicate")
		return result, nil
	}

	s.metrics.IncPointsCredit("ok")
	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("event", event.Code).
		Str("source_ref", req.SourceRef).
		Int64("points", result.Transaction.Amount).
		Msg("points credited")

	if err := s.notifier.Notify(ctx, domain.Notification{
		UserID: req.UserID,
		Kind:   "points.credited",
		Title:  "Points earned",
		Body:   fmt.Sprintf("You earned %d points for %s", result.Transaction.Amount, event.Name),
		Metadata: map[string]string{
			"event_code":     event.Code,
			"transaction_id": result.Transaction.ID.String(),
		},
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", req.UserID.String()).Msg("failed to send points notification")
	}
	return result, nil
}

func (s *PointsServiceImpl) creditLocked(ctx context.Context, req ports.CreditPointsRequest, event *domain.PointsEvent) (*domain.CreditPointsResult, error) {
	now := time.Now().UTC()
	if reason := event.Availability(now); reason != "" {
		return nil, apperror.ErrEventInvalid(reason)
	}

	amount, err := eventPoints(event)
	if err != nil {
		return nil, err
	}

	key := domain.PointsIdempotencyKey(req.UserID, event.Code, req.SourceRef)
	existing, err := s.findExisting(ctx, req, event, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &domain.CreditPointsResult{Transaction: existing, IsDuplicate: true}, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.pointsRepo.GetOrCreateAccountForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock points account: %w", err))
	}

	txn := &domain.PointsTransaction{
		ID:             uuid.New(),
		AccountID:      account.ID,
		UserID:         req.UserID,
		EventCode:      event.Code,
		SourceRef:      req.SourceRef,
		OneTime:        event.OneTimePerUser,
		Amount:         amount,
		BalanceBefore:  account.Balance,
		BalanceAfter:   account.Balance + amount,
		Status:         domain.TransactionStatusCompleted,
		IdempotencyKey: key,
		Description:    req.Description,
		Metadata:       copyMetadata(req.Metadata),
		CreatedAt:      now,
	}
	if txn.Description == "" {
		txn.Description = event.Name
	}

	if err := s.pointsRepo.CreateTransaction(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create points transaction: %w", err))
	}
	if err := s.pointsRepo.UpdateAccountBalance(ctx, dbTx, account.ID, txn.BalanceAfter); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update points balance: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return &domain.CreditPointsResult{Transaction: txn}, nil
}

// findExisting returns an earlier credit that makes this request a safe retry.
func (s *PointsServiceImpl) findExisting(ctx context.Context, req ports.CreditPointsRequest, event *domain.PointsEvent, key string) (*domain.PointsTransaction, error) {
	if event.OneTimePerUser {
		earned, err := s.pointsRepo.GetCompletedForEvent(ctx, req.UserID, event.Code)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lookup earned points: %w", err))
		}
		if earned == nil {
			return nil, nil
		}
		if earned.SourceRef != req.SourceRef {
			return nil, apperror.ErrAlreadyEarned()
		}
		return earned, nil
	}

	existing, err := s.pointsRepo.GetTransactionByKey(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup points transaction: %w", err))
	}
	return existing, nil
}

// GetBalance returns the user's account, or a zero balance if none exists yet.
func (s *PointsServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.PointsAccount, error) {
	account, err := s.pointsRepo.GetAccount(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get points account: %w", err))
	}
	if account == nil {
		return &domain.PointsAccount{UserID: userID}, nil
	}
	return account, nil
}

func eventPoints(event *domain.PointsEvent) (int64, error) {
	amount, err := domain.FromPersisted(event.Points, pointsAsset, 0)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("points event %s: %w", event.Code, err))
	}
	points := amount.ToMinorUnits()
	if points <= 0 {
		return 0, apperror.ErrEventInvalid(apperror.EventInactive)
	}
	return points, nil
}

func validatePointsRequest(req ports.CreditPointsRequest) error {
	switch {
	case req.UserID == uuid.Nil:
		return apperror.ErrInvalidRequest("user id is required")
	case strings.TrimSpace(req.EventCode) == "":
		return apperror.ErrInvalidRequest("event code is required")
	case strings.TrimSpace(req.SourceRef) == "":
		return apperror.ErrInvalidRequest("source reference is required")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExchangeOptions configures the saga.
type ExchangeOptions struct {
	RateSide     string
	CleanupGrace time.Duration
	AllowedBanks []string // empty allows every bank the provider lists
	Job          ports.JobOptions
	Reconcile    ports.JobOptions // polling of handed-off withdrawals
}

// DeleteVirtualAccountPayload is the maintenance job scheduled after a failed
// exchange on a disposable account.
type DeleteVirtualAccountPayload struct {
	VirtualAccountID uuid.UUID `json:"virtual_account_id"`
}

// ReconcileTransferPayload is the job that polls the fiat rail for a
// handed-off withdrawal.
type ReconcileTransferPayload struct {
	JobID    uuid.UUID `json:"job_id"`
	WalletID uuid.UUID `json:"wallet_id"`
}

// ExchangeServiceImpl implements ports.ExchangeService.
type ExchangeServiceImpl struct {
	walletRepo ports.WalletRepository
	vaRepo     ports.VirtualAccountRepository
	railRepo   ports.RailTransferRepository
	ledger     ports.LedgerService
	rates      ports.RateService
	exchange   ports.ExchangeProvider
	rails      ports.FiatRailRegistry
	queue      ports.JobQueue
	opts       ExchangeOptions
	metrics    *Metrics
	log        zerolog.Logger
}

// NewExchangeService creates a new ExchangeServiceImpl.
func NewExchangeService(
	walletRepo ports.WalletRepository,
	vaRepo ports.VirtualAccountRepository,
	railRepo ports.RailTransferRepository,
	ledger ports.LedgerService,
	rates ports.RateService,
	exchange ports.ExchangeProvider,
	rails ports.FiatRailRegistry,
	queue ports.JobQueue,
	opts ExchangeOptions,
	metrics *Metrics,
	log zerolog.Logger,
) *ExchangeServiceImpl {
	return &ExchangeServiceImpl{
		walletRepo: walletRepo,
		vaRepo:     vaRepo,
		railRepo:   railRepo,
		ledger:     ledger,
		rates:      rates,
		exchange:   exchange,
		rails:      rails,
		queue:      queue,
		opts:       opts,
		metrics:    metrics,
		log:        log,
	}
}

// RequestExchange validates the request against the caller's wallet and
// account, then queues the settlement job.
func (s *ExchangeServiceImpl) RequestExchange(ctx context.Context, req ports.ExchangeRequest) (*domain.ExchangeJob, error) {
	if err := validateExchangeRequest(req); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByID(ctx, req.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil || wallet.UserID != req.UserID {
		return nil, apperror.ErrNotFound("wallet")
	}
	if !wallet.IsActive() {
		return nil, apperror.ErrInvalidRequest("wallet is not active")
	}

	amount, err := parsePositive(wallet, req.Amount, wallet.Asset)
	if err != nil {
		return nil, err
	}
	balance, err := wallet.BalanceAmount()
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if balance.LessThan(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	va, err := s.vaRepo.GetByID(ctx, req.VirtualAccountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get virtual account: %w", err))
	}
	if va == nil || va.IsDeleted() || va.UserID != req.UserID {
		return nil, apperror.ErrNotFound("virtual account")
	}
	currency := strings.ToUpper(req.Currency)
	if !strings.EqualFold(va.Currency, currency) {
		return nil, apperror.ErrInvalidRequest(fmt.Sprintf("virtual account settles %s, not %s", va.Currency, currency))
	}

	job := domain.ExchangeJob{
		ID:               uuid.New(),
		UserID:           req.UserID,
		WalletID:         wallet.ID,
		Asset:            wallet.Asset,
		Amount:           amount.ToPersisted(),
		CountryCode:      strings.ToUpper(req.CountryCode),
		Currency:         currency,
		RateID:           req.RateID,
		VirtualAccountID: va.ID,
		RequestedAt:      time.Now().UTC(),
	}

	if _, err := s.queue.AddJob(ctx, ports.QueueExchange, ports.JobExchangeSettle, job, s.opts.Job); err != nil {
		return nil, apperror.ErrUnavailable(fmt.Errorf("enqueue exchange: %w", err))
	}

	s.log.Info().
		Str("job_id", job.ID.String()).
		Str("wallet_id", job.WalletID.String()).
		Str("amount", job.Amount).
		Str("currency", job.Currency).
		Msg("exchange queued")
	return &job, nil
}

// HandleJob runs one attempt of the saga. A nil return stops the queue from
// retrying, even when the exchange failed; an error asks for a retry.
func (s *ExchangeServiceImpl) HandleJob(ctx context.Context, job domain.ExchangeJob, attempt int) error {
	log := s.log.With().Str("job_id", job.ID.String()).Int("attempt", attempt).Logger()

	if err := validateJob(job); err != nil {
		log.Error().Err(err).Msg("dropping invalid exchange job")
		s.metrics.IncExchangeSaga("invalid")
		return nil
	}

	transfer, proceed, err := s.prepareTransfer(ctx, job, attempt)
	if err != nil {
		s.metrics.IncExchangeSaga("failed_transient")
		return err
	}
	if !proceed {
		log.Info().Str("status", string(transfer.Status)).Msg("exchange already handled")
		s.metrics.IncExchangeSaga("replayed")
		return nil
	}

	if transfer.RailRef != nil {
		log.Info().Str("rail_ref", *transfer.RailRef).Msg("resuming accepted withdrawal")
		return s.finishHandOff(ctx, job, transfer, log)
	}

	va, debit, err := s.run(ctx, job, attempt, transfer)
	if err == nil {
		return s.finishHandOff(ctx, job, transfer, log)
	}

	class := ClassifyFailure(err)
	reason := failureReason(err)
	compErr := s.compensate(ctx, job, va, debit, transfer, reason)

	if compErr != nil {
		log.Error().Err(compErr).Str("reason", reason).Msg("exchange compensation incomplete")
		s.metrics.IncExchangeSaga("failed_transient")
		return errors.Join(err, compErr)
	}
	if class == FailurePermanent {
		log.Warn().Err(err).Str("reason", reason).Msg("exchange failed permanently")
		s.metrics.IncExchangeSaga("failed_permanent")
		return nil
	}
	log.Warn().Err(err).Str("reason", reason).Msg("exchange failed, will retry")
	s.metrics.IncExchangeSaga("failed_transient")
	return err
}

// DeleteVirtualAccount soft-deletes a disposable account after its grace period.
func (s *ExchangeServiceImpl) DeleteVirtualAccount(ctx context.Context, id uuid.UUID) error {
	va, err := s.vaRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get virtual account: %w", err))
	}
	if va == nil || va.IsDeleted() {
		return nil
	}
	if !va.IsDisposable() {
		s.log.Warn().Str("virtual_account_id", id.String()).Msg("refusing to delete a permanent virtual account")
		return nil
	}
	if err := s.vaRepo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return apperror.InternalError(err)
	}
	s.log.Info().Str("virtual_account_id", id.String()).Msg("virtual account deleted")
	return nil
}

// prepareTransfer loads or creates the job's rail transfer and decides
// whether this delivery should run. A transfer whose withdrawal was accepted
// resumes as is. Otherwise a debit left behind by a crashed or
// half-compensated attempt is reverted first.
func (s *ExchangeServiceImpl) prepareTransfer(ctx context.Context, job domain.ExchangeJob, attempt int) (*domain.RailTransfer, bool, error) {
	transfer, err := s.railRepo.GetByJobID(ctx, job.ID)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("get rail transfer: %w", err))
	}

	now := time.Now().UTC()
	if transfer == nil {
		transfer = &domain.RailTransfer{
			ID:               uuid.New(),
			JobID:            job.ID,
			UserID:           job.UserID,
			VirtualAccountID: job.VirtualAccountID,
			Currency:         job.Currency,
			Status:           domain.RailTransferPending,
			Attempt:          attempt,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.railRepo.Create(ctx, transfer); err != nil {
			return nil, false, apperror.InternalError(fmt.Errorf("create rail transfer: %w", err))
		}
		return transfer, true, nil
	}

	if transfer.IsSettled() {
		return transfer, false, nil
	}
	if transfer.Status == domain.RailTransferFailed && transfer.Attempt >= attempt {
		return transfer, false, nil
	}
	// The rail accepted a withdrawal for this debit; only the hand-off is left.
	if transfer.RailRef != nil {
		return transfer, true, nil
	}

	if transfer.TransactionID != nil {
		if err := s.revertLeftover(ctx, job, *transfer.TransactionID); err != nil {
			return nil, false, err
		}
	}

	transfer.Status = domain.RailTransferPending
	transfer.Attempt = attempt
	transfer.TransactionID = nil
	transfer.FailureReason = nil
	if err := s.railRepo.Update(ctx, transfer); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("reset rail transfer: %w", err))
	}
	return transfer, true, nil
}

func (s *ExchangeServiceImpl) revertLeftover(ctx context.Context, job domain.ExchangeJob, txID uuid.UUID) error {
	_, err := s.ledger.Revert(ctx, ports.RevertRequest{
		WalletID:      job.WalletID,
		Amount:        job.Amount,
		Asset:         job.Asset,
		TransactionID: txID,
		Reason:        "exchange attempt interrupted",
	})
	if err != nil && !apperror.Is(err, apperror.CodeInvalidRequest) {
		return fmt.Errorf("revert interrupted debit: %w", err)
	}
	return nil
}

// run performs the forward steps up to the accepted withdrawal, leaving its
// reference on transfer. The debit and virtual account are returned whenever
// they were obtained so the caller can compensate.
func (s *ExchangeServiceImpl) run(ctx context.Context, job domain.ExchangeJob, attempt int, transfer *domain.RailTransfer) (*domain.VirtualAccount, *domain.WalletTransaction, error) {
	va, err := s.vaRepo.GetByID(ctx, job.VirtualAccountID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get virtual account: %w", err))
	}
	if va == nil || va.IsDeleted() {
		return nil, nil, apperror.ErrNotFound("virtual account")
	}

	wallet, err := s.walletRepo.GetByID(ctx, job.WalletID)
	if err != nil {
		return va, nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return va, nil, apperror.ErrNotFound("wallet")
	}

	debit, err := s.ledger.Debit(ctx, ports.DebitRequest{
		WalletID:       job.WalletID,
		Amount:         job.Amount,
		Asset:          job.Asset,
		Subtype:        domain.SubtypeWithdrawal,
		Description:    fmt.Sprintf("Exchange to %s", job.Currency),
		IdempotencyKey: domain.ExchangeDebitIdempotencyKey(job.ID, attempt),
		Metadata:       map[string]string{domain.MetaJobID: job.ID.String()},
	})
	if err != nil {
		return va, nil, fmt.Errorf("debit wallet: %w", err)
	}

	transfer.TransactionID = &debit.ID
	if err := s.railRepo.Update(ctx, transfer); err != nil {
		return va, debit, apperror.InternalError(fmt.Errorf("record debit on rail transfer: %w", err))
	}

	if err := s.rates.ValidateRate(ctx, job.RateID, job.Amount, s.opts.RateSide); err != nil {
		return va, debit, fmt.Errorf("validate rate: %w", err)
	}

	channel, bank, err := s.resolveChannel(ctx, job.CountryCode, job.Currency, va.BankCode)
	if err != nil {
		return va, debit, err
	}

	payout, err := s.exchange.CreatePayOutRequest(ctx, domain.PayOutRequest{
		Reference:     job.ID.String(),
		ChannelID:     channel.ID,
		BankID:        bank.ID,
		Asset:         job.Asset,
		Amount:        job.Amount,
		Country:       job.CountryCode,
		AccountNumber: va.AccountNumber,
		AccountName:   va.AccountName,
	})
	if err != nil {
		return va, debit, fmt.Errorf("create payout: %w", err)
	}
	if payout.WalletAddress == "" {
		return va, debit, apperror.ErrProvider("exchange", errors.New("payout has no settlement address"))
	}
	transfer.ExchangeRef = domain.StrPtr(payout.Ref)
	transfer.ExchangeSequenceRef = domain.StrPtr(payout.SequenceRef)
	transfer.SettlementAddress = domain.StrPtr(payout.WalletAddress)

	rail, err := s.rails.ForCurrency(job.Currency)
	if err != nil {
		return va, debit, err
	}
	transfer.Provider = rail.Name()

	quote, err := rail.GetWithdrawalQuote(ctx, job.Asset, job.Amount)
	if err != nil {
		return va, debit, fmt.Errorf("withdrawal quote: %w", err)
	}
	withdrawal, err := rail.CreateWithdrawalRequest(ctx, domain.WithdrawalRequest{
		Reference:   debit.ID.String(),
		QuoteID:     quote.ID,
		Asset:       job.Asset,
		Amount:      job.Amount,
		Address:     payout.WalletAddress,
		SourceVault: wallet.ProviderAccountRef,
	})
	if err != nil {
		return va, debit, fmt.Errorf("withdrawal request: %w", err)
	}
	if withdrawal.Ref == "" {
		return va, debit, apperror.ErrProvider(rail.Name(), errors.New("withdrawal has no reference"))
	}
	transfer.RailRef = domain.StrPtr(withdrawal.Ref)
	return va, debit, nil
}

// finishHandOff records an accepted withdrawal: rail references first, then
// the debit moves to processing and a reconcile poll is scheduled. The rail
// owns the funds from here, so failures are retried and never compensated.
func (s *ExchangeServiceImpl) finishHandOff(ctx context.Context, job domain.ExchangeJob, transfer *domain.RailTransfer, log zerolog.Logger) error {
	fail := func(err error) error {
		log.Warn().Err(err).Str("rail_ref", domain.StrVal(transfer.RailRef)).Msg("withdrawal accepted, hand-off will be retried")
		s.metrics.IncExchangeSaga("failed_transient")
		return apperror.ErrUnavailable(err)
	}

	if transfer.TransactionID == nil {
		log.Error().Msg("accepted withdrawal has no debit")
		s.metrics.IncExchangeSaga("invalid")
		return apperror.ErrInvalidRequest("rail transfer has a withdrawal but no debit")
	}
	if err := s.railRepo.Update(ctx, transfer); err != nil {
		return fail(fmt.Errorf("record withdrawal on rail transfer: %w", err))
	}

	processing := domain.TransactionStatusProcessing
	if _, err := s.ledger.AdvanceTransaction(ctx, job.WalletID, *transfer.TransactionID, ports.TransactionUpdate{
		Status: &processing,
		Metadata: map[string]string{
			domain.MetaExchangeRef:         domain.StrVal(transfer.ExchangeRef),
			domain.MetaExchangeSequenceRef: domain.StrVal(transfer.ExchangeSequenceRef),
			domain.MetaSettlementAddress:   domain.StrVal(transfer.SettlementAddress),
			domain.MetaRailProvider:        transfer.Provider,
			domain.MetaRailRef:             domain.StrVal(transfer.RailRef),
		},
	}); err != nil {
		return fail(fmt.Errorf("mark processing: %w", err))
	}

	// Scheduled before the transfer turns processing: a processing transfer
	// is never handed off again.
	if _, err := s.queue.AddJob(ctx, ports.QueueExchange, ports.JobExchangeReconcile,
		ReconcileTransferPayload{JobID: job.ID, WalletID: job.WalletID}, s.opts.Reconcile,
	); err != nil {
		return fail(fmt.Errorf("schedule reconcile: %w", err))
	}

	transfer.Status = domain.RailTransferProcessing
	if err := s.railRepo.Update(ctx, transfer); err != nil {
		return fail(fmt.Errorf("mark rail transfer processing: %w", err))
	}

	s.metrics.IncExchangeSaga("processing")
	log.Info().Str("tx_id", transfer.TransactionID.String()).Msg("exchange handed to fiat rail")
	return nil
}

// resolveChannel picks the country's active withdrawal channel and the
// account's bank. Missing either is permanent.
func (s *ExchangeServiceImpl) resolveChannel(ctx context.Context, country, currency, bankCode string) (*domain.Channel, *domain.Bank, error) {
	channels, err := s.exchange.GetChannels(ctx, country)
	if err != nil {
		return nil, nil, fmt.Errorf("get channels: %w", err)
	}

	var channel *domain.Channel
	for i := range channels {
		c := channels[i]
		if c.IsActiveWithdrawal() && (c.Currency == "" || strings.EqualFold(c.Currency, currency)) {
			channel = &c
			break
		}
	}
	if channel == nil {
		return nil, nil, apperror.ErrProviderPermanent("exchange", fmt.Errorf("no active withdrawal channel for %s", country))
	}

	if !s.bankAllowed(bankCode) {
		return nil, nil, apperror.ErrProviderPermanent("exchange", fmt.Errorf("bank %s is not allow-listed", bankCode))
	}

	banks, err := s.exchange.GetBanks(ctx, country)
	if err != nil {
		return nil, nil, fmt.Errorf("get banks: %w", err)
	}
	for i := range banks {
		b := banks[i]
		if b.Code == bankCode && (b.ChannelID == "" || b.ChannelID == channel.ID) {
			return channel, &b, nil
		}
	}
	return nil, nil, apperror.ErrProviderPermanent("exchange", fmt.Errorf("bank not found: %s in %s", bankCode, country))
}

func (s *ExchangeServiceImpl) bankAllowed(code string) bool {
	if len(s.opts.AllowedBanks) == 0 {
		return true
	}
	for _, allowed := range s.opts.AllowedBanks {
		if allowed == code {
			return true
		}
	}
	return false
}

// compensate reverts the attempt's debit, fails the rail transfer and
// schedules cleanup of a disposable account. Only a failed revert is
// reported; the rest is best effort.
func (s *ExchangeServiceImpl) compensate(
	ctx context.Context,
	job domain.ExchangeJob,
	va *domain.VirtualAccount,
	debit *domain.WalletTransaction,
	transfer *domain.RailTransfer,
	reason string,
) error {
	var revertErr error
	if debit != nil && debit.Status == domain.TransactionStatusPending {
		if _, err := s.ledger.Revert(ctx, ports.RevertRequest{
			WalletID:      job.WalletID,
			Amount:        debit.Amount,
			Asset:         debit.Asset,
			TransactionID: debit.ID,
			Reason:        reason,
		}); err != nil {
			revertErr = fmt.Errorf("revert exchange debit: %w", err)
		}
	}

	transfer.Status = domain.RailTransferFailed
	transfer.FailureReason = &reason
	if err := s.railRepo.Update(ctx, transfer); err != nil {
		s.log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("failed to mark rail transfer failed")
	}

	s.scheduleCleanup(ctx, va)
	return revertErr
}

// scheduleCleanup queues deletion of a disposable account after the grace
// period. Best effort.
func (s *ExchangeServiceImpl) scheduleCleanup(ctx context.Context, va *domain.VirtualAccount) {
	if va == nil || !va.IsDisposable() {
		return
	}
	if _, err := s.queue.AddJob(ctx, ports.QueueMaintenance, ports.JobDeleteVirtualAccount,
		DeleteVirtualAccountPayload{VirtualAccountID: va.ID},
		ports.JobOptions{Attempts: 5, Backoff: time.Minute, Delay: s.opts.CleanupGrace},
	); err != nil {
		s.log.Warn().Err(err).Str("virtual_account_id", va.ID.String()).Msg("failed to schedule virtual account cleanup")
	}
}

func validateExchangeRequest(req ports.ExchangeRequest) error {
	switch {
	case req.UserID == uuid.Nil:
		return apperror.ErrInvalidRequest("user id is required")
	case req.WalletID == uuid.Nil:
		return apperror.ErrInvalidRequest("wallet id is required")
	case req.Amount == "":
		return apperror.ErrInvalidRequest("amount is required")
	case req.CountryCode == "":
		return apperror.ErrInvalidRequest("country code is required")
	case req.Currency == "":
		return apperror.ErrInvalidRequest("currency is required")
	case req.RateID == "":
		return apperror.ErrInvalidRequest("rate id is required")
	case req.VirtualAccountID == uuid.Nil:
		return apperror.ErrInvalidRequest("virtual account is required")
	}
	return nil
}

func validateJob(job domain.ExchangeJob) error {
	if job.ID == uuid.Nil {
		return apperror.ErrInvalidRequest("job id is required")
	}
	if err := validateExchangeRequest(ports.ExchangeRequest{
		UserID:           job.UserID,
		WalletID:         job.WalletID,
		Amount:           job.Amount,
		CountryCode:      job.CountryCode,
		Currency:         job.Currency,
		RateID:           job.RateID,
		VirtualAccountID: job.VirtualAccountID,
	}); err != nil {
		return err
	}
	if job.Asset == "" {
		return apperror.ErrInvalidRequest("asset is required")
	}
	return nil
}

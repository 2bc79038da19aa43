package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/internal/core/ports/mocks"
	"asset-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type exchangeTestDeps struct {
	svc        *ExchangeServiceImpl
	walletRepo *mocks.MockWalletRepository
	vaRepo     *mocks.MockVirtualAccountRepository
	railRepo   *mocks.MockRailTransferRepository
	ledger     *mocks.MockLedgerService
	rates      *mocks.MockRateService
	exchange   *mocks.MockExchangeProvider
	rails      *mocks.MockFiatRailRegistry
	rail       *mocks.MockFiatRailProvider
	queue      *mocks.MockJobQueue
	metrics    *Metrics
}

var (
	testJobOpts       = ports.JobOptions{Attempts: 3, Backoff: time.Second}
	testReconcileOpts = ports.JobOptions{Attempts: 10, Backoff: time.Minute, Delay: time.Minute}
)

func setupExchangeService(t *testing.T) *exchangeTestDeps {
	ctrl := gomock.NewController(t)
	d := &exchangeTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		vaRepo:     mocks.NewMockVirtualAccountRepository(ctrl),
		railRepo:   mocks.NewMockRailTransferRepository(ctrl),
		ledger:     mocks.NewMockLedgerService(ctrl),
		rates:      mocks.NewMockRateService(ctrl),
		exchange:   mocks.NewMockExchangeProvider(ctrl),
		rails:      mocks.NewMockFiatRailRegistry(ctrl),
		rail:       mocks.NewMockFiatRailProvider(ctrl),
		queue:      mocks.NewMockJobQueue(ctrl),
		metrics:    NewMetrics(prometheus.NewRegistry()),
	}
	d.svc = NewExchangeService(
		d.walletRepo, d.vaRepo, d.railRepo, d.ledger, d.rates, d.exchange, d.rails, d.queue,
		ExchangeOptions{RateSide: "sell", CleanupGrace: 10 * time.Minute, AllowedBanks: []string{"058"}, Job: testJobOpts, Reconcile: testReconcileOpts},
		d.metrics, zerolog.Nop(),
	)
	return d
}

func testVirtualAccount(userID uuid.UUID) *domain.VirtualAccount {
	return &domain.VirtualAccount{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          domain.VirtualAccountExchange,
		Currency:      "NGN",
		AccountNumber: "0123456789",
		AccountName:   "Ada Obi",
		BankCode:      "058",
	}
}

func testJob(wallet *domain.Wallet, va *domain.VirtualAccount) domain.ExchangeJob {
	return domain.ExchangeJob{
		ID:               uuid.New(),
		UserID:           wallet.UserID,
		WalletID:         wallet.ID,
		Asset:            wallet.Asset,
		Amount:           "50.000000",
		CountryCode:      "NG",
		Currency:         "NGN",
		RateID:           "rate-1",
		VirtualAccountID: va.ID,
	}
}

func (d *exchangeTestDeps) sagaCount(outcome string) float64 {
	return testutil.ToFloat64(d.metrics.ExchangeSagas.WithLabelValues(outcome))
}

func (d *exchangeTestDeps) expectChannel(job domain.ExchangeJob) {
	d.exchange.EXPECT().GetChannels(gomock.Any(), job.CountryCode).Return([]domain.Channel{
		{ID: "ch-dep", Type: "deposit", Status: "active", Currency: "NGN"},
		{ID: "ch-wd", Type: "withdrawal", Status: "active", Currency: "NGN"},
	}, nil)
	d.exchange.EXPECT().GetBanks(gomock.Any(), job.CountryCode).Return([]domain.Bank{
		{ID: "bank-1", Code: "058", Name: "GTBank", ChannelID: "ch-wd"},
	}, nil)
}

// ==================== RequestExchange Tests ====================

func TestExchangeService_RequestExchange_QueuesJob(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)

	d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.queue.EXPECT().
		AddJob(gomock.Any(), ports.QueueExchange, ports.JobExchangeSettle, gomock.Any(), testJobOpts).
		DoAndReturn(func(_ context.Context, _, _ string, payload any, _ ports.JobOptions) (string, error) {
			job, ok := payload.(domain.ExchangeJob)
			require.True(t, ok)
			assert.Equal(t, "50.000000", job.Amount)
			assert.Equal(t, "NGN", job.Currency)
			assert.Equal(t, "NG", job.CountryCode)
			return "job-1", nil
		})

	job, err := d.svc.RequestExchange(context.Background(), ports.ExchangeRequest{
		UserID:           wallet.UserID,
		WalletID:         wallet.ID,
		Amount:           "50",
		CountryCode:      "ng",
		Currency:         "ngn",
		RateID:           "rate-1",
		VirtualAccountID: va.ID,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, "USDC", job.Asset)
}

func TestExchangeService_RequestExchange_Rejections(t *testing.T) {
	wallet := testWallet("10.000000")

	t.Run("missing fields", func(t *testing.T) {
		d := setupExchangeService(t)
		_, err := d.svc.RequestExchange(context.Background(), ports.ExchangeRequest{UserID: wallet.UserID})
		assertAppError(t, err, apperror.CodeInvalidRequest)
	})

	t.Run("foreign wallet", func(t *testing.T) {
		d := setupExchangeService(t)
		d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
		_, err := d.svc.RequestExchange(context.Background(), ports.ExchangeRequest{
			UserID: uuid.New(), WalletID: wallet.ID, Amount: "5", CountryCode: "NG",
			Currency: "NGN", RateID: "r", VirtualAccountID: uuid.New(),
		})
		assertAppError(t, err, apperror.CodeNotFound)
	})

	t.Run("balance too low", func(t *testing.T) {
		d := setupExchangeService(t)
		d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
		_, err := d.svc.RequestExchange(context.Background(), ports.ExchangeRequest{
			UserID: wallet.UserID, WalletID: wallet.ID, Amount: "11", CountryCode: "NG",
			Currency: "NGN", RateID: "r", VirtualAccountID: uuid.New(),
		})
		assertAppError(t, err, apperror.CodeInsufficientBalance)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		d := setupExchangeService(t)
		va := testVirtualAccount(wallet.UserID)
		d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
		d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
		_, err := d.svc.RequestExchange(context.Background(), ports.ExchangeRequest{
			UserID: wallet.UserID, WalletID: wallet.ID, Amount: "5", CountryCode: "GH",
			Currency: "GHS", RateID: "r", VirtualAccountID: va.ID,
		})
		assertAppError(t, err, apperror.CodeInvalidRequest)
	})

	t.Run("deleted account", func(t *testing.T) {
		d := setupExchangeService(t)
		va := testVirtualAccount(wallet.UserID)
		now := time.Now()
		va.DeletedAt = &now
		d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
		d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
		_, err := d.svc.RequestExchange(context.Background(), ports.ExchangeRequest{
			UserID: wallet.UserID, WalletID: wallet.ID, Amount: "5", CountryCode: "NG",
			Currency: "NGN", RateID: "r", VirtualAccountID: va.ID,
		})
		assertAppError(t, err, apperror.CodeNotFound)
	})

	t.Run("queue down", func(t *testing.T) {
		d := setupExchangeService(t)
		va := testVirtualAccount(wallet.UserID)
		d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
		d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
		d.queue.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", errors.New("redis down"))
		_, err := d.svc.RequestExchange(context.Background(), ports.ExchangeRequest{
			UserID: wallet.UserID, WalletID: wallet.ID, Amount: "5", CountryCode: "NG",
			Currency: "NGN", RateID: "r", VirtualAccountID: va.ID,
		})
		assertAppError(t, err, apperror.CodeUnavailable)
	})
}

// ==================== HandleJob Tests ====================

func TestExchangeService_HandleJob_HappyPath(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)
	debit := pendingDebit(wallet, job.Amount)

	var saved []domain.RailTransfer
	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, nil)
	d.railRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RailTransfer) error {
			saved = append(saved, *rt)
			return nil
		}).Times(3)
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.DebitRequest) (*domain.WalletTransaction, error) {
			assert.Equal(t, domain.ExchangeDebitIdempotencyKey(job.ID, 1), req.IdempotencyKey)
			assert.Equal(t, domain.SubtypeWithdrawal, req.Subtype)
			assert.Equal(t, job.ID.String(), req.Metadata[domain.MetaJobID])
			return debit, nil
		})
	d.rates.EXPECT().ValidateRate(gomock.Any(), "rate-1", job.Amount, "sell").Return(nil)
	d.expectChannel(job)
	d.exchange.EXPECT().CreatePayOutRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.PayOutRequest) (*domain.PayOut, error) {
			assert.Equal(t, "ch-wd", req.ChannelID)
			assert.Equal(t, "bank-1", req.BankID)
			assert.Equal(t, va.AccountNumber, req.AccountNumber)
			return &domain.PayOut{Ref: "po-1", SequenceRef: "seq-1", WalletAddress: "0xsettle"}, nil
		})
	d.rails.EXPECT().ForCurrency("NGN").Return(d.rail, nil)
	d.rail.EXPECT().Name().Return("railco").AnyTimes()
	d.rail.EXPECT().GetWithdrawalQuote(gomock.Any(), "USDC", job.Amount).
		Return(&domain.WithdrawalQuote{ID: "q-1", Amount: job.Amount, Fee: "0.5"}, nil)
	d.rail.EXPECT().CreateWithdrawalRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, error) {
			assert.Equal(t, "q-1", req.QuoteID)
			assert.Equal(t, "0xsettle", req.Address)
			assert.Equal(t, "vault-1", req.SourceVault)
			return &domain.Withdrawal{Ref: "wd-1", Status: "submitted"}, nil
		})
	d.ledger.EXPECT().AdvanceTransaction(gomock.Any(), wallet.ID, debit.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ uuid.UUID, upd ports.TransactionUpdate) (*domain.WalletTransaction, error) {
			require.NotNil(t, upd.Status)
			assert.Equal(t, domain.TransactionStatusProcessing, *upd.Status)
			assert.Equal(t, "po-1", upd.Metadata[domain.MetaExchangeRef])
			assert.Equal(t, "wd-1", upd.Metadata[domain.MetaRailRef])
			assert.Equal(t, "railco", upd.Metadata[domain.MetaRailProvider])
			assert.Equal(t, "0xsettle", upd.Metadata[domain.MetaSettlementAddress])
			return debit, nil
		})
	d.queue.EXPECT().
		AddJob(gomock.Any(), ports.QueueExchange, ports.JobExchangeReconcile, gomock.Any(), testReconcileOpts).
		DoAndReturn(func(_ context.Context, _, _ string, payload any, _ ports.JobOptions) (string, error) {
			assert.Equal(t, ReconcileTransferPayload{JobID: job.ID, WalletID: wallet.ID}, payload)
			return "reconcile-1", nil
		})

	err := d.svc.HandleJob(context.Background(), job, 1)

	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, &debit.ID, saved[0].TransactionID)
	assert.Equal(t, domain.RailTransferPending, saved[1].Status)
	assert.Equal(t, "wd-1", *saved[1].RailRef, "withdrawal reference is stored before the debit moves on")
	assert.Equal(t, domain.RailTransferProcessing, saved[2].Status)
	assert.Equal(t, float64(1), d.sagaCount("processing"))
}

func TestExchangeService_HandleJob_ProviderInsufficientBalanceIsRetried(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)
	debit := pendingDebit(wallet, job.Amount)

	var final domain.RailTransfer
	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, nil)
	d.railRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RailTransfer) error {
			final = *rt
			return nil
		}).Times(2)
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(debit, nil)
	d.rates.EXPECT().ValidateRate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.expectChannel(job)
	d.exchange.EXPECT().CreatePayOutRequest(gomock.Any(), gomock.Any()).
		Return(&domain.PayOut{Ref: "po-1", SequenceRef: "seq-1", WalletAddress: "0xsettle"}, nil)
	d.rails.EXPECT().ForCurrency("NGN").Return(d.rail, nil)
	d.rail.EXPECT().Name().Return("railco").AnyTimes()
	d.rail.EXPECT().GetWithdrawalQuote(gomock.Any(), "USDC", job.Amount).
		Return(&domain.WithdrawalQuote{ID: "q-1"}, nil)
	d.rail.EXPECT().CreateWithdrawalRequest(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("insufficient balance"))

	var reverted ports.RevertRequest
	d.ledger.EXPECT().Revert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.RevertRequest) (*domain.WalletTransaction, error) {
			reverted = req
			return &domain.WalletTransaction{ID: uuid.New()}, nil
		})
	d.queue.EXPECT().
		AddJob(gomock.Any(), ports.QueueMaintenance, ports.JobDeleteVirtualAccount, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, payload any, opts ports.JobOptions) (string, error) {
			assert.Equal(t, DeleteVirtualAccountPayload{VirtualAccountID: va.ID}, payload)
			assert.Equal(t, 10*time.Minute, opts.Delay)
			return "cleanup-1", nil
		})

	err := d.svc.HandleJob(context.Background(), job, 1)

	require.Error(t, err)
	assert.True(t, apperror.IsTransient(err))
	assert.Equal(t, debit.ID, reverted.TransactionID)
	assert.Equal(t, job.Amount, reverted.Amount)
	assert.Contains(t, reverted.Reason, "Insufficient balance")
	assert.Equal(t, domain.RailTransferFailed, final.Status)
	require.NotNil(t, final.FailureReason)
	assert.Contains(t, *final.FailureReason, "Insufficient balance")
	assert.Equal(t, float64(1), d.sagaCount("failed_transient"))
}

func TestExchangeService_HandleJob_PermanentFailureStopsRetries(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	va.Type = domain.VirtualAccountPermanent
	job := testJob(wallet, va)
	debit := pendingDebit(wallet, job.Amount)

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, nil)
	d.railRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(debit, nil)
	d.rates.EXPECT().ValidateRate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.exchange.EXPECT().GetChannels(gomock.Any(), "NG").Return([]domain.Channel{
		{ID: "ch-wd", Type: "withdrawal", Status: "inactive", Currency: "NGN"},
	}, nil)
	d.ledger.EXPECT().Revert(gomock.Any(), gomock.Any()).Return(&domain.WalletTransaction{}, nil)

	err := d.svc.HandleJob(context.Background(), job, 1)

	require.NoError(t, err)
	assert.Equal(t, float64(1), d.sagaCount("failed_permanent"))
}

func TestExchangeService_HandleJob_BankNotAllowListed(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	va.BankCode = "999"
	job := testJob(wallet, va)
	debit := pendingDebit(wallet, job.Amount)

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, nil)
	d.railRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(debit, nil)
	d.rates.EXPECT().ValidateRate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.exchange.EXPECT().GetChannels(gomock.Any(), "NG").Return([]domain.Channel{
		{ID: "ch-wd", Type: "withdrawal", Status: "active", Currency: "NGN"},
	}, nil)
	d.ledger.EXPECT().Revert(gomock.Any(), gomock.Any()).Return(&domain.WalletTransaction{}, nil)
	d.queue.EXPECT().AddJob(gomock.Any(), ports.QueueMaintenance, gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("queue down"))

	err := d.svc.HandleJob(context.Background(), job, 1)

	require.NoError(t, err)
	assert.Equal(t, float64(1), d.sagaCount("failed_permanent"))
}

func TestExchangeService_HandleJob_DebitRejectedNeedsNoRevert(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("1.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, nil)
	d.railRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RailTransfer) error {
			assert.Equal(t, domain.RailTransferFailed, rt.Status)
			return nil
		})
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientBalance())
	d.queue.EXPECT().AddJob(gomock.Any(), ports.QueueMaintenance, gomock.Any(), gomock.Any(), gomock.Any()).
		Return("cleanup", nil)

	err := d.svc.HandleJob(context.Background(), job, 1)

	require.NoError(t, err)
	assert.Equal(t, float64(1), d.sagaCount("failed_permanent"))
}

func TestExchangeService_HandleJob_RevertFailureIsRetried(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	va.Type = domain.VirtualAccountPermanent
	job := testJob(wallet, va)
	debit := pendingDebit(wallet, job.Amount)

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, nil)
	d.railRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(debit, nil)
	d.rates.EXPECT().ValidateRate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(apperror.ErrProviderPermanent("rates", errors.New("rate expired")))
	d.ledger.EXPECT().Revert(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrLockTimeout(errors.New("busy")))

	err := d.svc.HandleJob(context.Background(), job, 1)

	require.Error(t, err)
	assert.Equal(t, float64(1), d.sagaCount("failed_transient"))
}

func TestExchangeService_HandleJob_SettledJobIsReplayed(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(&domain.RailTransfer{
		ID: uuid.New(), JobID: job.ID, Status: domain.RailTransferProcessing, Attempt: 1,
	}, nil)

	require.NoError(t, d.svc.HandleJob(context.Background(), job, 2))
	assert.Equal(t, float64(1), d.sagaCount("replayed"))
}

func TestExchangeService_HandleJob_RetryRevertsLeftoverDebit(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	va.Type = domain.VirtualAccountPermanent
	job := testJob(wallet, va)
	leftover := uuid.New()

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(&domain.RailTransfer{
		ID: uuid.New(), JobID: job.ID, Status: domain.RailTransferPending, Attempt: 1, TransactionID: &leftover,
	}, nil)
	gomock.InOrder(
		d.ledger.EXPECT().Revert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req ports.RevertRequest) (*domain.WalletTransaction, error) {
				assert.Equal(t, leftover, req.TransactionID)
				return nil, apperror.ErrInvalidRequest("only pending transactions can be reverted")
			}),
		d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, rt *domain.RailTransfer) error {
				assert.Equal(t, 2, rt.Attempt)
				assert.Nil(t, rt.TransactionID)
				return nil
			}),
	)
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(nil, nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	err := d.svc.HandleJob(context.Background(), job, 2)

	require.NoError(t, err)
	assert.Equal(t, float64(1), d.sagaCount("failed_permanent"))
}

func TestExchangeService_HandleJob_AcceptedWithdrawalIsNotReverted(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)
	debit := pendingDebit(wallet, job.Amount)

	var saved []domain.RailTransfer
	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, nil)
	d.railRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RailTransfer) error {
			saved = append(saved, *rt)
			return nil
		}).Times(2)
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.walletRepo.EXPECT().GetByID(gomock.Any(), wallet.ID).Return(wallet, nil)
	d.ledger.EXPECT().Debit(gomock.Any(), gomock.Any()).Return(debit, nil)
	d.rates.EXPECT().ValidateRate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.expectChannel(job)
	d.exchange.EXPECT().CreatePayOutRequest(gomock.Any(), gomock.Any()).
		Return(&domain.PayOut{Ref: "po-1", SequenceRef: "seq-1", WalletAddress: "0xsettle"}, nil)
	d.rails.EXPECT().ForCurrency("NGN").Return(d.rail, nil)
	d.rail.EXPECT().Name().Return("railco").AnyTimes()
	d.rail.EXPECT().GetWithdrawalQuote(gomock.Any(), gomock.Any(), gomock.Any()).Return(&domain.WithdrawalQuote{ID: "q-1"}, nil)
	d.rail.EXPECT().CreateWithdrawalRequest(gomock.Any(), gomock.Any()).Return(&domain.Withdrawal{Ref: "wd-1"}, nil)
	d.ledger.EXPECT().AdvanceTransaction(gomock.Any(), wallet.ID, debit.ID, gomock.Any()).
		Return(nil, apperror.ErrLockTimeout(errors.New("wallet busy")))

	err := d.svc.HandleJob(context.Background(), job, 1)

	require.Error(t, err)
	assert.True(t, apperror.IsTransient(err))
	require.Len(t, saved, 2)
	assert.Equal(t, domain.RailTransferPending, saved[1].Status)
	assert.Equal(t, "wd-1", *saved[1].RailRef)
	assert.Equal(t, float64(1), d.sagaCount("failed_transient"))
}

func TestExchangeService_HandleJob_RetryResumesHandOff(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)
	debitID := uuid.New()

	transfer := &domain.RailTransfer{
		ID: uuid.New(), JobID: job.ID, Status: domain.RailTransferPending, Attempt: 1,
		TransactionID: &debitID, Provider: "railco", Currency: "NGN",
		ExchangeRef: domain.StrPtr("po-1"), SettlementAddress: domain.StrPtr("0xsettle"), RailRef: domain.StrPtr("wd-1"),
	}
	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(transfer, nil)

	var statuses []domain.RailTransferStatus
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RailTransfer) error {
			statuses = append(statuses, rt.Status)
			assert.Equal(t, &debitID, rt.TransactionID)
			return nil
		}).Times(2)
	d.ledger.EXPECT().AdvanceTransaction(gomock.Any(), wallet.ID, debitID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ uuid.UUID, upd ports.TransactionUpdate) (*domain.WalletTransaction, error) {
			assert.Equal(t, "wd-1", upd.Metadata[domain.MetaRailRef])
			assert.Equal(t, "po-1", upd.Metadata[domain.MetaExchangeRef])
			return &domain.WalletTransaction{ID: debitID}, nil
		})
	d.queue.EXPECT().AddJob(gomock.Any(), ports.QueueExchange, ports.JobExchangeReconcile, gomock.Any(), testReconcileOpts).
		Return("reconcile-1", nil)

	err := d.svc.HandleJob(context.Background(), job, 2)

	require.NoError(t, err)
	assert.Equal(t, []domain.RailTransferStatus{domain.RailTransferPending, domain.RailTransferProcessing}, statuses)
	assert.Equal(t, float64(1), d.sagaCount("processing"))
}

func TestExchangeService_HandleJob_FailedEarlierAttemptIsSkipped(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("100.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(&domain.RailTransfer{
		ID: uuid.New(), JobID: job.ID, Status: domain.RailTransferFailed, Attempt: 3,
	}, nil)

	require.NoError(t, d.svc.HandleJob(context.Background(), job, 3))
	assert.Equal(t, float64(1), d.sagaCount("replayed"))
}

func TestExchangeService_HandleJob_InvalidJobIsDropped(t *testing.T) {
	d := setupExchangeService(t)

	require.NoError(t, d.svc.HandleJob(context.Background(), domain.ExchangeJob{}, 1))
	assert.Equal(t, float64(1), d.sagaCount("invalid"))
}

// ==================== ReconcileTransfer Tests ====================

func handedOffTransfer(job domain.ExchangeJob, debitID uuid.UUID) *domain.RailTransfer {
	return &domain.RailTransfer{
		ID: uuid.New(), JobID: job.ID, VirtualAccountID: job.VirtualAccountID, Currency: "NGN",
		Status: domain.RailTransferProcessing, Attempt: 1, TransactionID: &debitID,
		Provider: "railco", RailRef: domain.StrPtr("wd-1"),
	}
}

func TestExchangeService_ReconcileTransfer_Completed(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("50.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)
	debitID := uuid.New()

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(handedOffTransfer(job, debitID), nil)
	d.rails.EXPECT().ForCurrency("NGN").Return(d.rail, nil)
	d.rail.EXPECT().GetTransferDetails(gomock.Any(), "wd-1").
		Return(&domain.TransferDetails{Ref: "wd-1", Status: "completed", TxHash: "0xpaid"}, nil)
	d.ledger.EXPECT().CompleteTransaction(gomock.Any(), wallet.ID, debitID, "0xpaid", "").
		Return(&domain.WalletTransaction{ID: debitID, Status: domain.TransactionStatusCompleted}, nil)
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RailTransfer) error {
			assert.Equal(t, domain.RailTransferCompleted, rt.Status)
			return nil
		})

	require.NoError(t, d.svc.ReconcileTransfer(context.Background(), job.ID, wallet.ID))
	assert.Equal(t, float64(1), d.sagaCount("completed"))
}

func TestExchangeService_ReconcileTransfer_FailedWithdrawalRefunds(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("50.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)
	debitID := uuid.New()

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(handedOffTransfer(job, debitID), nil)
	d.rails.EXPECT().ForCurrency("NGN").Return(d.rail, nil)
	d.rail.EXPECT().GetTransferDetails(gomock.Any(), "wd-1").Return(&domain.TransferDetails{Ref: "wd-1", Status: "rejected"}, nil)
	d.ledger.EXPECT().FailTransaction(gomock.Any(), wallet.ID, debitID, "fiat rail withdrawal rejected").
		Return(&domain.WalletTransaction{ID: debitID, Amount: job.Amount, Asset: "USDC", Status: domain.TransactionStatusFailed}, nil)
	d.ledger.EXPECT().Credit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.CreditRequest) (*domain.WalletTransaction, error) {
			assert.Equal(t, job.Amount, req.Amount)
			assert.Equal(t, domain.SubtypeReversal, req.Subtype)
			assert.Equal(t, domain.ReversalIdempotencyKey(debitID), req.IdempotencyKey)
			assert.Equal(t, &debitID, req.ParentID)
			return &domain.WalletTransaction{ID: uuid.New()}, nil
		})
	d.railRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RailTransfer) error {
			assert.Equal(t, domain.RailTransferFailed, rt.Status)
			require.NotNil(t, rt.FailureReason)
			assert.Equal(t, "fiat rail withdrawal rejected", *rt.FailureReason)
			return nil
		})
	d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
	d.queue.EXPECT().AddJob(gomock.Any(), ports.QueueMaintenance, ports.JobDeleteVirtualAccount, gomock.Any(), gomock.Any()).
		Return("cleanup-1", nil)

	require.NoError(t, d.svc.ReconcileTransfer(context.Background(), job.ID, wallet.ID))
	assert.Equal(t, float64(1), d.sagaCount("refunded"))
}

func TestExchangeService_ReconcileTransfer_InFlightIsPolledAgain(t *testing.T) {
	d := setupExchangeService(t)
	wallet := testWallet("50.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)

	d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(handedOffTransfer(job, uuid.New()), nil)
	d.rails.EXPECT().ForCurrency("NGN").Return(d.rail, nil)
	d.rail.EXPECT().Name().Return("railco").AnyTimes()
	d.rail.EXPECT().GetTransferDetails(gomock.Any(), "wd-1").Return(&domain.TransferDetails{Ref: "wd-1", Status: "processing"}, nil)

	err := d.svc.ReconcileTransfer(context.Background(), job.ID, wallet.ID)

	require.Error(t, err)
	assert.True(t, apperror.IsTransient(err))
}

func TestExchangeService_ReconcileTransfer_NothingToDo(t *testing.T) {
	wallet := testWallet("50.000000")
	va := testVirtualAccount(wallet.UserID)
	job := testJob(wallet, va)

	t.Run("already completed", func(t *testing.T) {
		d := setupExchangeService(t)
		transfer := handedOffTransfer(job, uuid.New())
		transfer.Status = domain.RailTransferCompleted
		d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(transfer, nil)
		require.NoError(t, d.svc.ReconcileTransfer(context.Background(), job.ID, wallet.ID))
	})

	t.Run("never handed off", func(t *testing.T) {
		d := setupExchangeService(t)
		d.railRepo.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, nil)
		err := d.svc.ReconcileTransfer(context.Background(), job.ID, wallet.ID)
		assertAppError(t, err, apperror.CodeNotFound)
	})
}

func TestRailOutcome(t *testing.T) {
	assert.Equal(t, domain.RailTransferCompleted, railOutcome("SUCCESS"))
	assert.Equal(t, domain.RailTransferFailed, railOutcome("cancelled"))
	assert.Equal(t, domain.RailTransferProcessing, railOutcome("pending"))
	assert.Equal(t, domain.RailTransferProcessing, railOutcome(""))
}

// ==================== DeleteVirtualAccount Tests ====================

func TestExchangeService_DeleteVirtualAccount(t *testing.T) {
	userID := uuid.New()

	t.Run("disposable is deleted", func(t *testing.T) {
		d := setupExchangeService(t)
		va := testVirtualAccount(userID)
		d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
		d.vaRepo.EXPECT().SoftDelete(gomock.Any(), va.ID, gomock.Any()).Return(nil)
		require.NoError(t, d.svc.DeleteVirtualAccount(context.Background(), va.ID))
	})

	t.Run("already deleted", func(t *testing.T) {
		d := setupExchangeService(t)
		va := testVirtualAccount(userID)
		now := time.Now()
		va.DeletedAt = &now
		d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
		require.NoError(t, d.svc.DeleteVirtualAccount(context.Background(), va.ID))
	})

	t.Run("permanent is kept", func(t *testing.T) {
		d := setupExchangeService(t)
		va := testVirtualAccount(userID)
		va.Type = domain.VirtualAccountPermanent
		d.vaRepo.EXPECT().GetByID(gomock.Any(), va.ID).Return(va, nil)
		require.NoError(t, d.svc.DeleteVirtualAccount(context.Background(), va.ID))
	})

	t.Run("missing", func(t *testing.T) {
		d := setupExchangeService(t)
		id := uuid.New()
		d.vaRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)
		require.NoError(t, d.svc.DeleteVirtualAccount(context.Background(), id))
	})
}

// ==================== Failure Classification Tests ====================

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"invalid request", apperror.ErrInvalidRequest("bad"), FailurePermanent},
		{"not found", apperror.ErrNotFound("wallet"), FailurePermanent},
		{"ledger insufficient balance", apperror.ErrInsufficientBalance(), FailurePermanent},
		{"provider permanent", apperror.ErrProviderPermanent("x", errors.New("nope")), FailurePermanent},
		{"lock timeout", apperror.ErrLockTimeout(errors.New("busy")), FailureTransient},
		{"provider transient", apperror.ErrProvider("x", errors.New("503")), FailureTransient},
		{"provider insufficient balance", apperror.ErrProvider("x", errors.New("insufficient balance")), FailureTransient},
		{"plain kyc", errors.New("user KYC incomplete"), FailurePermanent},
		{"plain bank", errors.New("Bank not found"), FailurePermanent},
		{"plain timeout", errors.New("i/o timeout"), FailureTransient},
		{"wrapped code", fmt.Errorf("step: %w", apperror.ErrNotFound("virtual account")), FailurePermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFailure(tt.err))
		})
	}
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "Insufficient balance in wallet", failureReason(apperror.ErrInsufficientBalance()))
	assert.Equal(t,
		"Insufficient balance: exchange request failed: insufficient balance",
		failureReason(apperror.ErrProvider("exchange", errors.New("insufficient balance"))),
	)
	assert.Equal(t, "boom", failureReason(errors.New("boom")))
}

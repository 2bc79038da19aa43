package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/internal/core/ports/mocks"
	"asset-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testToken = "good_token"

type fixture struct {
	router   *gin.Engine
	userID   uuid.UUID
	ledger   *mocks.MockLedgerService
	exchange *mocks.MockExchangeService
	points   *mocks.MockPointsService
	parser   *mocks.MockCustodyWebhookParser
	replay   *mocks.MockReplayGuard
	queue    *mocks.MockJobQueue
	events   *mocks.MockBalanceSubscriber
	health   *mocks.MockHealthChecker
}

func setup(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		userID:   uuid.New(),
		ledger:   mocks.NewMockLedgerService(ctrl),
		exchange: mocks.NewMockExchangeService(ctrl),
		points:   mocks.NewMockPointsService(ctrl),
		parser:   mocks.NewMockCustodyWebhookParser(ctrl),
		replay:   mocks.NewMockReplayGuard(ctrl),
		queue:    mocks.NewMockJobQueue(ctrl),
		events:   mocks.NewMockBalanceSubscriber(ctrl),
		health:   mocks.NewMockHealthChecker(ctrl),
	}
	tokens := mocks.NewMockTokenService(ctrl)
	tokens.EXPECT().Validate(testToken).Return(&ports.TokenClaims{UserID: f.userID}, nil).AnyTimes()

	f.router = SetupRouter(RouterDeps{
		LedgerSvc:      f.ledger,
		ExchangeSvc:    f.exchange,
		PointsSvc:      f.points,
		TokenSvc:       tokens,
		WebhookParser:  f.parser,
		ReplayGuard:    f.replay,
		Queue:          f.queue,
		BalanceEvents:  f.events,
		ReplayTTL:      time.Hour,
		EventJobOpts:   ports.JobOptions{Attempts: 5, Backoff: time.Second},
		HealthCheckers: []ports.HealthChecker{f.health},
		Gatherer:       prometheus.NewRegistry(),
		Logger:         zerolog.Nop(),
	})
	return f
}

func (f *fixture) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) authed(method, path string, body any) *httptest.ResponseRecorder {
	return f.do(method, path, body, map[string]string{"Authorization": "Bearer " + testToken})
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

// --- Health & metrics ---

func TestHealthCheck(t *testing.T) {
	f := setup(t)
	f.health.EXPECT().Name().Return("redis").AnyTimes()

	f.health.EXPECT().Ping(gomock.Any()).Return(nil)
	w := f.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	f.health.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	w = f.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestMetricsEndpoint(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodGet, "/metrics", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Custody webhook ---

func webhookHeaders() map[string]string {
	return map[string]string{
		HeaderCustodySignature: "sig",
		HeaderCustodyTimestamp: "1700000000",
		HeaderCustodyVersion:   "v2",
	}
}

func TestCustodyWebhook_Queued(t *testing.T) {
	f := setup(t)
	event := &domain.ProviderEvent{Kind: domain.ProviderEventCompleted, ProviderRef: "tx-1"}
	body := []byte(`{"type":"TRANSACTION_STATUS_UPDATED"}`)

	f.parser.EXPECT().ParseWebhook(body, "sig", "1700000000", "v2").Return(event, nil)
	f.replay.EXPECT().FirstSeen(gomock.Any(), "custody", "completed:tx-1", time.Hour).Return(true, nil)
	f.queue.EXPECT().AddJob(gomock.Any(), ports.QueueSettlement, ports.JobProviderEvent, event,
		ports.JobOptions{Attempts: 5, Backoff: time.Second}).Return("job-1", nil)

	w := f.do(http.MethodPost, "/webhooks/custody", body, webhookHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["received"])
	assert.Equal(t, false, data["duplicate"])
}

func TestCustodyWebhook_ReplayAcknowledged(t *testing.T) {
	f := setup(t)
	event := &domain.ProviderEvent{Kind: domain.ProviderEventGasRefill, ProviderRef: "gas-1", GasRefillStatus: domain.GasRefillCompleted}

	f.parser.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(event, nil)
	f.replay.EXPECT().FirstSeen(gomock.Any(), "custody", "gas_refill:gas-1:completed", time.Hour).Return(false, nil)

	w := f.do(http.MethodPost, "/webhooks/custody", []byte(`{}`), webhookHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData(t, w)["duplicate"])
}

func TestCustodyWebhook_ReplayGuardDownStillQueues(t *testing.T) {
	f := setup(t)
	event := &domain.ProviderEvent{Kind: domain.ProviderEventAccount, AccountID: "vault-9"}

	f.parser.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(event, nil)
	f.replay.EXPECT().FirstSeen(gomock.Any(), "custody", "account:vault-9", time.Hour).Return(false, errors.New("redis down"))
	f.queue.EXPECT().AddJob(gomock.Any(), ports.QueueSettlement, ports.JobProviderEvent, event, gomock.Any()).Return("job-2", nil)

	w := f.do(http.MethodPost, "/webhooks/custody", []byte(`{}`), webhookHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCustodyWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad signature", apperror.ErrInvalidSignature(), http.StatusUnauthorized, "SEC_002"},
		{"stale timestamp", apperror.ErrTimestampExpired(), http.StatusForbidden, "SEC_003"},
		{"malformed", apperror.ErrInvalidRequest("malformed webhook"), http.StatusBadRequest, "LED_001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.parser.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			w := f.do(http.MethodPost, "/webhooks/custody", []byte(`{}`), webhookHeaders())

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestCustodyWebhook_QueueDownAsksForRedelivery(t *testing.T) {
	f := setup(t)
	event := &domain.ProviderEvent{Kind: domain.ProviderEventFailed, ProviderRef: "tx-2"}

	f.parser.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(event, nil)
	f.replay.EXPECT().FirstSeen(gomock.Any(), "custody", "failed:tx-2", time.Hour).Return(true, nil)
	f.queue.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("redis down"))
	f.replay.EXPECT().Forget(gomock.Any(), "custody", "failed:tx-2").Return(nil)

	w := f.do(http.MethodPost, "/webhooks/custody", []byte(`{}`), webhookHeaders())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- Wallets ---

func TestWallet_RequiresToken(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodGet, "/api/v1/wallets/"+uuid.NewString()+"/balance", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWallet_GetBalance(t *testing.T) {
	f := setup(t)
	wallet := &domain.Wallet{ID: uuid.New(), UserID: f.userID, Asset: "USDC", Balance: "60.000000", Status: domain.WalletStatusActive}
	f.ledger.EXPECT().GetBalance(gomock.Any(), wallet.ID).Return(wallet, nil)

	w := f.authed(http.MethodGet, "/api/v1/wallets/"+wallet.ID.String()+"/balance", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "60.000000", data["balance"])
	assert.Equal(t, "USDC", data["asset"])
}

func TestWallet_OtherUsersWalletIsNotFound(t *testing.T) {
	f := setup(t)
	wallet := &domain.Wallet{ID: uuid.New(), UserID: uuid.New(), Asset: "USDC", Balance: "1"}
	f.ledger.EXPECT().GetBalance(gomock.Any(), wallet.ID).Return(wallet, nil)

	w := f.authed(http.MethodGet, "/api/v1/wallets/"+wallet.ID.String()+"/balance", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWallet_InvalidID(t *testing.T) {
	f := setup(t)

	w := f.authed(http.MethodGet, "/api/v1/wallets/not-a-uuid/balance", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWallet_ListTransactions(t *testing.T) {
	f := setup(t)
	wallet := &domain.Wallet{ID: uuid.New(), UserID: f.userID, Asset: "USDC", Balance: "40"}
	parent := uuid.New()
	completed := time.Now()

	f.ledger.EXPECT().GetBalance(gomock.Any(), wallet.ID).Return(wallet, nil)
	f.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter domain.TransactionFilter) ([]domain.WalletTransaction, int64, error) {
			assert.Equal(t, wallet.ID, filter.WalletID)
			assert.Equal(t, 2, filter.Page)
			assert.Equal(t, 20, filter.PageSize)
			require.NotNil(t, filter.Status)
			assert.Equal(t, domain.TransactionStatusCompleted, *filter.Status)
			assert.Nil(t, filter.Subtype)
			return []domain.WalletTransaction{{
				ID: uuid.New(), WalletID: wallet.ID, Type: domain.TransactionTypeCredit,
				Subtype: domain.SubtypeReversal, Amount: "10", Status: domain.TransactionStatusCompleted,
				ParentID: &parent, CompletedAt: &completed,
			}}, 21, nil
		})

	w := f.authed(http.MethodGet, "/api/v1/wallets/"+wallet.ID.String()+"/transactions?page=2&status=completed", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Page  int   `json:"page"`
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, parent.String(), resp.Data[0]["parent_id"])
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, int64(21), resp.Meta.Total)
}

func TestWallet_ListTransactionsBadQuery(t *testing.T) {
	f := setup(t)

	w := f.authed(http.MethodGet, "/api/v1/wallets/"+uuid.NewString()+"/transactions?status=settled", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWallet_EventsStream(t *testing.T) {
	f := setup(t)
	walletID := uuid.New()
	ch := make(chan domain.WalletBalanceChanged, 1)
	ch <- domain.WalletBalanceChanged{UserID: f.userID, WalletID: walletID, Asset: "USDC", PreviousBalance: "10", NewBalance: "25"}
	close(ch)

	cancelled := false
	f.events.EXPECT().Subscribe(gomock.Any(), f.userID).
		Return((<-chan domain.WalletBalanceChanged)(ch), func() { cancelled = true }, nil)

	w := f.authed(http.MethodGet, "/api/v1/wallets/events", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "event:balance")
	assert.Contains(t, body, walletID.String())
	assert.True(t, cancelled)
}

func TestWallet_EventsSubscribeFailure(t *testing.T) {
	f := setup(t)
	f.events.EXPECT().Subscribe(gomock.Any(), f.userID).Return(nil, nil, errors.New("redis down"))

	w := f.authed(http.MethodGet, "/api/v1/wallets/events", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- Exchanges ---

func exchangeBody() map[string]string {
	return map[string]string{
		"wallet_id":          uuid.NewString(),
		"amount":             "50",
		"country_code":       "NG",
		"currency":           "NGN",
		"rate_id":            "rate-1",
		"virtual_account_id": uuid.NewString(),
	}
}

func TestExchange_Create(t *testing.T) {
	f := setup(t)
	body := exchangeBody()
	job := &domain.ExchangeJob{ID: uuid.New(), Asset: "USDC", Amount: "50", Currency: "NGN", RequestedAt: time.Now()}

	f.exchange.EXPECT().RequestExchange(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.ExchangeRequest) (*domain.ExchangeJob, error) {
			assert.Equal(t, f.userID, req.UserID)
			assert.Equal(t, body["wallet_id"], req.WalletID.String())
			assert.Equal(t, "rate-1", req.RateID)
			return job, nil
		})

	w := f.authed(http.MethodPost, "/api/v1/exchanges", body)

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, job.ID.String(), data["job_id"])
	assert.Equal(t, "queued", data["status"])
}

func TestExchange_ValidationError(t *testing.T) {
	f := setup(t)
	body := exchangeBody()
	body["amount"] = "-1"

	w := f.authed(http.MethodPost, "/api/v1/exchanges", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LED_001", errorCode(t, w))
}

func TestExchange_InsufficientBalance(t *testing.T) {
	f := setup(t)
	f.exchange.EXPECT().RequestExchange(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientBalance())

	w := f.authed(http.MethodPost, "/api/v1/exchanges", exchangeBody())

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

// --- Points ---

func TestPoints_GetBalance(t *testing.T) {
	f := setup(t)
	f.points.EXPECT().GetBalance(gomock.Any(), f.userID).Return(&domain.PointsAccount{UserID: f.userID, Balance: 150}, nil)

	w := f.authed(http.MethodGet, "/api/v1/points/balance", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(150), decodeData(t, w)["balance"])
}

func TestPoints_Credit(t *testing.T) {
	f := setup(t)
	tx := &domain.PointsTransaction{ID: uuid.New(), EventCode: "signup", Amount: 100, BalanceAfter: 100}

	f.points.EXPECT().CreditPoints(gomock.Any(), ports.CreditPointsRequest{
		UserID:    f.userID,
		EventCode: "signup",
		SourceRef: "user-created",
	}).Return(&domain.CreditPointsResult{Transaction: tx}, nil)

	w := f.authed(http.MethodPost, "/api/v1/points/events/signup", map[string]string{"source_ref": "user-created"})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(100), data["amount"])
	assert.Equal(t, false, data["is_duplicate"])
}

func TestPoints_CreditErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"already earned", apperror.ErrAlreadyEarned(), http.StatusConflict},
		{"event ended", apperror.ErrEventInvalid(apperror.EventEnded), http.StatusUnprocessableEntity},
		{"lock timeout", apperror.ErrLockTimeout(errors.New("busy")), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.points.EXPECT().CreditPoints(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			w := f.authed(http.MethodPost, "/api/v1/points/events/promo", map[string]string{"source_ref": "order-9"})

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestPoints_CreditRequiresSource(t *testing.T) {
	f := setup(t)

	w := f.authed(http.MethodPost, "/api/v1/points/events/promo", []byte("{}"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

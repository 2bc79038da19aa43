package postgres

import (
	"context"
	"testing"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointsTxCols() []string {
	return []string{"id", "account_id", "user_id", "event_code", "source_ref", "one_time", "amount",
		"balance_before", "balance_after", "status", "idempotency_key", "description", "metadata", "created_at"}
}

func TestPointsRepo_GetEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPointsRepo(mock)
	id := uuid.New()
	ends := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery("SELECT .+ FROM points_events WHERE code").
		WithArgs("SIGNUP").
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name", "points", "is_active", "one_time_per_user", "starts_at", "ends_at"}).
			AddRow(id, "SIGNUP", "Sign up bonus", "50", true, true, (*time.Time)(nil), &ends))

	ev, err := repo.GetEvent(context.Background(), "SIGNUP")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "50", ev.Points)
	assert.True(t, ev.OneTimePerUser)
	assert.Nil(t, ev.StartsAt)
	assert.NotNil(t, ev.EndsAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepo_GetEvent_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPointsRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM points_events WHERE code").
		WithArgs("NOPE").
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name", "points", "is_active", "one_time_per_user", "starts_at", "ends_at"}))

	ev, err := repo.GetEvent(context.Background(), "NOPE")
	assert.NoError(t, err)
	assert.Nil(t, ev)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepo_GetOrCreateAccountForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPointsRepo(mock)
	userID := uuid.New()
	accountID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO points_accounts .+ ON CONFLICT \\(user_id\\) DO NOTHING").
		WithArgs(pgxmock.AnyArg(), userID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT .+ FROM points_accounts WHERE user_id .+ FOR UPDATE").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}).
			AddRow(accountID, userID, int64(0), now, now))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	acc, err := repo.GetOrCreateAccountForUpdate(context.Background(), tx, userID)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, accountID, acc.ID)
	assert.Equal(t, int64(0), acc.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepo_UpdateAccountBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPointsRepo(mock)
	accountID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE points_accounts SET balance").
		WithArgs(int64(150), accountID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.UpdateAccountBalance(context.Background(), tx, accountID, 150))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepo_CreateTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPointsRepo(mock)
	pt := &domain.PointsTransaction{
		ID:             uuid.New(),
		AccountID:      uuid.New(),
		UserID:         uuid.New(),
		EventCode:      "SIGNUP",
		SourceRef:      "signup",
		OneTime:        true,
		Amount:         50,
		BalanceBefore:  0,
		BalanceAfter:   50,
		Status:         domain.TransactionStatusCompleted,
		IdempotencyKey: "points:u:SIGNUP:signup",
		CreatedAt:      time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO points_transactions").
		WithArgs(pt.ID, pt.AccountID, pt.UserID, pt.EventCode, pt.SourceRef, pt.OneTime, pt.Amount, pt.BalanceBefore,
			pt.BalanceAfter, pt.Status, pt.IdempotencyKey, pt.Description, []byte("{}"), pt.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.CreateTransaction(context.Background(), tx, pt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepo_GetCompletedForEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPointsRepo(mock)
	userID := uuid.New()
	txID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM points_transactions\\s+WHERE user_id .+ AND event_code .+ status = 'completed'").
		WithArgs(userID, "SIGNUP").
		WillReturnRows(pgxmock.NewRows(pointsTxCols()).AddRow(
			txID, uuid.New(), userID, "SIGNUP", "signup", true, int64(50),
			int64(0), int64(50), domain.TransactionStatusCompleted, "points:k", "", []byte(`{"campaign":"q4"}`), time.Now(),
		))

	pt, err := repo.GetCompletedForEvent(context.Background(), userID, "SIGNUP")
	require.NoError(t, err)
	require.NotNil(t, pt)
	assert.Equal(t, txID, pt.ID)
	assert.Equal(t, "q4", pt.Metadata["campaign"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepo_GetTransactionByKey_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPointsRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM points_transactions WHERE idempotency_key").
		WithArgs("points:missing").
		WillReturnRows(pgxmock.NewRows(pointsTxCols()))

	pt, err := repo.GetTransactionByKey(context.Background(), "points:missing")
	assert.NoError(t, err)
	assert.Nil(t, pt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

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

func TestGasRefillRepo_Create(t *testing.T) {
	now := time.Now()
	g := &domain.GasRefill{
		ID: uuid.New(), ProviderRef: "gas-1", VaultID: "vault-9", Asset: "ETH", Amount: "0.01",
		Status: domain.GasRefillPending, CreatedAt: now, UpdatedAt: now,
	}
	const insert = "INSERT INTO gas_refills .+ ON CONFLICT \\(provider_ref\\) DO NOTHING RETURNING id"

	t.Run("inserted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(insert).
			WithArgs(g.ID, g.ProviderRef, g.VaultID, g.Asset, g.Amount, g.Status, g.TxHash, g.CreatedAt, g.UpdatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(g.ID))

		created, err := NewGasRefillRepo(mock).Create(context.Background(), g)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(insert).
			WithArgs(g.ID, g.ProviderRef, g.VaultID, g.Asset, g.Amount, g.Status, g.TxHash, g.CreatedAt, g.UpdatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		created, err := NewGasRefillRepo(mock).Create(context.Background(), g)
		require.NoError(t, err)
		assert.False(t, created, "a concurrent insert wins")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGasRefillRepo_GetByProviderRef(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewGasRefillRepo(mock)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM gas_refills WHERE provider_ref").
		WithArgs("gas-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "provider_ref", "vault_id", "asset", "amount", "status", "tx_hash", "created_at", "updated_at"}).
			AddRow(id, "gas-1", "vault-9", "ETH", "0.01", domain.GasRefillProcessing, (*string)(nil), now, now))

	g, err := repo.GetByProviderRef(context.Background(), "gas-1")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, domain.GasRefillProcessing, g.Status)
	assert.Nil(t, g.TxHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGasRefillRepo_UpdateStatus_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewGasRefillRepo(mock)
	id := uuid.New()
	hash := "0xaa"

	mock.ExpectExec("UPDATE gas_refills SET status").
		WithArgs(domain.GasRefillCompleted, &hash, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateStatus(context.Background(), id, domain.GasRefillCompleted, &hash)
	assert.ErrorContains(t, err, "gas refill not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVirtualAccountRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVirtualAccountRepo(mock)
	id := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM virtual_accounts WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "type", "provider", "currency", "account_number",
			"account_name", "bank_code", "created_at", "deleted_at"}).
			AddRow(id, userID, domain.VirtualAccountExchange, "rail-a", "NGN", "0123456789", "Ada Obi", "058", time.Now(), (*time.Time)(nil)))

	va, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, va)
	assert.True(t, va.IsDisposable())
	assert.False(t, va.IsDeleted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVirtualAccountRepo_SoftDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVirtualAccountRepo(mock)
	id := uuid.New()
	at := time.Now()

	mock.ExpectExec("UPDATE virtual_accounts SET deleted_at .+ deleted_at IS NULL").
		WithArgs(at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.NoError(t, repo.SoftDelete(context.Background(), id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRailTransferRepo_GetByJobID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRailTransferRepo(mock)
	jobID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM rail_transfers WHERE job_id").
		WithArgs(jobID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "job_id", "user_id", "transaction_id", "virtual_account_id",
			"provider", "currency", "status", "exchange_ref", "exchange_sequence_ref", "rail_ref",
			"settlement_address", "failure_reason", "attempt", "created_at", "updated_at"}))

	rt, err := repo.GetByJobID(context.Background(), jobID)
	assert.NoError(t, err)
	assert.Nil(t, rt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRailTransferRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRailTransferRepo(mock)
	txID := uuid.New()
	rt := &domain.RailTransfer{
		ID:            uuid.New(),
		TransactionID: &txID,
		Provider:      "rail-a",
		Status:        domain.RailTransferProcessing,
		RailRef:       domain.StrPtr("wd-1"),
		Attempt:       2,
	}

	mock.ExpectExec("UPDATE rail_transfers SET").
		WithArgs(rt.TransactionID, rt.Provider, rt.Status, rt.ExchangeRef, rt.ExchangeSequenceRef, rt.RailRef,
			rt.SettlementAddress, rt.FailureReason, rt.Attempt, rt.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Update(context.Background(), rt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

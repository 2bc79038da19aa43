package redis

import (
	"context"
	"testing"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceEvents_PublishAndSubscribe(t *testing.T) {
	_, client := newTestClient(t)
	events := NewBalanceEvents(client, "wallet:balance-changed", zerolog.Nop())
	ctx := context.Background()
	userID := uuid.New()

	stream, cancel, err := events.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer cancel()

	other := domain.WalletBalanceChanged{UserID: uuid.New(), NewBalance: "1"}
	require.NoError(t, events.PublishBalanceChanged(ctx, other))

	want := domain.WalletBalanceChanged{
		UserID:          userID,
		WalletID:        uuid.New(),
		Asset:           "USDC",
		PreviousBalance: "100.000000",
		NewBalance:      "60.000000",
		TransactionID:   uuid.New(),
		OccurredAt:      time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, events.PublishBalanceChanged(ctx, want))

	select {
	case got := <-stream:
		assert.Equal(t, want.WalletID, got.WalletID)
		assert.Equal(t, "60.000000", got.NewBalance)
		assert.True(t, want.OccurredAt.Equal(got.OccurredAt))
	case <-time.After(2 * time.Second):
		t.Fatal("no balance event received")
	}
}

func TestBalanceEvents_CancelClosesStream(t *testing.T) {
	_, client := newTestClient(t)
	events := NewBalanceEvents(client, "wallet:balance-changed", zerolog.Nop())

	stream, cancel, err := events.Subscribe(context.Background(), uuid.New())
	require.NoError(t, err)

	cancel()
	cancel()

	select {
	case _, ok := <-stream:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed")
	}
}

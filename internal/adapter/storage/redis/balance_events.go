package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// BalanceEvents publishes and streams WalletBalanceChanged over Redis pub/sub.
// Each user has a dedicated channel: {channel}:{userID}.
type BalanceEvents struct {
	client  *goredis.Client
	channel string
	log     zerolog.Logger
}

// NewBalanceEvents creates the pub/sub adapter. It satisfies both
// ports.BalancePublisher and ports.BalanceSubscriber.
func NewBalanceEvents(client *goredis.Client, channel string, log zerolog.Logger) *BalanceEvents {
	return &BalanceEvents{
		client:  client,
		channel: channel,
		log:     log.With().Str("component", "balance_events").Logger(),
	}
}

func (b *BalanceEvents) userChannel(userID uuid.UUID) string {
	return b.channel + ":" + userID.String()
}

// PublishBalanceChanged fans the event out to the user's live subscribers.
func (b *BalanceEvents) PublishBalanceChanged(ctx context.Context, event domain.WalletBalanceChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode balance event: %w", err)
	}
	if err := b.client.Publish(ctx, b.userChannel(event.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish balance event: %w", err)
	}
	return nil
}

// Subscribe streams userID's balance changes until cancel is called or ctx is
// done. The returned channel is closed on either.
func (b *BalanceEvents) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan domain.WalletBalanceChanged, func(), error) {
	pubsub := b.client.Subscribe(ctx, b.userChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe balance events: %w", err)
	}

	out := make(chan domain.WalletBalanceChanged, 16)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		defer cancel()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event domain.WalletBalanceChanged
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.log.Warn().Err(err).Msg("dropping undecodable balance event")
					continue
				}
				select {
				case out <- event:
				default:
					b.log.Warn().Str("user_id", userID.String()).Msg("slow balance subscriber, event dropped")
				}
			}
		}
	}()

	return out, cancel, nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// IdempotencyCache implements ports.IdempotencyCache. Each ledger idempotency
// key maps to the id of the wallet transaction it produced, so a retried
// debit or credit is answered without taking the wallet lock.
type IdempotencyCache struct {
	client *goredis.Client
	prefix string
}

func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{
		client: client,
		prefix: "ledger:idempotency:",
	}
}

// Lookup reports the transaction recorded for key. An entry that is not a
// transaction id is dropped and reported as a miss, leaving the decision to
// the database.
func (c *IdempotencyCache) Lookup(ctx context.Context, key string) (uuid.UUID, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("redis idempotency lookup: %w", err)
	}
	txID, err := uuid.Parse(raw)
	if err != nil {
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return uuid.Nil, false, nil
	}
	return txID, true, nil
}

// Remember records txID under key for ttl. A key is only ever remembered for
// the transaction that committed it, so a later write simply refreshes it.
func (c *IdempotencyCache) Remember(ctx context.Context, key string, txID uuid.UUID, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, txID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency remember: %w", err)
	}
	return nil
}

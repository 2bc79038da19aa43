package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReplayGuard implements ports.ReplayGuard using Redis SET NX.
type ReplayGuard struct {
	client *goredis.Client
	prefix string
}

// NewReplayGuard creates a new Redis-backed replay guard.
func NewReplayGuard(client *goredis.Client) *ReplayGuard {
	return &ReplayGuard{
		client: client,
		prefix: "replay:",
	}
}

// FirstSeen atomically records id under scope. It returns true the first time
// id is presented within ttl and false for every later delivery.
func (g *ReplayGuard) FirstSeen(ctx context.Context, scope, id string, ttl time.Duration) (bool, error) {
	key := g.key(scope, id)
	result, err := g.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis replay check: %w", err)
	}
	return result == "OK", nil
}

// Forget removes id so the next delivery counts as first seen.
func (g *ReplayGuard) Forget(ctx context.Context, scope, id string) error {
	if err := g.client.Del(ctx, g.key(scope, id)).Err(); err != nil {
		return fmt.Errorf("redis replay forget: %w", err)
	}
	return nil
}

func (g *ReplayGuard) key(scope, id string) string {
	return g.prefix + scope + ":" + id
}

package redis

import (
	"context"
	"fmt"

	"asset-ledger/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// scriptCheck is run once at startup. Wallet locks and queue claims are Lua
// scripts, so a server with scripting disabled is rejected up front.
var scriptCheck = goredis.NewScript(`return 1`)

// NewClient connects the client shared by wallet locks, the job queue, the
// replay guard, balance pub/sub and the idempotency fast path. Command
// deadlines follow the caller's context so a lock-bounded ledger mutation
// never waits on Redis past its lock TTL.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:                  cfg.Addr(),
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ContextTimeoutEnabled: true,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	if err := scriptCheck.Run(ctx, client, nil).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis lua scripting unavailable: %w", err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("redis ready for wallet locks and job queues")

	return client, nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired holder never frees a successor's lock.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const releaseTimeout = 2 * time.Second

// Locker implements ports.Locker with SET NX PX and a Lua compare-and-delete.
type Locker struct {
	client *goredis.Client
	prefix string
	log    zerolog.Logger
}

// NewLocker creates a Redis-backed distributed lock.
func NewLocker(client *goredis.Client, log zerolog.Logger) *Locker {
	return &Locker{
		client: client,
		prefix: "lock:",
		log:    log.With().Str("component", "redis_locker").Logger(),
	}
}

// WithLock runs fn while holding key. fn receives a context bounded by the
// lock TTL. The lock is released on every exit path, including panics.
func (l *Locker) WithLock(ctx context.Context, key string, opts ports.LockOptions, fn func(ctx context.Context) error) error {
	lockKey := l.prefix + key
	token := uuid.NewString()

	if err := l.acquire(ctx, lockKey, token, opts); err != nil {
		return err
	}
	defer l.release(ctx, lockKey, token)

	fnCtx := ctx
	if opts.TTL > 0 {
		var cancel context.CancelFunc
		fnCtx, cancel = context.WithTimeout(ctx, opts.TTL)
		defer cancel()
	}

	start := time.Now()
	err := fn(fnCtx)
	if elapsed := time.Since(start); elapsed > opts.TTL {
		l.log.Warn().
			Str("key", key).
			Dur("elapsed", elapsed).
			Dur("ttl", opts.TTL).
			Msg("critical section outlived lock ttl")
	}
	return err
}

func (l *Locker) acquire(ctx context.Context, lockKey, token string, opts ports.LockOptions) error {
	attempts := opts.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		ok, err := l.client.SetArgs(ctx, lockKey, token, goredis.SetArgs{Mode: "NX", TTL: opts.TTL}).Result()
		switch {
		case err == nil && ok == "OK":
			return nil
		case err != nil && !errors.Is(err, goredis.Nil):
			if ctx.Err() != nil {
				return apperror.ErrLockTimeout(ctx.Err())
			}
			return apperror.ErrUnavailable(fmt.Errorf("acquire lock %s: %w", lockKey, err))
		}

		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperror.ErrLockTimeout(ctx.Err())
		case <-timer.C:
		}
	}

	return apperror.ErrLockTimeout(fmt.Errorf("lock %s still held after %d attempts", lockKey, attempts))
}

func (l *Locker) release(ctx context.Context, lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		l.log.Warn().Err(err).Str("key", lockKey).Msg("failed to release lock")
	}
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"asset-ledger/internal/core/ports"
	"asset-ledger/pkg/apperror"
)

// Locker is a process-local ports.Locker for the memory driver. Unlike the
// redis locker it cannot lose exclusivity on TTL expiry; the TTL only bounds
// the context handed to fn.
type Locker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]chan struct{})}
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

func (l *Locker) WithLock(ctx context.Context, key string, opts ports.LockOptions, fn func(ctx context.Context) error) error {
	ch := l.slot(key)
	attempts := opts.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	acquired := false
	for i := 0; i < attempts && !acquired; i++ {
		select {
		case ch <- struct{}{}:
			acquired = true
			continue
		default:
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
	if !acquired {
		return apperror.ErrLockTimeout(fmt.Errorf("lock %s still held after %d attempts", key, attempts))
	}
	defer func() { <-ch }()

	fnCtx := ctx
	if opts.TTL > 0 {
		var cancel context.CancelFunc
		fnCtx, cancel = context.WithTimeout(ctx, opts.TTL)
		defer cancel()
	}
	return fn(fnCtx)
}

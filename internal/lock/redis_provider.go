package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
)

const defaultRetryDelay = 100 * time.Millisecond

// RedisProvider implements Provider with the redsync algorithm on a single
// redis node.
type RedisProvider struct {
	rs         *redsync.Redsync
	retryDelay time.Duration
}

func NewRedisProvider(client *redis.Client, retryDelay time.Duration) *RedisProvider {
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &RedisProvider{
		rs:         redsync.New(goredis.NewPool(client)),
		retryDelay: retryDelay,
	}
}

func (p *RedisProvider) Acquire(ctx context.Context, key string, wait, hold time.Duration) (Handle, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrNotAcquired)
	}
	if hold <= 0 {
		return nil, fmt.Errorf("%w: hold timeout must be positive", ErrNotAcquired)
	}

	tries := 1
	if wait > 0 {
		tries = int(wait/p.retryDelay) + 1

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	mutex := p.rs.NewMutex(key,
		redsync.WithExpiry(hold),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(p.retryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}

	return &redisHandle{mutex: mutex}, nil
}

type redisHandle struct {
	mutex *redsync.Mutex
}

// Release runs on a context detached from the caller's cancellation so a
// cancelled request still frees its lock. Any failure to confirm the release
// is reported as ErrNotHeld.
func (h *redisHandle) Release(ctx context.Context) error {
	ok, err := h.mutex.UnlockContext(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotHeld, h.mutex.Name(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotHeld, h.mutex.Name())
	}
	return nil
}

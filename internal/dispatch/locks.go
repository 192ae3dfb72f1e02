// internal/dispatch/locks.go
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker provides the soft per-shop mutual exclusion between overlapping
// passes: two concurrent passes must never refresh the same shop's token,
// since a double refresh invalidates one of the resulting refresh tokens.
type Locker interface {
	// TryAcquire returns a release func when the lock was taken, or
	// ok=false when another pass holds it.
	TryAcquire(ctx context.Context, shopID int64) (release func(), ok bool, err error)
}

const lockTTL = 2 * time.Minute

// redisLocker uses SET NX with a TTL so a crashed pass cannot wedge a shop.
type redisLocker struct {
	cli *redis.Client
}

func NewRedisLocker(cli *redis.Client) Locker {
	return &redisLocker{cli: cli}
}

func (l *redisLocker) TryAcquire(ctx context.Context, shopID int64) (func(), bool, error) {
	key := fmt.Sprintf("pacer:pass-lock:%d", shopID)
	ok, err := l.cli.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return func() { _ = l.cli.Del(context.Background(), key).Err() }, true, nil
}

// memLocker serves single-process dev deployments without Redis.
type memLocker struct {
	mu   sync.Mutex
	held map[int64]bool
}

func NewMemoryLocker() Locker {
	return &memLocker{held: map[int64]bool{}}
}

func (l *memLocker) TryAcquire(ctx context.Context, shopID int64) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[shopID] {
		return nil, false, nil
	}
	l.held[shopID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, shopID)
	}, true, nil
}

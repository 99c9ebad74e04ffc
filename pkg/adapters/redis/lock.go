package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
)

// ErrLockAcquire is returned when Redis rejects the lock command itself.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

const defaultRetry = 50 * time.Millisecond

// unlockScript deletes KEYS[1] only while it still holds ARGV[1], so a holder
// whose ttl expired cannot release a lock that someone else now owns.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker serializes macro registry writes for one user across replicas.
type Locker struct {
	client *backend.Client
	prefix string
	retry  time.Duration
}

// NewLocker returns a Locker storing keys as <prefix>lock:<key>.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix, retry: defaultRetry}
}

// Lock polls SET NX PX until it wins or ctx ends.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	for {
		won, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			return nil, fmt.Errorf("%w: %v", ErrLockAcquire, err)
		case won:
			return func(ctx context.Context) error {
				return unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err()
			}, nil
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

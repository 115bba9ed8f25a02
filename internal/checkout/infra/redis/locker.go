package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	checkoutapp "github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "checkout:lock:"

// ErrLockLost is returned on release when the lock expired before the
// checkout finished.
var ErrLockLost = errors.New("checkout lock expired before release")

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Locker is a checkout lock shared by every api instance. The ttl bounds how
// long a crashed holder can block its owner.
type Locker struct {
	client   redis.Cmdable
	ttl      time.Duration
	newToken func() string
}

func NewLocker(client redis.Cmdable, ttl time.Duration) *Locker {
	return &Locker{
		client:   client,
		ttl:      ttl,
		newToken: uuid.NewString,
	}
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	k := keyPrefix + key
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", k, err)
	}
	if !ok {
		return nil, checkoutapp.ErrCheckoutInProgress
	}

	return func(ctx context.Context) error {
		n, err := l.client.Eval(ctx, releaseScript, []string{k}, token).Int64()
		if err != nil {
			return fmt.Errorf("failed to release %s: %w", k, err)
		}
		if n == 0 {
			return ErrLockLost
		}
		return nil
	}, nil
}

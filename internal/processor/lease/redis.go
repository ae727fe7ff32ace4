// Package lease provides a Redis-backed tick lease so that only one detector
// replica drains the transaction source at a time.
package lease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey = "detector:tick-lease"
	DefaultTTL = 60 * time.Second
)

// releaseScript deletes the lease only if it still carries our token, so an
// expired lease that another replica has taken over is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript resets the lease TTL only if it still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a single-holder lease stored under one key. The holder renews it
// while a tick runs; a holder that crashes frees the lease when the key
// expires.
type Redis struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

type Option func(*Redis)

func WithKey(key string) Option {
	return func(r *Redis) {
		r.key = key
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

func NewRedis(client redis.Cmdable, opts ...Option) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}

	r := &Redis{
		client: client,
		key:    DefaultKey,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.key == "" {
		return nil, errors.New("lease key is required")
	}
	if r.ttl <= 0 {
		return nil, fmt.Errorf("lease ttl must be positive, got %s", r.ttl)
	}

	return r, nil
}

// Acquire takes the lease if no replica holds it.
func (r *Redis) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", r.key, err)
	}
	if !ok {
		return false, nil
	}

	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
	return true, nil
}

// Renew pushes the lease expiry a full TTL into the future. It reports false
// when this instance holds no lease or the lease expired and was taken by
// another replica.
func (r *Redis) Renew(ctx context.Context) (bool, error) {
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()

	if token == "" {
		return false, nil
	}
	n, err := renewScript.Run(ctx, r.client, []string{r.key}, token, r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("renew lease %s: %w", r.key, err)
	}
	return n == 1, nil
}

// Release gives the lease up. Releasing a lease this instance does not hold
// is a no-op.
func (r *Redis) Release(ctx context.Context) error {
	r.mu.Lock()
	token := r.token
	r.token = ""
	r.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
		return fmt.Errorf("release lease %s: %w", r.key, err)
	}
	return nil
}

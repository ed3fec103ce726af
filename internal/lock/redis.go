package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every instance talking to the same server.
// The TTL bounds how long a crashed holder can block a key.
type Redis struct {
	client redis.UniversalClient
	prefix string
	wait   time.Duration
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(client redis.UniversalClient, wait, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: "booking:lock:",
		wait:   wait,
		ttl:    ttl,
		retry:  20 * time.Millisecond,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	name := r.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.client.SetNX(ctx, name, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().Add(r.retry).After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-time.After(r.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be done; release must still reach redis
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, r.client, []string{name}, token).Err()
		})
	}, nil
}

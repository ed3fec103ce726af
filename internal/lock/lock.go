// Package lock provides bounded per-key mutual exclusion.
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a key stays held past the wait budget.
var ErrTimeout = errors.New("lock: wait timeout")

// Unlock releases a held key. Calling it more than once is a no-op.
type Unlock func()

// Locker serializes work per key. Different keys never wait on each other.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

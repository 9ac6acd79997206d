// Package lock guards a milestone against concurrent completion attempts.
// The in-process Memory locker serves a single binary; Redis extends the
// guard across processes sharing a store.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned when another holder owns the key.
var ErrHeld = errors.New("lock held")

// DefaultTTL bounds how long a crashed holder can keep a key.
const DefaultTTL = 30 * time.Second

// Locker acquires short-lived exclusive keys. Release is idempotent and
// only removes the key if it is still owned by the caller.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

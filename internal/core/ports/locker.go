// internal/core/ports/locker.go
package ports

import "context"

// Locker serializes work on a key. Lock blocks until the key is free or ctx
// is done; the returned func releases it and is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

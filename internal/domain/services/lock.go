package services

import "context"

// DocumentLocker serializes mutations of a single document.
// Lock blocks until the key is held or ctx is done; the returned func releases it.
type DocumentLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

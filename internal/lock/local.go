package lock

import (
	"context"
	"sync"
)

// Local serializes access per key within a single process.
type Local struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock is a one-slot semaphore; refs counts holders and waiters so the
// entry can be dropped once nobody needs it.
type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewLocal creates an in-process locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *Local) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

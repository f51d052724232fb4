package synthesis

import (
	"context"
	"sync"
)

// userLocks serializes work per user. Waiters blocked on a channel send are woken in
// arrival order, so turns are persisted in the order requests acquired the lock.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	ch   chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

// acquire blocks until userID's lock is held or ctx is done.
func (l *userLocks) acquire(ctx context.Context, userID int64) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			l.unref(userID, lock)
		}, nil
	case <-ctx.Done():
		l.unref(userID, lock)
		return nil, ctx.Err()
	}
}

func (l *userLocks) unref(userID int64, lock *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, userID)
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

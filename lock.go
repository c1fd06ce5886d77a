package dbcore

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// locker serializes access to a pinned connection. SingleWriter and
// SingleConnection share one physical connection across goroutines, so every
// command and every transaction on that connection must acquire the lock
// before touching it. KeepAlive also hands out a real lock, although its
// pinned connection never serves caller traffic.
type locker interface {
	Lock(ctx context.Context) error
	Unlock()
}

// weightedLocker is a reusable async/sync-capable mutex backed by
// golang.org/x/sync/semaphore.Weighted(1). Unlike sync.Mutex it honors
// context cancellation while waiting, which matters because a pinned
// connection's lock can be held for the duration of a transaction.
type weightedLocker struct {
	sem *semaphore.Weighted
}

func newWeightedLocker() *weightedLocker {
	return &weightedLocker{sem: semaphore.NewWeighted(1)}
}

func (l *weightedLocker) Lock(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *weightedLocker) Unlock() {
	l.sem.Release(1)
}

// noopLocker is used by the Standard strategy, where every connection is
// independent and no cross-goroutine serialization is required.
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context) error { return nil }
func (noopLocker) Unlock()                        {}

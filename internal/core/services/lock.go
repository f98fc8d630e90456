package services

import (
	"fmt"
	"sync/atomic"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// CycleLock serialises the operations that touch a job's crawl state.
// Acquisition never blocks: a second caller is told what is running.
type CycleLock struct {
	holder atomic.Pointer[string]
}

// TryAcquire takes the lock for op, or returns an error wrapping
// domain.ErrSyncInProgress that names the current holder.
func (l *CycleLock) TryAcquire(op string) error {
	if l.holder.CompareAndSwap(nil, &op) {
		return nil
	}
	if held := l.holder.Load(); held != nil {
		return fmt.Errorf("%w: %s is running", domain.ErrSyncInProgress, *held)
	}
	// Released between the two loads.
	return l.TryAcquire(op)
}

// Release frees the lock. Only the holder may call it.
func (l *CycleLock) Release() {
	l.holder.Store(nil)
}

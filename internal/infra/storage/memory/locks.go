package memory

import (
	"context"
	"sync"
	"time"

	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
)

// resourceLocks hands out one semaphore per resource id. Acquisition is
// bounded: a caller that cannot get the lock within the deadline receives
// ErrBusy instead of blocking indefinitely.
type resourceLocks struct {
	mu   sync.Mutex
	sems map[domainresource.ID]chan struct{}
}

func newResourceLocks() *resourceLocks {
	return &resourceLocks{sems: make(map[domainresource.ID]chan struct{})}
}

func (l *resourceLocks) semFor(id domainresource.ID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[id]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[id] = sem
	}
	return sem
}

func (l *resourceLocks) acquire(ctx context.Context, id domainresource.ID, timeout time.Duration) (func(), error) {
	sem := l.semFor(id)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-timer.C:
		return nil, domainreservation.ErrBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

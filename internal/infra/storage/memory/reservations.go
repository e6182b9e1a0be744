package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"reservd/internal/domain/availability"
	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
)

var ErrConcurrentUpdate = errors.New("memory: concurrent update detected")

const defaultLockTimeout = 2 * time.Second

// ReservationRepository keeps reservations in memory. Creation is serialized
// per resource through a keyed semaphore so the overlap check and the insert
// form one atomic step, matching the contract of CreateExclusive.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainreservation.ID]*domainreservation.Reservation

	locks *resourceLocks

	// LockTimeout bounds how long a create waits for the per-resource lock
	// before failing with ErrBusy.
	LockTimeout time.Duration
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{
		items: make(map[domainreservation.ID]*domainreservation.Reservation),
		locks: newResourceLocks(),
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rsv, ok := r.items[id]
	if !ok {
		return nil, domainreservation.ErrNotFound
	}
	return cloneReservation(rsv), nil
}

func (r *ReservationRepository) CreateExclusive(ctx context.Context, rsv *domainreservation.Reservation) error {
	release, err := r.locks.acquire(ctx, rsv.ResourceID, r.lockTimeout())
	if err != nil {
		return err
	}
	defer release()

	active, err := r.ActiveByResource(ctx, rsv.ResourceID)
	if err != nil {
		return err
	}
	if availability.Conflicts(active, rsv.Interval, rsv.ID) {
		return availability.ErrResourceUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[rsv.ID]; exists {
		return ErrConcurrentUpdate
	}
	r.items[rsv.ID] = cloneReservation(rsv)
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, rsv *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[rsv.ID]
	if !ok {
		return domainreservation.ErrNotFound
	}
	if current.Version != rsv.Version {
		return ErrConcurrentUpdate
	}
	rsv.Version++
	r.items[rsv.ID] = cloneReservation(rsv)
	return nil
}

func (r *ReservationRepository) ActiveByResource(ctx context.Context, resourceID domainresource.ID) ([]*domainreservation.Reservation, error) {
	return r.filter(func(rsv *domainreservation.Reservation) bool {
		return rsv.ResourceID == resourceID && rsv.Active()
	})
}

func (r *ReservationRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domainreservation.Reservation, error) {
	return r.filter(func(rsv *domainreservation.Reservation) bool {
		return rsv.RequesterID == requesterID
	})
}

func (r *ReservationRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domainreservation.Reservation, error) {
	return r.filter(func(rsv *domainreservation.Reservation) bool {
		return rsv.OwnerID == ownerID
	})
}

func (r *ReservationRepository) DueForCompletion(ctx context.Context, before time.Time, limit int) ([]*domainreservation.Reservation, error) {
	due, err := r.filter(func(rsv *domainreservation.Reservation) bool {
		return rsv.Status == domainreservation.StatusConfirmed && !rsv.Interval.End.After(before)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].Interval.End.Before(due[j].Interval.End)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *ReservationRepository) filter(keep func(*domainreservation.Reservation) bool) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainreservation.Reservation
	for _, rsv := range r.items {
		if keep(rsv) {
			out = append(out, cloneReservation(rsv))
		}
	}
	return out, nil
}

func (r *ReservationRepository) lockTimeout() time.Duration {
	if r.LockTimeout > 0 {
		return r.LockTimeout
	}
	return defaultLockTimeout
}

func cloneReservation(rsv *domainreservation.Reservation) *domainreservation.Reservation {
	clone := *rsv
	clone.ClearEvents()
	return &clone
}

var _ domainreservation.Repository = (*ReservationRepository)(nil)

package memory

import (
	"context"
	"errors"

	"reservd/internal/app/uow"
	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ResourcesRepo    domainresource.Repository
	ReservationsRepo domainreservation.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// beyond the repositories' own locking, but the abstraction matches the
// application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ResourcesRepo == nil || f.ReservationsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{resources: f.ResourcesRepo, reservations: f.ReservationsRepo}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	resources    domainresource.Repository
	reservations domainreservation.Repository
	hooks        []func()
}

func (u *Unit) Resources() domainresource.Repository {
	return u.resources
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) AfterCommit(fn func()) {
	if fn != nil {
		u.hooks = append(u.hooks, fn)
	}
}

func (u *Unit) Commit(ctx context.Context) error {
	hooks := u.hooks
	u.hooks = nil
	for _, fn := range hooks {
		fn()
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.hooks = nil
	return nil
}

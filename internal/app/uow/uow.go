package uow

import (
	"context"

	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Resources() domainresource.Repository
	Reservations() domainreservation.Repository

	// AfterCommit defers fn until Commit succeeds. Hooks registered on a
	// unit that rolls back, or whose commit fails, never run.
	AfterCommit(fn func())

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}

package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reservd/internal/app/uow"
	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ResourcesRepo    domainresource.Repository
	ReservationsRepo domainreservation.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:           f.DB,
		session:      session,
		resources:    f.ResourcesRepo,
		reservations: f.ReservationsRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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

// Commit finishes the transaction, then runs any deferred hooks. A write
// conflict on the shared slot document surfaces here as a transient error,
// meaning another writer won the race on the same resource; callers see the
// retryable busy error rather than a raw driver error.
func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		u.hooks = nil
		if isTransient(err) {
			return fmt.Errorf("%w: %v", domainreservation.ErrBusy, err)
		}
		return err
	}
	hooks := u.hooks
	u.hooks = nil
	for _, fn := range hooks {
		fn()
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	u.hooks = nil
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

func isTransient(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") || cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}

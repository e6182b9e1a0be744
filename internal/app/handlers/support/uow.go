package support

import (
	"context"

	"reservd/internal/app/uow"
)

// BeginUnit joins the ambient unit of work or starts a new one. The returned
// commit func is nil when the unit is ambient (the pipeline owns it).
func BeginUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, context.Context, func(context.Context) error, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, nil, nil, err
	}
	execCtx := ctx
	if injector, ok := newUnit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, newUnit.Commit, cleanup, nil
}

// BeginReadOnlyUnit joins the ambient unit or starts a read-only one.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, execCtx, _, cleanup, err := BeginUnit(ctx, factory, uow.TxOptions{ReadOnly: true})
	return unit, execCtx, cleanup, err
}

package reservation

import (
	"context"
	"fmt"
	"time"

	"reservd/internal/app/commands"
	"reservd/internal/app/dto"
	handlersupport "reservd/internal/app/handlers/support"
	"reservd/internal/app/middleware"
	"reservd/internal/app/notify"
	"reservd/internal/app/outbox"
	"reservd/internal/app/uow"
	"reservd/internal/domain/rates"
	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
	"reservd/internal/domain/shared/interval"
	"reservd/internal/domain/shared/money"
)

const createReservationKey = "reservation.create"

type CreateReservationCommand struct {
	CommandID   string
	ResourceID  string
	RequesterID string
	StartAt     time.Time
	EndAt       time.Time

	// SuppliedTotal is an optional caller-provided total. It is validated
	// against the calculator and rejected on mismatch; it never replaces
	// the authoritative price.
	SuppliedTotal *money.Money

	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string { return createReservationKey }

func (c CreateReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateReservationCommand) ResultPrototype() any { return &CreateReservationResult{} }

type CreateReservationResult struct {
	Reservation dto.Reservation `json:"reservation"`
}

type CreateReservationHandler struct {
	UoWFactory uow.UoWFactory
	Calculator rates.Calculator
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Effects    *notify.Dispatcher
	Clock      func() time.Time
}

func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*CreateReservationResult, error) {
	unit, execCtx, commit, cleanup, err := handlersupport.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	iv, err := interval.New(cmd.StartAt, cmd.EndAt)
	if err != nil {
		return nil, err
	}

	res, err := unit.Resources().ByID(execCtx, domainresource.ID(cmd.ResourceID))
	if err != nil {
		return nil, err
	}

	quote, err := h.Calculator.Quote(res.Rates, iv)
	if err != nil {
		return nil, err
	}
	if cmd.SuppliedTotal != nil && !cmd.SuppliedTotal.Equal(quote.Total) {
		return nil, fmt.Errorf("%w: got %d, computed %d", domainreservation.ErrPriceMismatch, cmd.SuppliedTotal.Amount, quote.Total.Amount)
	}

	now := h.now()
	rsv, err := domainreservation.New(domainreservation.CreateParams{
		ID:          domainreservation.ID(cmd.CommandID),
		ResourceID:  res.ID,
		RequesterID: cmd.RequesterID,
		OwnerID:     res.OwnerID,
		Interval:    iv,
		Price:       quote,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	// Conflict check and insert happen as one atomic step inside the store.
	if err := unit.Reservations().CreateExclusive(execCtx, rsv); err != nil {
		return nil, err
	}

	pending := rsv.PendingEvents()
	rsv.ClearEvents()
	if err := outbox.RecordDomainEvents(execCtx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	// Notifications wait for the durable write: if the commit fails, no
	// party hears about a reservation that does not exist.
	unit.AfterCommit(func() { h.Effects.ReservationCreated(rsv) })

	if commit != nil {
		if err := commit(execCtx); err != nil {
			return nil, err
		}
	}

	return &CreateReservationResult{Reservation: dto.MapReservation(rsv)}, nil
}

func (h *CreateReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateReservationHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateReservationCommand, *CreateReservationResult] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateReservationCommand)(nil)

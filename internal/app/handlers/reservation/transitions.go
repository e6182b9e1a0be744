package reservation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"reservd/internal/app/commands"
	"reservd/internal/app/dto"
	handlersupport "reservd/internal/app/handlers/support"
	"reservd/internal/app/notify"
	"reservd/internal/app/outbox"
	"reservd/internal/app/policies"
	"reservd/internal/app/uow"
	domainreservation "reservd/internal/domain/reservation"
)

const (
	confirmReservationKey  = "reservation.confirm"
	cancelReservationKey   = "reservation.cancel"
	completeReservationKey = "reservation.complete"
)

type ConfirmReservationCommand struct {
	ReservationID string
	ActorID       string
}

func (c ConfirmReservationCommand) Key() string { return confirmReservationKey }

type CancelReservationCommand struct {
	ReservationID string
	ActorID       string
	Reason        string
}

func (c CancelReservationCommand) Key() string { return cancelReservationKey }

// CompleteReservationCommand is issued by the completion sweeper, not by an
// end-user action.
type CompleteReservationCommand struct {
	ReservationID string
}

func (c CompleteReservationCommand) Key() string { return completeReservationKey }

type TransitionResult struct {
	Reservation dto.Reservation `json:"reservation"`
}

// TransitionDeps is the shared persistence plumbing behind every lifecycle
// transition handler.
type TransitionDeps struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func NewTransitionDeps(factory uow.UoWFactory, box outbox.Outbox, encoder outbox.EventEncoder) TransitionDeps {
	return TransitionDeps{UoWFactory: factory, Outbox: box, Encoder: encoder}
}

func (d TransitionDeps) now() time.Time {
	if d.Clock != nil {
		return d.Clock().UTC()
	}
	return time.Now().UTC()
}

func (d TransitionDeps) encoder() outbox.EventEncoder {
	if d.Encoder != nil {
		return d.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// apply loads the reservation, runs the transition, persists it and drains
// its events to the outbox inside one unit of work. The after callback is
// deferred until the unit commits, so side effects never fire for a
// transition that fails to land.
func (d TransitionDeps) apply(ctx context.Context, id string, mutate func(*domainreservation.Reservation) error, after func(*domainreservation.Reservation)) (*domainreservation.Reservation, error) {
	unit, execCtx, commit, cleanup, err := handlersupport.BeginUnit(ctx, d.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	rsv, err := unit.Reservations().ByID(execCtx, domainreservation.ID(id))
	if err != nil {
		return nil, err
	}
	if err := mutate(rsv); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(execCtx, rsv); err != nil {
		return nil, err
	}

	pending := rsv.PendingEvents()
	rsv.ClearEvents()
	if err := outbox.RecordDomainEvents(execCtx, d.Outbox, d.encoder(), pending); err != nil {
		return nil, err
	}

	if after != nil {
		unit.AfterCommit(func() { after(rsv) })
	}

	if commit != nil {
		if err := commit(execCtx); err != nil {
			return nil, err
		}
	}
	return rsv, nil
}

type ConfirmReservationHandler struct {
	TransitionDeps
	Payments policies.PaymentsPort
	Effects  *notify.Dispatcher
	Logger   *slog.Logger
}

func (h *ConfirmReservationHandler) Handle(ctx context.Context, cmd ConfirmReservationCommand) (*TransitionResult, error) {
	rsv, err := h.apply(ctx, cmd.ReservationID, func(r *domainreservation.Reservation) error {
		return r.Confirm(cmd.ActorID, h.paymentRef(ctx, cmd.ReservationID), h.now())
	}, h.Effects.ReservationConfirmed)
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("reservation confirmed", "reservation_id", rsv.ID, "actor_id", cmd.ActorID)
	}
	return &TransitionResult{Reservation: dto.MapReservation(rsv)}, nil
}

// paymentRef asks the gateway for an opaque hold reference. The reference is
// an annotation only; a gateway failure never blocks confirmation.
func (h *ConfirmReservationHandler) paymentRef(ctx context.Context, reservationID string) string {
	if h.Payments == nil {
		return ""
	}
	ref, err := h.Payments.HoldReference(ctx, reservationID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("payment reference unavailable", "reservation_id", reservationID, "error", err)
		}
		return ""
	}
	return ref
}

type CancelReservationHandler struct {
	TransitionDeps
	Effects *notify.Dispatcher
	Logger  *slog.Logger
}

func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*TransitionResult, error) {
	reason := strings.TrimSpace(cmd.Reason)
	rsv, err := h.apply(ctx, cmd.ReservationID, func(r *domainreservation.Reservation) error {
		return r.Cancel(cmd.ActorID, reason, h.now())
	}, func(r *domainreservation.Reservation) {
		h.Effects.ReservationCancelled(r, cmd.ActorID)
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("reservation cancelled", "reservation_id", rsv.ID, "actor_id", cmd.ActorID, "reason", reason)
	}
	return &TransitionResult{Reservation: dto.MapReservation(rsv)}, nil
}

type CompleteReservationHandler struct {
	TransitionDeps
	Effects *notify.Dispatcher
	Logger  *slog.Logger
}

func (h *CompleteReservationHandler) Handle(ctx context.Context, cmd CompleteReservationCommand) (*TransitionResult, error) {
	rsv, err := h.apply(ctx, cmd.ReservationID, func(r *domainreservation.Reservation) error {
		return r.Complete(h.now())
	}, h.Effects.ReservationCompleted)
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("reservation completed", "reservation_id", rsv.ID)
	}
	return &TransitionResult{Reservation: dto.MapReservation(rsv)}, nil
}

var _ commands.Handler[ConfirmReservationCommand, *TransitionResult] = (*ConfirmReservationHandler)(nil)
var _ commands.Handler[CancelReservationCommand, *TransitionResult] = (*CancelReservationHandler)(nil)
var _ commands.Handler[CompleteReservationCommand, *TransitionResult] = (*CompleteReservationHandler)(nil)

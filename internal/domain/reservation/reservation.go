package reservation

import (
	"context"
	"errors"
	"time"

	"reservd/internal/domain/rates"
	"reservd/internal/domain/resource"
	"reservd/internal/domain/shared/events"
	"reservd/internal/domain/shared/interval"
)

var (
	ErrInvalidTransition = errors.New("reservation: invalid state transition")
	ErrNotFound          = errors.New("reservation: not found")
	ErrPriceMismatch     = errors.New("reservation: supplied total disagrees with the computed price")
	ErrBusy              = errors.New("reservation: resource is busy, retry later")
	ErrRequesterRequired = errors.New("reservation: requester id required")
)

type ID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Reservation is a time-bounded claim on a resource. Its monetary snapshot is
// taken at creation and never recomputed.
type Reservation struct {
	ID          ID
	ResourceID  resource.ID
	RequesterID string
	OwnerID     string

	Interval      interval.Interval
	DurationHours int
	Price         rates.Quote

	Status     Status
	PaymentRef string

	CancelledBy        string
	CancellationReason string
	CancelledAt        time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64

	events.EventRecorder
}

// Active reports whether the reservation still holds its time slot. Only
// active reservations participate in conflict checks.
func (r *Reservation) Active() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

type CreateParams struct {
	ID          ID
	ResourceID  resource.ID
	RequesterID string
	OwnerID     string
	Interval    interval.Interval
	Price       rates.Quote
	CreatedAt   time.Time
}

func New(params CreateParams) (*Reservation, error) {
	if err := params.Interval.Validate(); err != nil {
		return nil, err
	}
	if params.RequesterID == "" {
		return nil, ErrRequesterRequired
	}
	now := params.CreatedAt.UTC()
	r := &Reservation{
		ID:            params.ID,
		ResourceID:    params.ResourceID,
		RequesterID:   params.RequesterID,
		OwnerID:       params.OwnerID,
		Interval:      params.Interval,
		DurationHours: params.Interval.Hours(),
		Price:         params.Price,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.Record(Requested{
		ReservationID: r.ID,
		ResourceID:    r.ResourceID,
		RequesterID:   r.RequesterID,
		OwnerID:       r.OwnerID,
		Interval:      r.Interval,
		Total:         r.Price.Total,
		At:            now,
	})
	return r, nil
}

// Confirm moves a pending reservation to confirmed. The payment reference is
// an opaque annotation from the gateway and is never validated here.
func (r *Reservation) Confirm(actorID, paymentRef string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	if paymentRef != "" {
		r.PaymentRef = paymentRef
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = now.UTC()
	r.Record(Confirmed{ReservationID: r.ID, ResourceID: r.ResourceID, RequesterID: r.RequesterID, ActorID: actorID, At: r.UpdatedAt})
	return nil
}

// Cancel is legal from pending or confirmed. Cancelled and completed are
// terminal, so a repeated cancel fails rather than silently succeeding.
func (r *Reservation) Cancel(actorID, reason string, now time.Time) error {
	switch r.Status {
	case StatusPending, StatusConfirmed:
	default:
		return ErrInvalidTransition
	}
	ts := now.UTC()
	r.Status = StatusCancelled
	r.CancelledBy = actorID
	r.CancellationReason = reason
	r.CancelledAt = ts
	r.UpdatedAt = ts
	r.Record(Cancelled{ReservationID: r.ID, ResourceID: r.ResourceID, RequesterID: r.RequesterID, OwnerID: r.OwnerID, ActorID: actorID, Reason: reason, At: ts})
	return nil
}

// Complete is invoked by the completion sweeper once the interval has passed.
func (r *Reservation) Complete(now time.Time) error {
	if r.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	r.Status = StatusCompleted
	r.UpdatedAt = now.UTC()
	r.Record(Completed{ReservationID: r.ID, ResourceID: r.ResourceID, RequesterID: r.RequesterID, At: r.UpdatedAt})
	return nil
}

// Counterparty returns the party to notify when actorID initiates a change:
// the owner when the requester acts, the requester otherwise.
func (r *Reservation) Counterparty(actorID string) string {
	if actorID == r.RequesterID {
		return r.OwnerID
	}
	return r.RequesterID
}

// Repository persists reservations.
//
// CreateExclusive performs the atomic check-and-insert: it verifies no active
// reservation overlaps the candidate interval and inserts in one indivisible
// step, returning availability.ErrResourceUnavailable on conflict and ErrBusy
// when the exclusivity guard cannot be acquired in time.
type Repository interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	CreateExclusive(ctx context.Context, r *Reservation) error
	Save(ctx context.Context, r *Reservation) error
	ActiveByResource(ctx context.Context, resourceID resource.ID) ([]*Reservation, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*Reservation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Reservation, error)
	DueForCompletion(ctx context.Context, before time.Time, limit int) ([]*Reservation, error)
}

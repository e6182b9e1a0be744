package reservation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"reservd/internal/app/dto"
	handlersupport "reservd/internal/app/handlers/support"
	"reservd/internal/app/queries"
	"reservd/internal/app/uow"
	"reservd/internal/domain/availability"
	"reservd/internal/domain/rates"
	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
	"reservd/internal/domain/shared/interval"
)

const (
	quotePriceKey        = "reservation.quote"
	checkAvailabilityKey = "reservation.availability"
	listByRequesterKey   = "reservation.list.requester"
	listByOwnerKey       = "reservation.list.owner"

	allStatusesFilterValue = "ALL"
)

type QuotePriceQuery struct {
	ResourceID string
	StartAt    time.Time
	EndAt      time.Time
}

func (q QuotePriceQuery) Key() string { return quotePriceKey }

type QuotePriceResult struct {
	Quote rates.Quote `json:"quote"`
}

// QuotePriceHandler prices a candidate interval without touching reservation
// state; it backs the pre-booking price preview.
type QuotePriceHandler struct {
	UoWFactory uow.UoWFactory
	Calculator rates.Calculator
}

func (h *QuotePriceHandler) Handle(ctx context.Context, q QuotePriceQuery) (*QuotePriceResult, error) {
	iv, err := interval.New(q.StartAt, q.EndAt)
	if err != nil {
		return nil, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	res, err := unit.Resources().ByID(execCtx, domainresource.ID(q.ResourceID))
	if err != nil {
		return nil, err
	}
	quote, err := h.Calculator.Quote(res.Rates, iv)
	if err != nil {
		return nil, err
	}
	return &QuotePriceResult{Quote: quote}, nil
}

type CheckAvailabilityQuery struct {
	ResourceID string
	StartAt    time.Time
	EndAt      time.Time
	ExcludeID  string
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityResult struct {
	Available bool `json:"available"`
}

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (*CheckAvailabilityResult, error) {
	iv, err := interval.New(q.StartAt, q.EndAt)
	if err != nil {
		return nil, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	index := availability.Index{Reservations: unit.Reservations()}
	ok, err := index.IsAvailable(execCtx, domainresource.ID(q.ResourceID), iv, domainreservation.ID(q.ExcludeID))
	if err != nil {
		return nil, err
	}
	return &CheckAvailabilityResult{Available: ok}, nil
}

type ListByRequesterQuery struct {
	RequesterID string
	Status      string
}

func (q ListByRequesterQuery) Key() string { return listByRequesterKey }

type ListByOwnerQuery struct {
	OwnerID string
	Status  string
}

func (q ListByOwnerQuery) Key() string { return listByOwnerKey }

type ListReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListReservationsHandler) HandleByRequester(ctx context.Context, q ListByRequesterQuery) (dto.ReservationCollection, error) {
	if strings.TrimSpace(q.RequesterID) == "" {
		return dto.ReservationCollection{}, errors.New("requester id is required")
	}
	return h.list(ctx, q.Status, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainreservation.Reservation, error) {
		return unit.Reservations().ListByRequester(ctx, q.RequesterID)
	})
}

func (h *ListReservationsHandler) HandleByOwner(ctx context.Context, q ListByOwnerQuery) (dto.ReservationCollection, error) {
	if strings.TrimSpace(q.OwnerID) == "" {
		return dto.ReservationCollection{}, errors.New("owner id is required")
	}
	return h.list(ctx, q.Status, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainreservation.Reservation, error) {
		return unit.Reservations().ListByOwner(ctx, q.OwnerID)
	})
}

func (h *ListReservationsHandler) list(ctx context.Context, status string, fetch func(context.Context, uow.UnitOfWork) ([]*domainreservation.Reservation, error)) (dto.ReservationCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := fetch(execCtx, unit)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	filter := strings.ToUpper(strings.TrimSpace(status))
	if filter != "" && filter != allStatusesFilterValue {
		kept := items[:0]
		for _, r := range items {
			if string(r.Status) == filter {
				kept = append(kept, r)
			}
		}
		items = kept
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.MapReservations(items), nil
}

var _ queries.Handler[QuotePriceQuery, *QuotePriceResult] = (*QuotePriceHandler)(nil)
var _ queries.Handler[CheckAvailabilityQuery, *CheckAvailabilityResult] = (*CheckAvailabilityHandler)(nil)

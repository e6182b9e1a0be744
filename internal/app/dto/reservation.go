package dto

import (
	"time"

	domainreservation "reservd/internal/domain/reservation"
	"reservd/internal/domain/shared/money"
)

// Reservation is the serialized view of a reservation row. Every audited
// field round-trips losslessly through JSON for export.
type Reservation struct {
	ID            string      `json:"id"`
	ResourceID    string      `json:"resource_id"`
	RequesterID   string      `json:"requester_id"`
	OwnerID       string      `json:"owner_id"`
	StartAt       time.Time   `json:"start_at"`
	EndAt         time.Time   `json:"end_at"`
	DurationHours int         `json:"duration_hours"`
	RateAtBooking money.Money `json:"rate_at_booking"`
	Subtotal      money.Money `json:"subtotal"`
	ServiceFee    money.Money `json:"service_fee"`
	TotalPrice    money.Money `json:"total_price"`
	Status        string      `json:"status"`
	PaymentRef    string      `json:"external_payment_ref,omitempty"`
	CancelledBy   string      `json:"cancelled_by,omitempty"`
	CancelReason  string      `json:"cancellation_reason,omitempty"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func MapReservation(r *domainreservation.Reservation) Reservation {
	view := Reservation{
		ID:            string(r.ID),
		ResourceID:    string(r.ResourceID),
		RequesterID:   r.RequesterID,
		OwnerID:       r.OwnerID,
		StartAt:       r.Interval.Start,
		EndAt:         r.Interval.End,
		DurationHours: r.DurationHours,
		RateAtBooking: r.Price.RateAtBooking,
		Subtotal:      r.Price.Subtotal,
		ServiceFee:    r.Price.ServiceFee,
		TotalPrice:    r.Price.Total,
		Status:        string(r.Status),
		PaymentRef:    r.PaymentRef,
		CancelledBy:   r.CancelledBy,
		CancelReason:  r.CancellationReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if !r.CancelledAt.IsZero() {
		at := r.CancelledAt
		view.CancelledAt = &at
	}
	return view
}

type ReservationCollection struct {
	Items []Reservation `json:"items"`
}

func MapReservations(items []*domainreservation.Reservation) ReservationCollection {
	out := ReservationCollection{Items: make([]Reservation, 0, len(items))}
	for _, r := range items {
		out.Items = append(out.Items, MapReservation(r))
	}
	return out
}

package rates

import (
	"errors"
	"fmt"

	"reservd/internal/domain/shared/interval"
	"reservd/internal/domain/shared/money"
)

var (
	ErrBelowMinimumDuration = errors.New("rates: duration below the resource minimum")
	ErrInvalidSchedule      = errors.New("rates: schedule requires a non-negative hourly rate")
)

const (
	// DefaultMinBookingHours applies when a schedule does not set its own minimum.
	DefaultMinBookingHours = 2
	// fallbackDayFactor derives a daily rate from the hourly one when the
	// schedule has no explicit daily price.
	fallbackDayFactor = 20

	hoursPerDay = 24
)

// Schedule is the tiered rate card attached to a resource.
type Schedule struct {
	PricePerHour    money.Money
	PricePerDay     *money.Money
	MinBookingHours int
}

func (s Schedule) Validate() error {
	if s.PricePerHour.Currency == "" || s.PricePerHour.Amount < 0 {
		return ErrInvalidSchedule
	}
	if s.PricePerDay != nil && s.PricePerDay.Amount < 0 {
		return ErrInvalidSchedule
	}
	return nil
}

// MinHours returns the effective minimum booking duration.
func (s Schedule) MinHours() int {
	if s.MinBookingHours > 0 {
		return s.MinBookingHours
	}
	return DefaultMinBookingHours
}

// DailyRate returns the explicit daily price or the hourly fallback.
func (s Schedule) DailyRate() money.Money {
	if s.PricePerDay != nil {
		return *s.PricePerDay
	}
	return s.PricePerHour.Multiply(fallbackDayFactor)
}

// BelowMinimumError carries the minimum the caller failed to meet.
type BelowMinimumError struct {
	MinHours int
	Got      int
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("rates: duration of %d hours is below the %d hour minimum", e.Got, e.MinHours)
}

func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrBelowMinimumDuration
}

// Quote is the monetary snapshot taken when a reservation is priced. It is
// immutable once attached to a reservation.
type Quote struct {
	DurationHours int         `json:"duration_hours" bson:"duration_hours"`
	RateAtBooking money.Money `json:"rate_at_booking" bson:"rate_at_booking"`
	DayRateUsed   bool        `json:"day_rate_used" bson:"day_rate_used"`
	Subtotal      money.Money `json:"subtotal" bson:"subtotal"`
	ServiceFee    money.Money `json:"service_fee" bson:"service_fee"`
	Total         money.Money `json:"total" bson:"total"`
}

// Calculator prices candidate intervals against a schedule. It is pure: the
// same schedule and interval always produce the same quote, so it doubles as
// the pre-booking price preview.
type Calculator struct {
	// ServiceFeeBps is the platform fee in basis points of the subtotal.
	ServiceFeeBps int64
}

// Quote prices the interval. Day-rate pricing applies once the duration
// reaches a full day and the effective daily rate is positive; otherwise the
// hourly rate is charged per started hour.
func (c Calculator) Quote(schedule Schedule, iv interval.Interval) (Quote, error) {
	if err := iv.Validate(); err != nil {
		return Quote{}, err
	}
	if err := schedule.Validate(); err != nil {
		return Quote{}, err
	}
	hours := iv.Hours()
	if min := schedule.MinHours(); hours < min {
		return Quote{}, &BelowMinimumError{MinHours: min, Got: hours}
	}

	q := Quote{DurationHours: hours, RateAtBooking: schedule.PricePerHour}
	daily := schedule.DailyRate()
	if hours >= hoursPerDay && daily.IsPositive() {
		days := int64((hours + hoursPerDay - 1) / hoursPerDay)
		q.Subtotal = daily.Multiply(days)
		q.DayRateUsed = true
	} else {
		q.Subtotal = schedule.PricePerHour.Multiply(int64(hours))
	}
	q.ServiceFee = q.Subtotal.Portion(c.ServiceFeeBps)
	total, err := q.Subtotal.Add(q.ServiceFee)
	if err != nil {
		return Quote{}, err
	}
	q.Total = total
	return q, nil
}

package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservd/internal/domain/shared/interval"
	"reservd/internal/domain/shared/money"
)

func spanHours(h int) interval.Interval {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return interval.Interval{Start: start, End: start.Add(time.Duration(h) * time.Hour)}
}

func TestQuoteHourlyPricing(t *testing.T) {
	schedule := Schedule{PricePerHour: money.Must(1000, "USD")}
	calc := Calculator{}

	q, err := calc.Quote(schedule, spanHours(3))
	require.NoError(t, err)
	assert.Equal(t, 3, q.DurationHours)
	assert.False(t, q.DayRateUsed)
	assert.Equal(t, int64(3000), q.Subtotal.Amount)
	assert.Equal(t, int64(3000), q.Total.Amount)
	assert.Equal(t, money.Must(1000, "USD"), q.RateAtBooking)
}

func TestQuoteDayRateCrossover(t *testing.T) {
	daily := money.Must(15000, "USD")
	schedule := Schedule{PricePerHour: money.Must(1000, "USD"), PricePerDay: &daily}
	calc := Calculator{}

	t.Run("just under a day stays hourly", func(t *testing.T) {
		q, err := calc.Quote(schedule, spanHours(23))
		require.NoError(t, err)
		assert.False(t, q.DayRateUsed)
		assert.Equal(t, int64(23000), q.Subtotal.Amount)
	})

	t.Run("exactly a day charges one day", func(t *testing.T) {
		q, err := calc.Quote(schedule, spanHours(24))
		require.NoError(t, err)
		assert.True(t, q.DayRateUsed)
		assert.Equal(t, int64(15000), q.Subtotal.Amount)
	})

	t.Run("partial second day rounds up", func(t *testing.T) {
		q, err := calc.Quote(schedule, spanHours(30))
		require.NoError(t, err)
		assert.True(t, q.DayRateUsed)
		assert.Equal(t, int64(30000), q.Subtotal.Amount)
	})
}

func TestQuoteDailyFallback(t *testing.T) {
	// No explicit daily rate: twenty hourly units stand in for a day.
	schedule := Schedule{PricePerHour: money.Must(1000, "USD")}
	calc := Calculator{}

	q, err := calc.Quote(schedule, spanHours(25))
	require.NoError(t, err)
	assert.True(t, q.DayRateUsed)
	assert.Equal(t, int64(40000), q.Subtotal.Amount)
}

func TestQuoteMinimumDuration(t *testing.T) {
	t.Run("default minimum", func(t *testing.T) {
		schedule := Schedule{PricePerHour: money.Must(1000, "USD")}
		_, err := Calculator{}.Quote(schedule, spanHours(1))
		assert.ErrorIs(t, err, ErrBelowMinimumDuration)

		var below *BelowMinimumError
		require.ErrorAs(t, err, &below)
		assert.Equal(t, DefaultMinBookingHours, below.MinHours)
		assert.Equal(t, 1, below.Got)
	})

	t.Run("explicit minimum", func(t *testing.T) {
		schedule := Schedule{PricePerHour: money.Must(1000, "USD"), MinBookingHours: 4}
		_, err := Calculator{}.Quote(schedule, spanHours(3))
		assert.ErrorIs(t, err, ErrBelowMinimumDuration)

		_, err = Calculator{}.Quote(schedule, spanHours(4))
		assert.NoError(t, err)
	})
}

func TestQuoteServiceFee(t *testing.T) {
	schedule := Schedule{PricePerHour: money.Must(1000, "USD")}
	calc := Calculator{ServiceFeeBps: 1000}

	q, err := calc.Quote(schedule, spanHours(5))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), q.Subtotal.Amount)
	assert.Equal(t, int64(500), q.ServiceFee.Amount)
	assert.Equal(t, int64(5500), q.Total.Amount)
}

func TestQuoteInvalidInputs(t *testing.T) {
	calc := Calculator{}

	_, err := calc.Quote(Schedule{PricePerHour: money.Must(1000, "USD")}, interval.Interval{})
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)

	_, err = calc.Quote(Schedule{}, spanHours(3))
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestQuoteIsDeterministic(t *testing.T) {
	schedule := Schedule{PricePerHour: money.Must(750, "EUR"), MinBookingHours: 1}
	calc := Calculator{ServiceFeeBps: 250}

	first, err := calc.Quote(schedule, spanHours(6))
	require.NoError(t, err)
	second, err := calc.Quote(schedule, spanHours(6))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

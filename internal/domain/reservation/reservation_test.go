package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservd/internal/domain/rates"
	"reservd/internal/domain/shared/interval"
	"reservd/internal/domain/shared/money"
)

func newPending(t *testing.T) *Reservation {
	t.Helper()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	iv, err := interval.New(start, start.Add(4*time.Hour))
	require.NoError(t, err)
	r, err := New(CreateParams{
		ID:          "rsv-1",
		ResourceID:  "res-1",
		RequesterID: "user-1",
		OwnerID:     "owner-1",
		Interval:    iv,
		Price:       rates.Quote{Total: money.Must(4000, "USD")},
		CreatedAt:   start.Add(-time.Hour),
	})
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	r := newPending(t)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, 4, r.DurationHours)
	assert.True(t, r.Active())

	events := r.PendingEvents()
	require.Len(t, events, 1)
	requested, ok := events[0].(Requested)
	require.True(t, ok)
	assert.Equal(t, ID("rsv-1"), requested.ReservationID)
	assert.Equal(t, "owner-1", requested.OwnerID)
}

func TestNewRequiresRequester(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	iv, err := interval.New(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = New(CreateParams{ID: "rsv-1", ResourceID: "res-1", Interval: iv})
	assert.ErrorIs(t, err, ErrRequesterRequired)
}

func TestConfirm(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("pending confirms", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Confirm("owner-1", "pay-123", now))
		assert.Equal(t, StatusConfirmed, r.Status)
		assert.Equal(t, "pay-123", r.PaymentRef)
		assert.True(t, r.Active())
	})

	t.Run("double confirm fails", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Confirm("owner-1", "", now))
		assert.ErrorIs(t, r.Confirm("owner-1", "", now), ErrInvalidTransition)
	})

	t.Run("empty payment ref leaves annotation blank", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Confirm("owner-1", "", now))
		assert.Empty(t, r.PaymentRef)
	})
}

func TestCancel(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("from pending", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Cancel("user-1", "changed plans", now))
		assert.Equal(t, StatusCancelled, r.Status)
		assert.Equal(t, "user-1", r.CancelledBy)
		assert.Equal(t, "changed plans", r.CancellationReason)
		assert.False(t, r.Active())
	})

	t.Run("from confirmed", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Confirm("owner-1", "", now))
		require.NoError(t, r.Cancel("owner-1", "", now))
		assert.Equal(t, StatusCancelled, r.Status)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Cancel("user-1", "", now))
		assert.ErrorIs(t, r.Cancel("user-1", "", now), ErrInvalidTransition)
		assert.ErrorIs(t, r.Confirm("owner-1", "", now), ErrInvalidTransition)
	})
}

func TestComplete(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)

	t.Run("confirmed completes", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Confirm("owner-1", "", now))
		require.NoError(t, r.Complete(now))
		assert.Equal(t, StatusCompleted, r.Status)
		assert.False(t, r.Active())
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		r := newPending(t)
		assert.ErrorIs(t, r.Complete(now), ErrInvalidTransition)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Confirm("owner-1", "", now))
		require.NoError(t, r.Complete(now))
		assert.ErrorIs(t, r.Cancel("user-1", "", now), ErrInvalidTransition)
		assert.ErrorIs(t, r.Complete(now), ErrInvalidTransition)
	})
}

func TestTransitionEvents(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	r := newPending(t)
	r.ClearEvents()

	require.NoError(t, r.Confirm("owner-1", "", now))
	require.NoError(t, r.Complete(now))

	events := r.PendingEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "reservation.confirmed", events[0].EventName())
	assert.Equal(t, "reservation.completed", events[1].EventName())
}

func TestCounterparty(t *testing.T) {
	r := newPending(t)
	assert.Equal(t, "owner-1", r.Counterparty("user-1"))
	assert.Equal(t, "user-1", r.Counterparty("owner-1"))
	assert.Equal(t, "user-1", r.Counterparty("someone-else"))
}

package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
	"reservd/internal/domain/shared/interval"
)

func span(startHour, endHour int) interval.Interval {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return interval.Interval{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

func existing(id string, iv interval.Interval, status domainreservation.Status) *domainreservation.Reservation {
	return &domainreservation.Reservation{
		ID:         domainreservation.ID(id),
		ResourceID: "res-1",
		Interval:   iv,
		Status:     status,
	}
}

func TestConflicts(t *testing.T) {
	cases := []struct {
		name      string
		existing  []*domainreservation.Reservation
		candidate interval.Interval
		exclude   domainreservation.ID
		want      bool
	}{
		{
			name:      "no reservations",
			candidate: span(10, 12),
			want:      false,
		},
		{
			name:      "overlap with pending",
			existing:  []*domainreservation.Reservation{existing("a", span(10, 14), domainreservation.StatusPending)},
			candidate: span(12, 16),
			want:      true,
		},
		{
			name:      "overlap with confirmed",
			existing:  []*domainreservation.Reservation{existing("a", span(10, 14), domainreservation.StatusConfirmed)},
			candidate: span(12, 16),
			want:      true,
		},
		{
			name:      "cancelled frees the slot",
			existing:  []*domainreservation.Reservation{existing("a", span(10, 14), domainreservation.StatusCancelled)},
			candidate: span(12, 16),
			want:      false,
		},
		{
			name:      "completed frees the slot",
			existing:  []*domainreservation.Reservation{existing("a", span(10, 14), domainreservation.StatusCompleted)},
			candidate: span(12, 16),
			want:      false,
		},
		{
			name:      "back to back is legal",
			existing:  []*domainreservation.Reservation{existing("a", span(10, 12), domainreservation.StatusConfirmed)},
			candidate: span(12, 14),
			want:      false,
		},
		{
			name:      "excluded id is ignored",
			existing:  []*domainreservation.Reservation{existing("a", span(10, 14), domainreservation.StatusConfirmed)},
			candidate: span(12, 16),
			exclude:   "a",
			want:      false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Conflicts(tc.existing, tc.candidate, tc.exclude))
		})
	}
}

type stubRepo struct {
	domainreservation.Repository
	active []*domainreservation.Reservation
}

func (s stubRepo) ActiveByResource(ctx context.Context, resourceID domainresource.ID) ([]*domainreservation.Reservation, error) {
	return s.active, nil
}

func TestIndexIsAvailable(t *testing.T) {
	ix := Index{Reservations: stubRepo{active: []*domainreservation.Reservation{
		existing("a", span(10, 12), domainreservation.StatusConfirmed),
	}}}

	ok, err := ix.IsAvailable(context.Background(), "res-1", span(12, 14), "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ix.IsAvailable(context.Background(), "res-1", span(11, 13), "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ix.IsAvailable(context.Background(), "res-1", interval.Interval{}, "")
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)
}

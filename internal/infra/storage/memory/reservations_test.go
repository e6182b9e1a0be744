package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservd/internal/domain/availability"
	"reservd/internal/domain/rates"
	domainreservation "reservd/internal/domain/reservation"
	"reservd/internal/domain/shared/interval"
	"reservd/internal/domain/shared/money"
)

func span(startHour, endHour int) interval.Interval {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return interval.Interval{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

func newReservation(t *testing.T, id string, iv interval.Interval) *domainreservation.Reservation {
	t.Helper()
	r, err := domainreservation.New(domainreservation.CreateParams{
		ID:          domainreservation.ID(id),
		ResourceID:  "res-1",
		RequesterID: "user-" + id,
		OwnerID:     "owner-1",
		Interval:    iv,
		Price:       rates.Quote{Total: money.Must(1000, "USD")},
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	return r
}

func TestCreateExclusiveRejectsOverlap(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateExclusive(ctx, newReservation(t, "a", span(10, 14))))

	err := repo.CreateExclusive(ctx, newReservation(t, "b", span(12, 16)))
	assert.ErrorIs(t, err, availability.ErrResourceUnavailable)

	// Back-to-back is fine under half-open intervals.
	require.NoError(t, repo.CreateExclusive(ctx, newReservation(t, "c", span(14, 16))))
}

func TestCreateExclusiveAfterCancellation(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()

	first := newReservation(t, "a", span(10, 14))
	require.NoError(t, repo.CreateExclusive(ctx, first))

	stored, err := repo.ByID(ctx, first.ID)
	require.NoError(t, err)
	require.NoError(t, stored.Cancel("user-a", "", time.Now()))
	require.NoError(t, repo.Save(ctx, stored))

	require.NoError(t, repo.CreateExclusive(ctx, newReservation(t, "b", span(10, 14))))
}

func TestCreateExclusiveConcurrentWritersOneWinner(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rsv := newReservation(t, fmt.Sprintf("rsv-%d", i), span(10, 14))
			errs[i] = repo.CreateExclusive(ctx, rsv)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, availability.ErrResourceUnavailable)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestSaveDetectsConcurrentUpdate(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()

	rsv := newReservation(t, "a", span(10, 12))
	require.NoError(t, repo.CreateExclusive(ctx, rsv))

	first, err := repo.ByID(ctx, rsv.ID)
	require.NoError(t, err)
	second, err := repo.ByID(ctx, rsv.ID)
	require.NoError(t, err)

	require.NoError(t, first.Confirm("owner-1", "", time.Now()))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Cancel("user-a", "", time.Now()))
	assert.ErrorIs(t, repo.Save(ctx, second), ErrConcurrentUpdate)
}

func TestSaveUnknownReservation(t *testing.T) {
	repo := NewReservationRepository()
	rsv := newReservation(t, "ghost", span(10, 12))
	assert.ErrorIs(t, repo.Save(context.Background(), rsv), domainreservation.ErrNotFound)
}

func TestDueForCompletion(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	now := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	confirm := func(id string, iv interval.Interval) {
		rsv := newReservation(t, id, iv)
		require.NoError(t, rsv.Confirm("owner-1", "", time.Now()))
		rsv.ClearEvents()
		require.NoError(t, repo.CreateExclusive(ctx, rsv))
	}

	confirm("ended-late", span(18, 22))
	confirm("ended-early", span(10, 14))
	require.NoError(t, repo.CreateExclusive(ctx, newReservation(t, "still-pending", span(2, 6))))

	due, err := repo.DueForCompletion(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, domainreservation.ID("ended-early"), due[0].ID)
	assert.Equal(t, domainreservation.ID("ended-late"), due[1].ID)

	limited, err := repo.DueForCompletion(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, domainreservation.ID("ended-early"), limited[0].ID)
}

func TestListByParty(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()

	a := newReservation(t, "a", span(8, 10))
	b := newReservation(t, "b", span(10, 12))
	require.NoError(t, repo.CreateExclusive(ctx, a))
	require.NoError(t, repo.CreateExclusive(ctx, b))

	mine, err := repo.ListByRequester(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	owned, err := repo.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

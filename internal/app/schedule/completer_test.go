package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservd/internal/app/commands"
	reservationapp "reservd/internal/app/handlers/reservation"
	"reservd/internal/app/middleware"
	"reservd/internal/app/notify"
	"reservd/internal/domain/rates"
	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
	"reservd/internal/domain/shared/interval"
	"reservd/internal/domain/shared/money"
	"reservd/internal/infra/storage/memory"
)

func seedReservation(t *testing.T, repo *memory.ReservationRepository, id string, status domainreservation.Status, end time.Time) {
	t.Helper()
	iv, err := interval.New(end.Add(-4*time.Hour), end)
	require.NoError(t, err)
	rsv, err := domainreservation.New(domainreservation.CreateParams{
		ID:          domainreservation.ID(id),
		ResourceID:  domainresource.ID("res-" + id),
		RequesterID: "user-1",
		OwnerID:     "owner-1",
		Interval:    iv,
		Price:       rates.Quote{Total: money.Must(1000, "USD")},
		CreatedAt:   end.Add(-5 * time.Hour),
	})
	require.NoError(t, err)
	if status == domainreservation.StatusConfirmed {
		require.NoError(t, rsv.Confirm("owner-1", "", end.Add(-4*time.Hour)))
	}
	rsv.ClearEvents()
	require.NoError(t, repo.CreateExclusive(context.Background(), rsv))
}

func TestSweepOnceCompletesElapsedConfirmed(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	reservations := memory.NewReservationRepository()
	factory := memory.Factory{
		ResourcesRepo:    memory.NewResourceRepository(),
		ReservationsRepo: reservations,
	}
	outboxStore := memory.NewOutbox()

	seedReservation(t, reservations, "elapsed", domainreservation.StatusConfirmed, now.Add(-time.Hour))
	seedReservation(t, reservations, "running", domainreservation.StatusConfirmed, now.Add(time.Hour))
	seedReservation(t, reservations, "pending", domainreservation.StatusPending, now.Add(-time.Hour))

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, reservationapp.CompleteReservationCommand{}.Key(), &reservationapp.CompleteReservationHandler{
		TransitionDeps: reservationapp.NewTransitionDeps(factory, outboxStore, nil),
		Effects:        &notify.Dispatcher{},
	})
	wired := middleware.ChainCommands(bus,
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(outboxStore),
	)

	completer := &Completer{
		UoWFactory: factory,
		Commands:   wired,
		Clock:      func() time.Time { return now },
	}
	require.NoError(t, completer.SweepOnce(context.Background()))

	byID := func(id string) domainreservation.Status {
		r, err := reservations.ByID(context.Background(), domainreservation.ID(id))
		require.NoError(t, err)
		return r.Status
	}
	assert.Equal(t, domainreservation.StatusCompleted, byID("elapsed"))
	assert.Equal(t, domainreservation.StatusConfirmed, byID("running"))
	assert.Equal(t, domainreservation.StatusPending, byID("pending"))
}

func TestSweepOnceIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	reservations := memory.NewReservationRepository()
	factory := memory.Factory{
		ResourcesRepo:    memory.NewResourceRepository(),
		ReservationsRepo: reservations,
	}
	outboxStore := memory.NewOutbox()

	seedReservation(t, reservations, "elapsed", domainreservation.StatusConfirmed, now.Add(-time.Hour))

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, reservationapp.CompleteReservationCommand{}.Key(), &reservationapp.CompleteReservationHandler{
		TransitionDeps: reservationapp.NewTransitionDeps(factory, outboxStore, nil),
		Effects:        &notify.Dispatcher{},
	})
	wired := middleware.ChainCommands(bus, middleware.Transaction(factory, nil))

	completer := &Completer{
		UoWFactory: factory,
		Commands:   wired,
		Clock:      func() time.Time { return now },
	}
	require.NoError(t, completer.SweepOnce(context.Background()))
	require.NoError(t, completer.SweepOnce(context.Background()))

	r, err := reservations.ByID(context.Background(), "elapsed")
	require.NoError(t, err)
	assert.Equal(t, domainreservation.StatusCompleted, r.Status)
}

func TestSweepBatchLimit(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	reservations := memory.NewReservationRepository()
	factory := memory.Factory{
		ResourcesRepo:    memory.NewResourceRepository(),
		ReservationsRepo: reservations,
	}

	for _, id := range []string{"a", "b", "c"} {
		seedReservation(t, reservations, id, domainreservation.StatusConfirmed, now.Add(-time.Hour))
	}

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, reservationapp.CompleteReservationCommand{}.Key(), &reservationapp.CompleteReservationHandler{
		TransitionDeps: reservationapp.NewTransitionDeps(factory, memory.NewOutbox(), nil),
		Effects:        &notify.Dispatcher{},
	})
	wired := middleware.ChainCommands(bus, middleware.Transaction(factory, nil))

	completer := &Completer{
		UoWFactory: factory,
		Commands:   wired,
		BatchSize:  2,
		Clock:      func() time.Time { return now },
	}
	require.NoError(t, completer.SweepOnce(context.Background()))

	completed := 0
	for _, id := range []string{"a", "b", "c"} {
		r, err := reservations.ByID(context.Background(), domainreservation.ID(id))
		require.NoError(t, err)
		if r.Status == domainreservation.StatusCompleted {
			completed++
		}
	}
	assert.Equal(t, 2, completed)
}

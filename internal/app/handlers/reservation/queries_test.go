package reservation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservd/internal/domain/rates"
	domainresource "reservd/internal/domain/resource"
)

func TestQuotePriceQuery(t *testing.T) {
	fx := newFixture(t)
	h := &QuotePriceHandler{UoWFactory: fx.factory, Calculator: rates.Calculator{ServiceFeeBps: 1000}}
	ctx := context.Background()

	res, err := h.Handle(ctx, QuotePriceQuery{ResourceID: "res-1", StartAt: at(10), EndAt: at(14)})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Quote.DurationHours)
	assert.Equal(t, int64(4000), res.Quote.Subtotal.Amount)
	assert.Equal(t, int64(400), res.Quote.ServiceFee.Amount)
	assert.Equal(t, int64(4400), res.Quote.Total.Amount)

	_, err = h.Handle(ctx, QuotePriceQuery{ResourceID: "missing", StartAt: at(10), EndAt: at(14)})
	assert.ErrorIs(t, err, domainresource.ErrNotFound)
}

func TestQuoteLeavesNoState(t *testing.T) {
	fx := newFixture(t)
	h := &QuotePriceHandler{UoWFactory: fx.factory, Calculator: rates.Calculator{}}

	_, err := h.Handle(context.Background(), QuotePriceQuery{ResourceID: "res-1", StartAt: at(10), EndAt: at(14)})
	require.NoError(t, err)

	list, err := fx.reservations.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCheckAvailabilityQuery(t *testing.T) {
	fx := newFixture(t)
	fx.createPending(t, "rsv-1", 10, 14)
	h := &CheckAvailabilityHandler{UoWFactory: fx.factory}
	ctx := context.Background()

	res, err := h.Handle(ctx, CheckAvailabilityQuery{ResourceID: "res-1", StartAt: at(11), EndAt: at(13)})
	require.NoError(t, err)
	assert.False(t, res.Available)

	res, err = h.Handle(ctx, CheckAvailabilityQuery{ResourceID: "res-1", StartAt: at(14), EndAt: at(18)})
	require.NoError(t, err)
	assert.True(t, res.Available)

	res, err = h.Handle(ctx, CheckAvailabilityQuery{ResourceID: "res-1", StartAt: at(11), EndAt: at(13), ExcludeID: "rsv-1"})
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestListReservations(t *testing.T) {
	fx := newFixture(t)
	fx.createPending(t, "rsv-1", 8, 10)
	fx.createPending(t, "rsv-2", 10, 12)

	cancel := &CancelReservationHandler{TransitionDeps: fx.deps(), Effects: fx.effects}
	_, err := cancel.Handle(context.Background(), CancelReservationCommand{ReservationID: "rsv-1", ActorID: "user-1"})
	require.NoError(t, err)

	h := &ListReservationsHandler{UoWFactory: fx.factory}
	ctx := context.Background()

	t.Run("by requester unfiltered", func(t *testing.T) {
		got, err := h.HandleByRequester(ctx, ListByRequesterQuery{RequesterID: "user-1"})
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
	})

	t.Run("by requester with status filter", func(t *testing.T) {
		got, err := h.HandleByRequester(ctx, ListByRequesterQuery{RequesterID: "user-1", Status: "cancelled"})
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "rsv-1", got.Items[0].ID)
	})

	t.Run("by owner", func(t *testing.T) {
		got, err := h.HandleByOwner(ctx, ListByOwnerQuery{OwnerID: "owner-1", Status: "ALL"})
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
	})

	t.Run("unknown party is empty", func(t *testing.T) {
		got, err := h.HandleByRequester(ctx, ListByRequesterQuery{RequesterID: "stranger"})
		require.NoError(t, err)
		assert.Empty(t, got.Items)
	})

	t.Run("missing party id", func(t *testing.T) {
		_, err := h.HandleByRequester(ctx, ListByRequesterQuery{})
		assert.Error(t, err)
		_, err = h.HandleByOwner(ctx, ListByOwnerQuery{})
		assert.Error(t, err)
	})
}

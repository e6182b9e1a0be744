package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reservd/internal/app/commands"
	reservationapp "reservd/internal/app/handlers/reservation"
	handlersupport "reservd/internal/app/handlers/support"
	"reservd/internal/app/uow"
	domainreservation "reservd/internal/domain/reservation"
)

const (
	defaultSweepInterval = time.Minute
	defaultSweepBatch    = 100
)

// Completer is the time-driven process that moves confirmed reservations to
// completed once their interval has passed.
type Completer struct {
	UoWFactory uow.UoWFactory
	Commands   commands.Bus
	Interval   time.Duration
	BatchSize  int
	Logger     *slog.Logger
	Clock      func() time.Time
}

func (c *Completer) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				if c.Logger != nil {
					c.Logger.Error("completion sweep failed", "error", err)
				}
			}
		}
	}
}

// SweepOnce completes every confirmed reservation whose end has passed. Each
// completion is dispatched through the command bus so the usual transaction
// and outbox pipeline applies.
func (c *Completer) SweepOnce(ctx context.Context) error {
	due, err := c.dueIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range due {
		cmd := reservationapp.CompleteReservationCommand{ReservationID: string(id)}
		if _, err := c.Commands.Dispatch(ctx, cmd); err != nil {
			// An already-transitioned reservation is not a sweep failure.
			if errors.Is(err, domainreservation.ErrInvalidTransition) {
				continue
			}
			if c.Logger != nil {
				c.Logger.Warn("completion dispatch failed", "reservation_id", id, "error", err)
			}
		}
	}
	return nil
}

func (c *Completer) dueIDs(ctx context.Context) ([]domainreservation.ID, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, c.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	due, err := unit.Reservations().DueForCompletion(execCtx, c.now(), c.batch())
	if err != nil {
		return nil, err
	}
	ids := make([]domainreservation.ID, 0, len(due))
	for _, r := range due {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (c *Completer) interval() time.Duration {
	if c.Interval > 0 {
		return c.Interval
	}
	return defaultSweepInterval
}

func (c *Completer) batch() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return defaultSweepBatch
}

func (c *Completer) now() time.Time {
	if c.Clock != nil {
		return c.Clock().UTC()
	}
	return time.Now().UTC()
}

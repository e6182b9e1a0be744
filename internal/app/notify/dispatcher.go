package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reservd/internal/app/policies"
	domainreservation "reservd/internal/domain/reservation"
)

const (
	TemplateReservationPending   = "reservation_pending"
	TemplateReservationRequested = "reservation_requested"
	TemplateReservationConfirmed = "reservation_confirmed"
	TemplateReservationCancelled = "reservation_cancelled"
	TemplateReservationCompleted = "reservation_completed"

	defaultSendTimeout = 5 * time.Second
)

// Intent is a single fire-and-forget notification instruction.
type Intent struct {
	To       string
	Template string
	Data     map[string]any
}

// Dispatcher translates lifecycle transitions into notification intents and
// hands each to the Notifier asynchronously. Delivery failures are logged and
// swallowed: they never reach the lifecycle caller and never alter state.
type Dispatcher struct {
	Notifier policies.Notifier
	Logger   *slog.Logger
	Timeout  time.Duration

	wg sync.WaitGroup
}

func (d *Dispatcher) ReservationCreated(r *domainreservation.Reservation) {
	data := reservationData(r)
	d.dispatch(
		Intent{To: r.RequesterID, Template: TemplateReservationPending, Data: data},
		Intent{To: r.OwnerID, Template: TemplateReservationRequested, Data: data},
	)
}

func (d *Dispatcher) ReservationConfirmed(r *domainreservation.Reservation) {
	d.dispatch(Intent{To: r.RequesterID, Template: TemplateReservationConfirmed, Data: reservationData(r)})
}

// ReservationCancelled notifies the counterparty of whoever cancelled.
func (d *Dispatcher) ReservationCancelled(r *domainreservation.Reservation, actorID string) {
	data := reservationData(r)
	data["reason"] = r.CancellationReason
	d.dispatch(Intent{To: r.Counterparty(actorID), Template: TemplateReservationCancelled, Data: data})
}

func (d *Dispatcher) ReservationCompleted(r *domainreservation.Reservation) {
	d.dispatch(Intent{To: r.RequesterID, Template: TemplateReservationCompleted, Data: reservationData(r)})
}

func (d *Dispatcher) dispatch(intents ...Intent) {
	if d == nil || d.Notifier == nil {
		return
	}
	for _, intent := range intents {
		if intent.To == "" {
			continue
		}
		d.wg.Add(1)
		go d.deliver(intent)
	}
}

func (d *Dispatcher) deliver(intent Intent) {
	defer d.wg.Done()
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	// Detached from the request context: the reservation outcome is already
	// decided and must not be tied to delivery.
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := d.Notifier.Send(ctx, intent.To, intent.Template, intent.Data); err != nil {
		if d.Logger != nil {
			d.Logger.Warn("notification delivery failed", "to", intent.To, "template", intent.Template, "error", err)
		}
	}
}

// Wait blocks until all in-flight deliveries finish. Used by shutdown and tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func reservationData(r *domainreservation.Reservation) map[string]any {
	return map[string]any{
		"reservation_id": string(r.ID),
		"resource_id":    string(r.ResourceID),
		"start_at":       r.Interval.Start,
		"end_at":         r.Interval.End,
		"status":         string(r.Status),
		"total":          r.Price.Total,
	}
}

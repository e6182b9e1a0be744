package policies

import "context"

// PaymentsPort resolves an opaque payment reference for a reservation. The
// engine records the reference as an annotation and never validates it.
type PaymentsPort interface {
	HoldReference(ctx context.Context, reservationID string) (string, error)
}

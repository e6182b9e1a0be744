package policies

import "context"

// Notifier is the asynchronous, best-effort delivery channel for guest/host
// communications. Implementations own their own retries; the engine never
// waits on delivery.
type Notifier interface {
	Send(ctx context.Context, to string, template string, data any) error
}

package notify

import (
	"context"
	"log/slog"

	"reservd/internal/app/policies"
)

// LogNotifier writes notification intents to the log; the dev-mode stand-in
// for a real delivery channel.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, to string, template string, data any) error {
	if n.Logger != nil {
		n.Logger.Info("notification intent", "to", to, "template", template, "data", data)
	}
	return nil
}

var _ policies.Notifier = LogNotifier{}

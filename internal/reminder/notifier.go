package reminder

import (
	"context"
	"log/slog"
)

// LogNotifier writes each reminder to the structured log instead of an
// external channel. Used whenever telephony is not configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, recipient, message string) error {
	n.Logger.Info("reminder_notify",
		slog.String("recipient", recipient),
		slog.String("message", message),
	)
	return nil
}

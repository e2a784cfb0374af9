package reminder

import "context"

// DeliveryResult is the outcome of one delivery attempt.
type DeliveryResult struct {
	Recipient string
	Err       error
}

// NotifyAll attempts delivery to every recipient and collects the outcomes.
// One failure never aborts the batch; the caller decides what to do with the
// failures (the worker logs and counts them).
func NotifyAll(ctx context.Context, n Notifier, recipients []string, message string) []DeliveryResult {
	out := make([]DeliveryResult, 0, len(recipients))
	for _, recipient := range recipients {
		out = append(out, DeliveryResult{
			Recipient: recipient,
			Err:       n.Notify(ctx, recipient, message),
		})
	}
	return out
}

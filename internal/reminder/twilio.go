package reminder

import (
	"context"
	"html"
	"log/slog"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// TwilioNotifier places an outbound voice call that reads the reminder out
// loud. Each call is a single best-effort attempt; the worker treats any
// returned error as a logged, swallowed delivery failure.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
	logger *slog.Logger
}

func NewTwilioNotifier(cfg TwilioConfig, logger *slog.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{client: client, from: cfg.FromNumber, logger: logger}
}

func (n *TwilioNotifier) Notify(_ context.Context, recipient, message string) error {
	params := &api.CreateCallParams{}
	params.SetTo(recipient)
	params.SetFrom(n.from)
	params.SetTwiml("<Response><Say>" + html.EscapeString(message) + "</Say></Response>")

	call, err := n.client.Api.CreateCall(params)
	if err != nil {
		return err
	}

	sid := ""
	if call.Sid != nil {
		sid = *call.Sid
	}
	n.logger.Info("reminder_call_placed",
		slog.String("recipient", recipient),
		slog.String("call_sid", sid),
	)
	return nil
}

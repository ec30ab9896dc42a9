// Package dispatch sends notifications through external messaging providers.
//
// Dispatchers never return errors: a provider that is down or not configured must not
// fail the booking workflow that triggered the message. The outcome is reported as a
// Result instead.
package dispatch

import "context"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	FunctionSendEmail = "send-email"
	FunctionSendSMS   = "send-sms"
)

// Invoker calls a remote function by name with a JSON-serializable payload.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload any) error
}

type Result struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok(channel string) Result {
	return Result{Channel: channel, Success: true}
}

func failed(channel, msg string) Result {
	return Result{Channel: channel, Success: false, Error: msg}
}

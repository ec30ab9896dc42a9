package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/metrics"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/logger"
)

const (
	TemplateBookingConfirmation = "booking_confirmation"
	TemplateBookingCancellation = "booking_cancellation"

	errEmailUnavailable = "Email service not available"
	errEmailNoRecipient = "no recipient address"
)

type EmailMessage struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

type EmailDispatcher struct {
	invoker Invoker
}

// NewEmailDispatcher accepts a nil invoker; every send then reports the service as unavailable.
func NewEmailDispatcher(invoker Invoker) *EmailDispatcher {
	return &EmailDispatcher{invoker: invoker}
}

func (d *EmailDispatcher) SendEmail(ctx context.Context, msg EmailMessage) Result {
	log := logger.From(ctx).With(slog.String("component", "email"))
	msg.To = strings.TrimSpace(msg.To)
	log.Info("sending email",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("template", msg.Template),
	)

	res := d.send(ctx, msg)
	if !res.Success {
		log.Warn("email not sent", slog.String("to", msg.To), slog.String("error", res.Error))
	}
	metrics.Dispatches.WithLabelValues(ChannelEmail, metrics.Outcome(res.Success)).Inc()
	return res
}

func (d *EmailDispatcher) send(ctx context.Context, msg EmailMessage) Result {
	if msg.To == "" {
		return failed(ChannelEmail, errEmailNoRecipient)
	}
	if d.invoker == nil {
		return failed(ChannelEmail, errEmailUnavailable)
	}
	if err := d.invoker.Invoke(ctx, FunctionSendEmail, msg); err != nil {
		logger.From(ctx).Debug("email function failed", slog.String("error", err.Error()))
		return failed(ChannelEmail, errEmailUnavailable)
	}
	return ok(ChannelEmail)
}

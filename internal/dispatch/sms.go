package dispatch

import (
	"context"
	"log/slog"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/metrics"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/phone"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/logger"
)

const (
	errSMSUnavailable = "SMS service not available"
	errSMSNoNumber    = "no phone number"
)

type smsPayload struct {
	To         string `json:"to"`
	Message    string `json:"message"`
	TemplateID string `json:"templateId,omitempty"`
}

type SMSDispatcher struct {
	invoker Invoker
}

// NewSMSDispatcher accepts a nil invoker; every send then reports the service as unavailable.
func NewSMSDispatcher(invoker Invoker) *SMSDispatcher {
	return &SMSDispatcher{invoker: invoker}
}

func (d *SMSDispatcher) SendSMS(ctx context.Context, to, message, templateID string) Result {
	log := logger.From(ctx).With(slog.String("component", "sms"))
	normalized := phone.Normalize(to)
	log.Info("sending sms", slog.String("to", normalized), slog.String("template_id", templateID))

	res := d.send(ctx, smsPayload{To: normalized, Message: message, TemplateID: templateID})
	if !res.Success {
		log.Warn("sms not sent", slog.String("to", normalized), slog.String("error", res.Error))
	}
	metrics.Dispatches.WithLabelValues(ChannelSMS, metrics.Outcome(res.Success)).Inc()
	return res
}

func (d *SMSDispatcher) send(ctx context.Context, p smsPayload) Result {
	if p.To == "" {
		return failed(ChannelSMS, errSMSNoNumber)
	}
	if d.invoker == nil {
		return failed(ChannelSMS, errSMSUnavailable)
	}
	if err := d.invoker.Invoke(ctx, FunctionSendSMS, p); err != nil {
		logger.From(ctx).Debug("sms function failed", slog.String("error", err.Error()))
		return failed(ChannelSMS, errSMSUnavailable)
	}
	return ok(ChannelSMS)
}

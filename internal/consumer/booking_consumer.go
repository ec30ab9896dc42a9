package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/dedupe"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/metrics"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/service"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/logger"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

const (
	RoutingConfirmed = "booking.confirmed"
	RoutingCancelled = "booking.cancelled"
	RoutingCompleted = "booking.completed"
)

const (
	resultProcessed = "processed"
	resultDuplicate = "duplicate"
	resultIgnored   = "ignored"
	resultRejected  = "rejected"
	resultRequeued  = "requeued"
)

// Workflows is the part of the booking service driven by broker events.
type Workflows interface {
	ConfirmBooking(ctx context.Context, bookingID string) (*service.ConfirmationResult, error)
	HandleBookingCancellation(ctx context.Context, bookingID string, cancelledBy service.CancelledBy, reason string) error
	SendFeedbackRequest(ctx context.Context, bookingID string)
}

type BookingEvent struct {
	BookingID   string `json:"booking_id"`
	CancelledBy string `json:"cancelled_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type BookingConsumer struct {
	workflows Workflows
	guard     dedupe.Guard
}

func NewBookingConsumer(workflows Workflows, guard dedupe.Guard) *BookingConsumer {
	if guard == nil {
		guard = dedupe.Noop()
	}
	return &BookingConsumer{workflows: workflows, guard: guard}
}

// Start handles deliveries on one goroutine until msgs is closed. The returned channel
// is closed once the loop has exited.
func (bc *BookingConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			bc.handleMessage(ctx, msg)
		}
		slog.Info("delivery channel closed, stopping consumer", slog.String("component", "booking_consumer"))
	}()
	return done
}

func (bc *BookingConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, rabbitmq.HeaderCarrier(msg.Headers))
	log := logger.From(ctx).With(
		slog.String("component", "booking_consumer"),
		slog.String("routing_key", msg.RoutingKey),
	)

	var event BookingEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.BookingID == "" {
		log.Error("malformed booking event", slog.Any("error", err), slog.String("body", string(msg.Body)))
		bc.settle(msg, resultRejected, log)
		return
	}
	log = log.With(slog.String("booking_id", event.BookingID))

	switch msg.RoutingKey {
	case RoutingConfirmed, RoutingCancelled, RoutingCompleted:
	default:
		log.Warn("unhandled routing key")
		bc.settle(msg, resultIgnored, log)
		return
	}

	claimed, err := bc.guard.Claim(ctx, msg.RoutingKey, event.BookingID)
	if err != nil {
		log.Warn("event guard unavailable, processing anyway", slog.String("error", err.Error()))
		claimed = true
	}
	if !claimed {
		log.Info("duplicate delivery skipped")
		bc.settle(msg, resultDuplicate, log)
		return
	}

	result := bc.dispatch(ctx, msg.RoutingKey, event, log)
	if result == resultRequeued {
		if err := bc.guard.Release(ctx, msg.RoutingKey, event.BookingID); err != nil {
			log.Warn("failed to release event guard", slog.String("error", err.Error()))
		}
	}
	bc.settle(msg, result, log)
}

func (bc *BookingConsumer) dispatch(ctx context.Context, routingKey string, event BookingEvent, log *slog.Logger) string {
	switch routingKey {
	case RoutingConfirmed:
		res, err := bc.workflows.ConfirmBooking(ctx, event.BookingID)
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			log.Warn("confirmed booking not found")
			return resultRejected
		case errors.Is(err, service.ErrAlreadyCancelled):
			log.Info("booking cancelled before confirmation was processed")
			return resultIgnored
		case err != nil:
			log.Error("confirmation failed", slog.String("error", err.Error()))
			return resultRequeued
		}
		log.Info("booking confirmation processed",
			slog.Int("failed_steps", len(res.Notifications.Failed())),
			slog.Int("reminders", len(res.Reminders)),
		)
		return resultProcessed

	case RoutingCancelled:
		err := bc.workflows.HandleBookingCancellation(ctx, event.BookingID, service.CancelledBy(event.CancelledBy), event.Reason)
		switch {
		case errors.Is(err, service.ErrInvalidCanceller), errors.Is(err, service.ErrBookingNotFound):
			log.Error("cancellation rejected", slog.String("error", err.Error()))
			return resultRejected
		case errors.Is(err, service.ErrAlreadyCancelled):
			log.Info("booking already cancelled")
			return resultIgnored
		case err != nil:
			log.Error("cancellation failed", slog.String("error", err.Error()))
			return resultRequeued
		}
		log.Info("booking cancellation processed", slog.String("cancelled_by", event.CancelledBy))
		return resultProcessed

	default:
		bc.workflows.SendFeedbackRequest(ctx, event.BookingID)
		return resultProcessed
	}
}

func (bc *BookingConsumer) settle(msg amqp.Delivery, result string, log *slog.Logger) {
	metrics.EventsConsumed.WithLabelValues(msg.RoutingKey, result).Inc()

	var err error
	switch result {
	case resultRejected:
		err = msg.Nack(false, false)
	case resultRequeued:
		err = msg.Nack(false, true)
	default:
		err = msg.Ack(false)
	}
	if err != nil {
		log.Error("failed to settle delivery", slog.String("result", result), slog.String("error", err.Error()))
	}
}

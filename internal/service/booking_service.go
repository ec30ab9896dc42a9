package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/dispatch"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/repository"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/settle"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrAlreadyCancelled  = errors.New("booking is already cancelled")
	ErrInvalidCanceller  = errors.New("cancelled_by must be client or therapist")
	ErrMeetingNotApplied = errors.New("in-person sessions have no meeting link")
)

type CancelledBy string

const (
	CancelledByClient    CancelledBy = "client"
	CancelledByTherapist CancelledBy = "therapist"
)

const (
	defaultCancellationReason = "No reason provided"
	smsTemplateConfirmation   = "booking_confirmation"
)

var tracer = otel.Tracer("github.com/Eursukkul/booking-microservice/booking-automation/internal/service")

type EmailSender interface {
	SendEmail(ctx context.Context, msg dispatch.EmailMessage) dispatch.Result
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, message, templateID string) dispatch.Result
}

type BookingService interface {
	ConfirmBooking(ctx context.Context, bookingID string) (*ConfirmationResult, error)
	SendBookingConfirmation(ctx context.Context, details BookingDetails) settle.Report
	HandleBookingCancellation(ctx context.Context, bookingID string, cancelledBy CancelledBy, reason string) error
	SendFeedbackRequest(ctx context.Context, bookingID string)
	GenerateMeetingLink(ctx context.Context, bookingID string) (string, error)
	ScheduleReminders(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error)
	ListReminders(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
}

// BookingDetails is the flattened view of a booking used to render messages.
type BookingDetails struct {
	BookingID     string
	ClientID      string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	TherapistID   string
	TherapistName string
	ScheduledAt   time.Time
	ServiceType   string
	SessionMode   models.SessionMode
	MeetingURL    string
}

func DetailsFromBooking(b *models.Booking) BookingDetails {
	d := BookingDetails{
		BookingID:   b.ID,
		ClientID:    b.ClientID,
		TherapistID: b.TherapistID,
		ScheduledAt: b.ScheduledAt,
		ServiceType: b.ServiceType,
		SessionMode: b.SessionMode,
	}
	if b.MeetingURL != nil {
		d.MeetingURL = *b.MeetingURL
	}
	if b.Client != nil {
		d.ClientName = b.Client.FullName
		d.ClientEmail = b.Client.Email
		d.ClientPhone = b.Client.Phone
	}
	if b.Therapist != nil {
		d.TherapistName = b.Therapist.FullName
	}
	return d
}

func (d BookingDetails) reminderRequest() ReminderRequest {
	return ReminderRequest{
		BookingID:     d.BookingID,
		ClientID:      d.ClientID,
		TherapistID:   d.TherapistID,
		TherapistName: d.TherapistName,
		ScheduledAt:   d.ScheduledAt,
		MeetingURL:    d.MeetingURL,
	}
}

type ConfirmationResult struct {
	BookingID     string                     `json:"booking_id"`
	MeetingURL    string                     `json:"meeting_url,omitempty"`
	Notifications settle.Report              `json:"notifications"`
	Reminders     []models.ScheduledReminder `json:"reminders"`
}

type Dependencies struct {
	Bookings      repository.BookingRepository
	Therapists    repository.TherapistRepository
	Notifications repository.NotificationRepository
	Notifier      Notifier
	Email         EmailSender
	SMS           SMSSender
	Reminders     ReminderPlanner
	Meetings      MeetingLinker
	Location      *time.Location
}

type bookingService struct {
	bookings      repository.BookingRepository
	therapists    repository.TherapistRepository
	notifications repository.NotificationRepository
	notifier      Notifier
	email         EmailSender
	sms           SMSSender
	reminders     ReminderPlanner
	meetings      MeetingLinker
	loc           *time.Location
}

func NewBookingService(deps Dependencies) BookingService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &bookingService{
		bookings:      deps.Bookings,
		therapists:    deps.Therapists,
		notifications: deps.Notifications,
		notifier:      deps.Notifier,
		email:         deps.Email,
		sms:           deps.SMS,
		reminders:     deps.Reminders,
		meetings:      deps.Meetings,
		loc:           loc,
	}
}

// ConfirmBooking runs everything that follows a booking becoming confirmed: a meeting
// room for remote sessions, confirmation fan-out, and reminders.
func (s *bookingService) ConfirmBooking(ctx context.Context, bookingID string) (*ConfirmationResult, error) {
	ctx, span := tracer.Start(ctx, "booking.confirm")
	span.SetAttributes(attribute.String("booking.id", bookingID))
	defer span.End()

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if booking.Status == models.StatusCancelled {
		span.SetStatus(codes.Error, ErrAlreadyCancelled.Error())
		return nil, ErrAlreadyCancelled
	}

	details := DetailsFromBooking(booking)
	var linkReport settle.Report
	if details.SessionMode.IsRemote() && details.MeetingURL == "" {
		details.MeetingURL = s.meetings.GenerateMeetingURL(ctx, bookingID)
		linkReport = settle.All(ctx, s.sessionLinkTask(details))
	}

	report := append(linkReport, s.SendBookingConfirmation(ctx, details)...)
	reminders := s.reminders.ScheduleReminders(ctx, details.reminderRequest())

	return &ConfirmationResult{
		BookingID:     bookingID,
		MeetingURL:    details.MeetingURL,
		Notifications: report,
		Reminders:     reminders,
	}, nil
}

// SendBookingConfirmation notifies the client and therapist in-app and sends the client
// an email and, when a phone number is known, an SMS. Every step is best-effort.
func (s *bookingService) SendBookingConfirmation(ctx context.Context, d BookingDetails) settle.Report {
	ctx, span := tracer.Start(ctx, "booking.send_confirmation")
	span.SetAttributes(attribute.String("booking.id", d.BookingID))
	defer span.End()

	when := formatSessionTime(d.ScheduledAt, s.loc)
	metadata := map[string]any{
		"booking_id":   d.BookingID,
		"scheduled_at": d.ScheduledAt.UTC().Format(time.RFC3339),
		"session_mode": d.SessionMode,
	}
	if d.MeetingURL != "" {
		metadata["meeting_url"] = d.MeetingURL
	}

	report := settle.All(ctx,
		settle.Task{Name: "client_notification", Run: func(ctx context.Context) error {
			return s.notifier.Notify(ctx, NotificationInput{
				UserID:   d.ClientID,
				Type:     models.NotificationBookingConfirmed,
				Title:    "Booking Confirmed",
				Message:  fmt.Sprintf("Your %s with %s on %s is confirmed.", sessionLabel(d.ServiceType), therapistName(d.TherapistName), when),
				Link:     bookingLink(d.BookingID),
				Metadata: metadata,
			})
		}},
		settle.Task{Name: "therapist_notification", Run: func(ctx context.Context) error {
			userID, err := s.therapists.FindUserID(ctx, d.TherapistID)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("therapist %s has no linked user: %w", d.TherapistID, settle.ErrSkipped)
			}
			if err != nil {
				return fmt.Errorf("look up therapist user: %w", err)
			}
			return s.notifier.Notify(ctx, NotificationInput{
				UserID:   userID,
				Type:     models.NotificationBookingConfirmed,
				Title:    "New Booking Confirmed",
				Message:  fmt.Sprintf("%s booked a %s on %s.", clientName(d.ClientName), sessionLabel(d.ServiceType), when),
				Link:     bookingLink(d.BookingID),
				Metadata: metadata,
			})
		}},
		settle.Task{Name: "client_email", Run: func(ctx context.Context) error {
			if d.ClientEmail == "" {
				return fmt.Errorf("client has no email: %w", settle.ErrSkipped)
			}
			return resultErr(s.email.SendEmail(ctx, dispatch.EmailMessage{
				To:       d.ClientEmail,
				Subject:  "Your session is confirmed",
				Template: dispatch.TemplateBookingConfirmation,
				Data: map[string]any{
					"client_name":    d.ClientName,
					"therapist_name": d.TherapistName,
					"service_type":   d.ServiceType,
					"session_mode":   d.SessionMode,
					"scheduled_at":   when,
					"meeting_url":    d.MeetingURL,
					"booking_id":     d.BookingID,
				},
			}))
		}},
		settle.Task{Name: "client_sms", Run: func(ctx context.Context) error {
			if d.ClientPhone == "" {
				return fmt.Errorf("client has no phone number: %w", settle.ErrSkipped)
			}
			msg := fmt.Sprintf("Your session with %s on %s is confirmed.", therapistName(d.TherapistName), when)
			return resultErr(s.sms.SendSMS(ctx, d.ClientPhone, msg, smsTemplateConfirmation))
		}},
	)

	logFailures(ctx, "confirmation", d.BookingID, report)
	if len(report.Failed()) > 0 {
		span.SetAttributes(attribute.Int("booking.failed_steps", len(report.Failed())))
	}
	return report
}

// HandleBookingCancellation marks the booking cancelled and tells the other party.
// Unlike confirmation, errors are returned: the caller must know whether it happened.
func (s *bookingService) HandleBookingCancellation(ctx context.Context, bookingID string, cancelledBy CancelledBy, reason string) (err error) {
	ctx, span := tracer.Start(ctx, "booking.cancel")
	span.SetAttributes(
		attribute.String("booking.id", bookingID),
		attribute.String("booking.cancelled_by", string(cancelledBy)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if cancelledBy != CancelledByClient && cancelledBy != CancelledByTherapist {
		return fmt.Errorf("%w: got %q", ErrInvalidCanceller, cancelledBy)
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == models.StatusCancelled {
		// The same canceller retrying means an earlier attempt committed the status but
		// failed to notify; only the notifications are sent again.
		if booking.CancelledBy == nil || *booking.CancelledBy != string(cancelledBy) {
			return ErrAlreadyCancelled
		}
		logger.From(ctx).Info("booking already cancelled, resending cancellation notices",
			slog.String("booking_id", bookingID),
			slog.String("cancelled_by", string(cancelledBy)),
		)
	} else {
		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		if err := s.bookings.MarkCancelled(ctx, bookingID, string(cancelledBy), reasonPtr); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
	}

	d := DetailsFromBooking(booking)
	when := formatSessionTime(d.ScheduledAt, s.loc)
	if reason == "" {
		reason = defaultCancellationReason
	}
	metadata := map[string]any{
		"booking_id":   bookingID,
		"cancelled_by": cancelledBy,
		"reason":       reason,
	}

	switch cancelledBy {
	case CancelledByClient:
		therapistUserID := ""
		if booking.Therapist != nil {
			therapistUserID = booking.Therapist.UserID
		}
		if therapistUserID == "" {
			logger.From(ctx).Warn("therapist has no linked user, cancellation not delivered",
				slog.String("booking_id", bookingID),
				slog.String("therapist_id", d.TherapistID),
			)
			return nil
		}
		return s.notifier.Notify(ctx, NotificationInput{
			UserID:   therapistUserID,
			Type:     models.NotificationBookingCancelled,
			Title:    "Booking Cancelled",
			Message:  fmt.Sprintf("%s cancelled the session on %s.", clientName(d.ClientName), when),
			Link:     bookingLink(bookingID),
			Metadata: metadata,
		})

	default:
		if err := s.notifier.Notify(ctx, NotificationInput{
			UserID:   d.ClientID,
			Type:     models.NotificationBookingCancelled,
			Title:    "Booking Cancelled",
			Message:  fmt.Sprintf("Your session with %s on %s has been cancelled by your therapist.", therapistName(d.TherapistName), when),
			Link:     bookingLink(bookingID),
			Metadata: metadata,
		}); err != nil {
			return err
		}

		res := s.email.SendEmail(ctx, dispatch.EmailMessage{
			To:       d.ClientEmail,
			Subject:  "Your session has been cancelled",
			Template: dispatch.TemplateBookingCancellation,
			Data: map[string]any{
				"client_name":    d.ClientName,
				"therapist_name": d.TherapistName,
				"scheduled_at":   when,
				"reason":         reason,
				"booking_id":     bookingID,
			},
		})
		if !res.Success {
			span.SetAttributes(attribute.Bool("booking.cancellation_email_sent", false))
		}
		return nil
	}
}

// SendFeedbackRequest asks the client to review a finished session. A missing booking
// is not an error.
func (s *bookingService) SendFeedbackRequest(ctx context.Context, bookingID string) {
	ctx, span := tracer.Start(ctx, "booking.feedback_request")
	span.SetAttributes(attribute.String("booking.id", bookingID))
	defer span.End()

	log := logger.From(ctx).With(slog.String("component", "feedback"), slog.String("booking_id", bookingID))

	booking, err := s.bookings.FindWithParticipants(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("booking not found, feedback request skipped")
		return
	}
	if err != nil {
		log.Error("failed to load booking", slog.String("error", err.Error()))
		return
	}

	d := DetailsFromBooking(booking)
	err = s.notifier.Notify(ctx, NotificationInput{
		UserID:   d.ClientID,
		Type:     models.NotificationFeedbackRequest,
		Title:    "How was your session?",
		Message:  fmt.Sprintf("We'd love to hear how your session with %s went. Your feedback helps us improve.", therapistName(d.TherapistName)),
		Link:     "/feedback/" + bookingID,
		Metadata: map[string]any{"booking_id": bookingID},
	})
	if err != nil {
		log.Error("failed to send feedback request", slog.String("error", err.Error()))
		span.RecordError(err)
	}
}

func (s *bookingService) GenerateMeetingLink(ctx context.Context, bookingID string) (string, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if !booking.SessionMode.IsRemote() {
		return "", ErrMeetingNotApplied
	}
	return s.meetings.GenerateMeetingURL(ctx, bookingID), nil
}

func (s *bookingService) ScheduleReminders(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	return s.reminders.ScheduleReminders(ctx, DetailsFromBooking(booking).reminderRequest()), nil
}

func (s *bookingService) ListReminders(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error) {
	return s.reminders.ListReminders(ctx, bookingID)
}

func (s *bookingService) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly)
}

func (s *bookingService) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.FindWithParticipants(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", bookingID, err)
	}
	return booking, nil
}

func (s *bookingService) sessionLinkTask(d BookingDetails) settle.Task {
	return settle.Task{Name: "session_link_notification", Run: func(ctx context.Context) error {
		return s.notifier.Notify(ctx, NotificationInput{
			UserID:  d.ClientID,
			Type:    models.NotificationSessionLink,
			Title:   "Your session link is ready",
			Message: fmt.Sprintf("Join your session with %s on %s using this link.", therapistName(d.TherapistName), formatSessionTime(d.ScheduledAt, s.loc)),
			Link:    d.MeetingURL,
			Metadata: map[string]any{
				"booking_id":  d.BookingID,
				"meeting_url": d.MeetingURL,
			},
		})
	}}
}

func resultErr(res dispatch.Result) error {
	if res.Success {
		return nil
	}
	return errors.New(res.Error)
}

func logFailures(ctx context.Context, workflow, bookingID string, report settle.Report) {
	log := logger.From(ctx).With(slog.String("component", workflow), slog.String("booking_id", bookingID))
	for _, o := range report {
		switch {
		case !o.OK:
			log.Warn("step failed", slog.String("step", o.Name), slog.String("error", o.Error))
		case o.Skipped:
			log.Info("step skipped", slog.String("step", o.Name), slog.String("reason", o.Error))
		}
	}
}

func bookingLink(bookingID string) string {
	return "/bookings/" + bookingID
}

func sessionLabel(serviceType string) string {
	if serviceType == "" {
		return "session"
	}
	return serviceType + " session"
}

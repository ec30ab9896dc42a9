package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/metrics"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/repository"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/settle"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/logger"
)

const (
	dayBefore  = 24 * time.Hour
	hourBefore = time.Hour
)

type ReminderRequest struct {
	BookingID     string
	ClientID      string
	TherapistID   string
	TherapistName string
	ScheduledAt   time.Time
	MeetingURL    string
}

type ReminderPlanner interface {
	ScheduleReminders(ctx context.Context, req ReminderRequest) []models.ScheduledReminder
	ListReminders(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error)
}

type ReminderScheduler struct {
	repo repository.ReminderRepository
	loc  *time.Location
	now  func() time.Time
}

func NewReminderScheduler(repo repository.ReminderRepository, loc *time.Location) *ReminderScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderScheduler{repo: repo, loc: loc, now: time.Now}
}

// ScheduleReminders persists the 24h and 1h reminders whose send time is still in the
// future and returns the rows it created. Failures are logged, never returned.
func (s *ReminderScheduler) ScheduleReminders(ctx context.Context, req ReminderRequest) []models.ScheduledReminder {
	now := s.now()
	var created []models.ScheduledReminder

	schedule := func(kind models.ReminderType, offset time.Duration, message string, withLink bool) settle.Task {
		return settle.Task{
			Name: "reminder_" + string(kind),
			Run: func(ctx context.Context) error {
				sendAt := req.ScheduledAt.Add(-offset)
				if !sendAt.After(now) {
					metrics.RemindersSkipped.WithLabelValues(string(kind), "past").Inc()
					return fmt.Errorf("send time %s already passed: %w", sendAt.Format(time.RFC3339), settle.ErrSkipped)
				}

				reminder := models.ScheduledReminder{
					BookingID:          req.BookingID,
					ReminderType:       kind,
					ClientID:           req.ClientID,
					TherapistID:        req.TherapistID,
					SendAt:             sendAt,
					Message:            message,
					IncludeMeetingLink: withLink,
					Status:             models.ReminderPending,
				}
				ok, err := s.repo.Create(ctx, &reminder)
				if err != nil {
					return fmt.Errorf("create %s reminder: %w", kind, err)
				}
				if !ok {
					metrics.RemindersSkipped.WithLabelValues(string(kind), "duplicate").Inc()
					return fmt.Errorf("%s reminder already scheduled: %w", kind, settle.ErrSkipped)
				}
				metrics.RemindersScheduled.WithLabelValues(string(kind)).Inc()
				created = append(created, reminder)
				return nil
			},
		}
	}

	report := settle.All(ctx,
		schedule(models.Reminder24h, dayBefore, s.dayBeforeMessage(req), false),
		schedule(models.Reminder1h, hourBefore, s.hourBeforeMessage(req), true),
	)

	log := logger.From(ctx).With(slog.String("component", "reminders"), slog.String("booking_id", req.BookingID))
	for _, o := range report {
		switch {
		case !o.OK:
			log.Error("failed to schedule reminder", slog.String("task", o.Name), slog.String("error", o.Error))
		case o.Skipped:
			log.Info("reminder not scheduled", slog.String("task", o.Name), slog.String("reason", o.Error))
		}
	}
	return created
}

func (s *ReminderScheduler) ListReminders(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error) {
	reminders, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

func (s *ReminderScheduler) dayBeforeMessage(req ReminderRequest) string {
	return fmt.Sprintf("Reminder: your session with %s is tomorrow, %s.",
		therapistName(req.TherapistName), formatSessionTime(req.ScheduledAt, s.loc))
}

func (s *ReminderScheduler) hourBeforeMessage(req ReminderRequest) string {
	msg := fmt.Sprintf("Your session with %s starts in 1 hour, at %s.",
		therapistName(req.TherapistName), formatSessionTime(req.ScheduledAt, s.loc))
	if req.MeetingURL != "" {
		return msg + " Join here: " + req.MeetingURL
	}
	return msg + " The meeting link will be shared shortly."
}

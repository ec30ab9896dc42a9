package service

import (
	"context"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/dispatch"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
)

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	findByIDFn             func(ctx context.Context, id string) (*models.Booking, error)
	findWithParticipantsFn func(ctx context.Context, id string) (*models.Booking, error)
	markCancelledFn        func(ctx context.Context, id, cancelledBy string, reason *string) error
	updateMeetingRoomFn    func(ctx context.Context, id, roomID, meetingURL string) error
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockBookingRepo) FindWithParticipants(ctx context.Context, id string) (*models.Booking, error) {
	return m.findWithParticipantsFn(ctx, id)
}
func (m *mockBookingRepo) MarkCancelled(ctx context.Context, id, cancelledBy string, reason *string) error {
	if m.markCancelledFn == nil {
		return nil
	}
	return m.markCancelledFn(ctx, id, cancelledBy, reason)
}
func (m *mockBookingRepo) UpdateMeetingRoom(ctx context.Context, id, roomID, meetingURL string) error {
	if m.updateMeetingRoomFn == nil {
		return nil
	}
	return m.updateMeetingRoomFn(ctx, id, roomID, meetingURL)
}

// --- Mock TherapistRepository ---

type mockTherapistRepo struct {
	findUserIDFn func(ctx context.Context, therapistID string) (string, error)
}

func (m *mockTherapistRepo) FindUserID(ctx context.Context, therapistID string) (string, error) {
	return m.findUserIDFn(ctx, therapistID)
}

// --- Mock NotificationRepository ---

type mockNotificationRepo struct {
	createFn func(ctx context.Context, n *models.Notification) error
	listFn   func(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return m.createFn(ctx, n)
}
func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return m.listFn(ctx, userID, unreadOnly)
}

// --- Mock ReminderRepository ---

type mockReminderRepo struct {
	createFn func(ctx context.Context, r *models.ScheduledReminder) (bool, error)
	listFn   func(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error)
}

func (m *mockReminderRepo) Create(ctx context.Context, r *models.ScheduledReminder) (bool, error) {
	return m.createFn(ctx, r)
}
func (m *mockReminderRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error) {
	return m.listFn(ctx, bookingID)
}

// --- Recording collaborators for the orchestrator ---

type recordingNotifier struct {
	calls    []NotificationInput
	notifyFn func(in NotificationInput) error
}

func (n *recordingNotifier) Notify(ctx context.Context, in NotificationInput) error {
	n.calls = append(n.calls, in)
	if n.notifyFn == nil {
		return nil
	}
	return n.notifyFn(in)
}

func (n *recordingNotifier) byUser(userID string) []NotificationInput {
	var out []NotificationInput
	for _, c := range n.calls {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

type mockEmail struct {
	calls  []dispatch.EmailMessage
	sendFn func(msg dispatch.EmailMessage) dispatch.Result
}

func (m *mockEmail) SendEmail(ctx context.Context, msg dispatch.EmailMessage) dispatch.Result {
	m.calls = append(m.calls, msg)
	if m.sendFn == nil {
		return dispatch.Result{Channel: dispatch.ChannelEmail, Success: true}
	}
	return m.sendFn(msg)
}

type smsCall struct {
	to, message, templateID string
}

type mockSMS struct {
	calls  []smsCall
	sendFn func(to string) dispatch.Result
}

func (m *mockSMS) SendSMS(ctx context.Context, to, message, templateID string) dispatch.Result {
	m.calls = append(m.calls, smsCall{to: to, message: message, templateID: templateID})
	if m.sendFn == nil {
		return dispatch.Result{Channel: dispatch.ChannelSMS, Success: true}
	}
	return m.sendFn(to)
}

type mockPlanner struct {
	requests []ReminderRequest
	listFn   func(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error)
}

func (m *mockPlanner) ScheduleReminders(ctx context.Context, req ReminderRequest) []models.ScheduledReminder {
	m.requests = append(m.requests, req)
	return []models.ScheduledReminder{{BookingID: req.BookingID, ReminderType: models.Reminder1h}}
}
func (m *mockPlanner) ListReminders(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error) {
	return m.listFn(ctx, bookingID)
}

type mockLinker struct {
	url   string
	calls int
}

func (m *mockLinker) GenerateMeetingURL(ctx context.Context, bookingID string) string {
	m.calls++
	return m.url
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/dispatch"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	bookings   *mockBookingRepo
	therapists *mockTherapistRepo
	notifs     *mockNotificationRepo
	notifier   *recordingNotifier
	email      *mockEmail
	sms        *mockSMS
	planner    *mockPlanner
	linker     *mockLinker
}

func newFixture(booking *models.Booking) *fixture {
	return &fixture{
		bookings: &mockBookingRepo{
			findWithParticipantsFn: func(ctx context.Context, id string) (*models.Booking, error) {
				if booking == nil || booking.ID != id {
					return nil, repository.ErrNotFound
				}
				return booking, nil
			},
		},
		therapists: &mockTherapistRepo{findUserIDFn: func(ctx context.Context, therapistID string) (string, error) {
			return "therapist-user-1", nil
		}},
		notifs:   &mockNotificationRepo{},
		notifier: &recordingNotifier{},
		email:    &mockEmail{},
		sms:      &mockSMS{},
		planner:  &mockPlanner{},
		linker:   &mockLinker{url: "https://app.example.com/video-call/session-b-1-abc"},
	}
}

func (f *fixture) service() BookingService {
	return NewBookingService(Dependencies{
		Bookings:      f.bookings,
		Therapists:    f.therapists,
		Notifications: f.notifs,
		Notifier:      f.notifier,
		Email:         f.email,
		SMS:           f.sms,
		Reminders:     f.planner,
		Meetings:      f.linker,
		Location:      time.UTC,
	})
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:          "b-1",
		ClientID:    "client-1",
		TherapistID: "therapist-1",
		ScheduledAt: time.Date(2026, 4, 1, 10, 30, 0, 0, time.UTC),
		ServiceType: "Individual Therapy",
		SessionMode: models.ModeVideo,
		Status:      models.StatusConfirmed,
		Client: &models.Profile{
			ID:       "client-1",
			FullName: "Asha Rao",
			Email:    "asha@example.com",
			Phone:    "9876543210",
		},
		Therapist: &models.Therapist{
			ID:       "therapist-1",
			UserID:   "therapist-user-1",
			FullName: "Dr. Mehta",
		},
	}
}

// --- SendBookingConfirmation ---

func TestSendBookingConfirmation_AllSteps(t *testing.T) {
	f := newFixture(sampleBooking())
	details := DetailsFromBooking(sampleBooking())

	report := f.service().SendBookingConfirmation(context.Background(), details)

	assert.Empty(t, report.Failed())
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, "client-1", f.notifier.calls[0].UserID)
	assert.Equal(t, "therapist-user-1", f.notifier.calls[1].UserID)
	assert.Equal(t, models.NotificationBookingConfirmed, f.notifier.calls[0].Type)
	assert.Contains(t, f.notifier.calls[0].Message, "Dr. Mehta")
	assert.Contains(t, f.notifier.calls[1].Message, "Asha Rao")

	require.Len(t, f.email.calls, 1)
	assert.Equal(t, "asha@example.com", f.email.calls[0].To)
	assert.Equal(t, dispatch.TemplateBookingConfirmation, f.email.calls[0].Template)

	require.Len(t, f.sms.calls, 1)
	assert.Equal(t, "9876543210", f.sms.calls[0].to)
}

func TestSendBookingConfirmation_NoPhoneSkipsSMS(t *testing.T) {
	b := sampleBooking()
	b.Client.Phone = ""
	f := newFixture(b)

	report := f.service().SendBookingConfirmation(context.Background(), DetailsFromBooking(b))

	assert.Empty(t, f.sms.calls)
	out, ok := report.Get("client_sms")
	require.True(t, ok)
	assert.True(t, out.Skipped)
	assert.Len(t, f.email.calls, 1)
}

func TestSendBookingConfirmation_ClientFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(sampleBooking())
	f.notifier.notifyFn = func(in NotificationInput) error {
		if in.UserID == "client-1" {
			return errors.New("insert failed")
		}
		return nil
	}

	report := f.service().SendBookingConfirmation(context.Background(), DetailsFromBooking(sampleBooking()))

	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "client_notification", report.Failed()[0].Name)
	assert.Len(t, f.notifier.byUser("therapist-user-1"), 1)
	assert.Len(t, f.email.calls, 1)
	assert.Len(t, f.sms.calls, 1)
}

func TestSendBookingConfirmation_EmailPanicIsContained(t *testing.T) {
	f := newFixture(sampleBooking())
	f.email.sendFn = func(msg dispatch.EmailMessage) dispatch.Result {
		panic("provider exploded")
	}

	report := f.service().SendBookingConfirmation(context.Background(), DetailsFromBooking(sampleBooking()))

	out, ok := report.Get("client_email")
	require.True(t, ok)
	assert.False(t, out.OK)
	assert.Contains(t, out.Error, "provider exploded")
	assert.Len(t, f.notifier.calls, 2)
	assert.Len(t, f.sms.calls, 1)
}

func TestSendBookingConfirmation_TherapistWithoutUserIsSkipped(t *testing.T) {
	f := newFixture(sampleBooking())
	f.therapists.findUserIDFn = func(ctx context.Context, therapistID string) (string, error) {
		return "", repository.ErrNotFound
	}

	report := f.service().SendBookingConfirmation(context.Background(), DetailsFromBooking(sampleBooking()))

	out, _ := report.Get("therapist_notification")
	assert.True(t, out.Skipped)
	assert.Empty(t, report.Failed())
	assert.Len(t, f.notifier.calls, 1)
}

// --- ConfirmBooking ---

func TestConfirmBooking_RemoteSessionGetsLinkAndReminders(t *testing.T) {
	f := newFixture(sampleBooking())

	res, err := f.service().ConfirmBooking(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Equal(t, 1, f.linker.calls)
	assert.Equal(t, f.linker.url, res.MeetingURL)
	require.Len(t, f.planner.requests, 1)
	assert.Equal(t, f.linker.url, f.planner.requests[0].MeetingURL)
	assert.Len(t, res.Reminders, 1)

	link, ok := res.Notifications.Get("session_link_notification")
	require.True(t, ok)
	assert.True(t, link.OK)
	assert.Equal(t, "session_link_notification", res.Notifications[0].Name)

	var types []models.NotificationType
	for _, c := range f.notifier.calls {
		types = append(types, c.Type)
	}
	assert.Contains(t, types, models.NotificationSessionLink)
}

func TestConfirmBooking_InPersonHasNoLink(t *testing.T) {
	b := sampleBooking()
	b.SessionMode = models.ModeInPerson
	f := newFixture(b)

	res, err := f.service().ConfirmBooking(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Zero(t, f.linker.calls)
	assert.Empty(t, res.MeetingURL)
	_, ok := res.Notifications.Get("session_link_notification")
	assert.False(t, ok)
}

func TestConfirmBooking_ExistingLinkIsReused(t *testing.T) {
	b := sampleBooking()
	existing := "https://app.example.com/video-call/session-b-1-old"
	b.MeetingURL = &existing
	f := newFixture(b)

	res, err := f.service().ConfirmBooking(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Zero(t, f.linker.calls)
	assert.Equal(t, existing, res.MeetingURL)
}

func TestConfirmBooking_NotFound(t *testing.T) {
	f := newFixture(sampleBooking())

	_, err := f.service().ConfirmBooking(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.Empty(t, f.notifier.calls)
}

func TestConfirmBooking_Cancelled(t *testing.T) {
	b := sampleBooking()
	b.Status = models.StatusCancelled
	f := newFixture(b)

	_, err := f.service().ConfirmBooking(context.Background(), "b-1")

	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

// --- HandleBookingCancellation ---

func TestHandleBookingCancellation_ByClientNotifiesTherapistOnly(t *testing.T) {
	f := newFixture(sampleBooking())
	var gotBy string
	var gotReason *string
	f.bookings.markCancelledFn = func(ctx context.Context, id, cancelledBy string, reason *string) error {
		gotBy, gotReason = cancelledBy, reason
		return nil
	}

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByClient, "")

	require.NoError(t, err)
	assert.Equal(t, "client", gotBy)
	assert.Nil(t, gotReason)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, "therapist-user-1", f.notifier.calls[0].UserID)
	assert.Equal(t, models.NotificationBookingCancelled, f.notifier.calls[0].Type)
	assert.Equal(t, "No reason provided", f.notifier.calls[0].Metadata["reason"])
	assert.Empty(t, f.email.calls)
}

func TestHandleBookingCancellation_ByTherapistNotifiesAndEmailsClient(t *testing.T) {
	f := newFixture(sampleBooking())

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByTherapist, "Unwell")

	require.NoError(t, err)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, "client-1", f.notifier.calls[0].UserID)
	assert.Equal(t, "Unwell", f.notifier.calls[0].Metadata["reason"])
	require.Len(t, f.email.calls, 1)
	assert.Equal(t, dispatch.TemplateBookingCancellation, f.email.calls[0].Template)
	assert.Equal(t, "asha@example.com", f.email.calls[0].To)
}

func TestHandleBookingCancellation_EmailFailureIsNotAnError(t *testing.T) {
	f := newFixture(sampleBooking())
	f.email.sendFn = func(msg dispatch.EmailMessage) dispatch.Result {
		return dispatch.Result{Channel: dispatch.ChannelEmail, Error: "Email service not available"}
	}

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByTherapist, "")

	assert.NoError(t, err)
}

func TestHandleBookingCancellation_InvalidCancellerWritesNothing(t *testing.T) {
	f := newFixture(sampleBooking())
	f.bookings.markCancelledFn = func(ctx context.Context, id, cancelledBy string, reason *string) error {
		t.Fatal("booking must not be updated")
		return nil
	}

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledBy("admin"), "")

	assert.ErrorIs(t, err, ErrInvalidCanceller)
	assert.Empty(t, f.notifier.calls)
}

func TestHandleBookingCancellation_NotFound(t *testing.T) {
	f := newFixture(nil)

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByClient, "")

	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestHandleBookingCancellation_AlreadyCancelled(t *testing.T) {
	b := sampleBooking()
	b.Status = models.StatusCancelled
	f := newFixture(b)

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByClient, "")

	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestHandleBookingCancellation_CancelledByOtherPartyIsRejected(t *testing.T) {
	b := sampleBooking()
	b.Status = models.StatusCancelled
	by := string(CancelledByClient)
	b.CancelledBy = &by
	f := newFixture(b)

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByTherapist, "")

	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Empty(t, f.notifier.calls)
	assert.Empty(t, f.email.calls)
}

func TestHandleBookingCancellation_RetryAfterNotifyFailureDelivers(t *testing.T) {
	b := sampleBooking()
	f := newFixture(b)
	marks := 0
	f.bookings.markCancelledFn = func(ctx context.Context, id, cancelledBy string, reason *string) error {
		marks++
		b.Status = models.StatusCancelled
		b.CancelledBy = &cancelledBy
		return nil
	}
	failures := 1
	f.notifier.notifyFn = func(in NotificationInput) error {
		if failures > 0 {
			failures--
			return errors.New("insert failed")
		}
		return nil
	}
	svc := f.service()

	err := svc.HandleBookingCancellation(context.Background(), "b-1", CancelledByTherapist, "Unwell")
	require.ErrorContains(t, err, "insert failed")
	assert.Empty(t, f.email.calls)

	err = svc.HandleBookingCancellation(context.Background(), "b-1", CancelledByTherapist, "Unwell")

	require.NoError(t, err)
	assert.Equal(t, 1, marks)
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, "client-1", f.notifier.calls[1].UserID)
	assert.Equal(t, models.NotificationBookingCancelled, f.notifier.calls[1].Type)
	require.Len(t, f.email.calls, 1)
	assert.Equal(t, "asha@example.com", f.email.calls[0].To)
}

func TestHandleBookingCancellation_UpdateFailurePropagates(t *testing.T) {
	f := newFixture(sampleBooking())
	f.bookings.markCancelledFn = func(ctx context.Context, id, cancelledBy string, reason *string) error {
		return errors.New("deadlock detected")
	}

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByTherapist, "")

	assert.ErrorContains(t, err, "deadlock detected")
	assert.Empty(t, f.notifier.calls)
}

func TestHandleBookingCancellation_NotificationFailurePropagates(t *testing.T) {
	f := newFixture(sampleBooking())
	f.notifier.notifyFn = func(in NotificationInput) error { return errors.New("insert failed") }

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByTherapist, "")

	assert.ErrorContains(t, err, "insert failed")
	assert.Empty(t, f.email.calls)
}

func TestHandleBookingCancellation_TherapistWithoutUser(t *testing.T) {
	b := sampleBooking()
	b.Therapist.UserID = ""
	f := newFixture(b)

	err := f.service().HandleBookingCancellation(context.Background(), "b-1", CancelledByClient, "")

	assert.NoError(t, err)
	assert.Empty(t, f.notifier.calls)
}

// --- SendFeedbackRequest ---

func TestSendFeedbackRequest(t *testing.T) {
	f := newFixture(sampleBooking())

	f.service().SendFeedbackRequest(context.Background(), "b-1")

	require.Len(t, f.notifier.calls, 1)
	call := f.notifier.calls[0]
	assert.Equal(t, "client-1", call.UserID)
	assert.Equal(t, models.NotificationFeedbackRequest, call.Type)
	assert.Equal(t, "/feedback/b-1", call.Link)
	assert.Contains(t, call.Message, "Dr. Mehta")
}

func TestSendFeedbackRequest_MissingBookingIsSilent(t *testing.T) {
	f := newFixture(nil)

	assert.NotPanics(t, func() {
		f.service().SendFeedbackRequest(context.Background(), "b-1")
	})
	assert.Empty(t, f.notifier.calls)
}

// --- GenerateMeetingLink / ScheduleReminders / listings ---

func TestGenerateMeetingLink(t *testing.T) {
	f := newFixture(sampleBooking())

	url, err := f.service().GenerateMeetingLink(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Equal(t, f.linker.url, url)
}

func TestGenerateMeetingLink_InPerson(t *testing.T) {
	b := sampleBooking()
	b.SessionMode = models.ModeInPerson
	f := newFixture(b)

	_, err := f.service().GenerateMeetingLink(context.Background(), "b-1")

	assert.ErrorIs(t, err, ErrMeetingNotApplied)
}

func TestScheduleReminders_ForBooking(t *testing.T) {
	f := newFixture(sampleBooking())

	reminders, err := f.service().ScheduleReminders(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Len(t, reminders, 1)
	require.Len(t, f.planner.requests, 1)
	assert.Equal(t, "Dr. Mehta", f.planner.requests[0].TherapistName)
}

func TestListNotifications(t *testing.T) {
	f := newFixture(sampleBooking())
	f.notifs.listFn = func(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
		assert.Equal(t, "client-1", userID)
		assert.True(t, unreadOnly)
		return []models.Notification{{UserID: userID}}, nil
	}

	list, err := f.service().ListNotifications(context.Background(), "client-1", true)

	require.NoError(t, err)
	assert.Len(t, list, 1)
}

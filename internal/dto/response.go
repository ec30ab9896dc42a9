package dto

import (
	"encoding/json"
	"time"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/service"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/settle"
)

type ConfirmationResponse struct {
	BookingID  string             `json:"booking_id"`
	MeetingURL string             `json:"meeting_url,omitempty"`
	Steps      []settle.Outcome   `json:"steps"`
	Reminders  []ReminderResponse `json:"reminders"`
}

type CancellationResponse struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	CancelledBy string `json:"cancelled_by"`
}

type MeetingLinkResponse struct {
	BookingID  string `json:"booking_id"`
	MeetingURL string `json:"meeting_url"`
}

type ReminderResponse struct {
	ID                 string                `json:"id"`
	BookingID          string                `json:"booking_id"`
	ReminderType       models.ReminderType   `json:"reminder_type"`
	SendAt             time.Time             `json:"send_at"`
	Message            string                `json:"message"`
	IncludeMeetingLink bool                  `json:"include_meeting_link"`
	Status             models.ReminderStatus `json:"status"`
}

type NotificationResponse struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      *string                 `json:"link,omitempty"`
	Metadata  json.RawMessage         `json:"metadata,omitempty"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

type ContactLinksResponse struct {
	CallLink     string `json:"call_link"`
	WhatsAppLink string `json:"whatsapp_link"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToConfirmationResponse(r *service.ConfirmationResult) ConfirmationResponse {
	steps := r.Notifications
	if steps == nil {
		steps = settle.Report{}
	}
	return ConfirmationResponse{
		BookingID:  r.BookingID,
		MeetingURL: r.MeetingURL,
		Steps:      steps,
		Reminders:  ToReminderResponses(r.Reminders),
	}
}

func ToReminderResponses(reminders []models.ScheduledReminder) []ReminderResponse {
	resp := make([]ReminderResponse, len(reminders))
	for i, r := range reminders {
		resp[i] = ReminderResponse{
			ID:                 r.ID,
			BookingID:          r.BookingID,
			ReminderType:       r.ReminderType,
			SendAt:             r.SendAt,
			Message:            r.Message,
			IncludeMeetingLink: r.IncludeMeetingLink,
			Status:             r.Status,
		}
	}
	return resp
}

func ToNotificationResponses(notifications []models.Notification) []NotificationResponse {
	resp := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = NotificationResponse{
			ID:        n.ID,
			UserID:    n.UserID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			Metadata:  json.RawMessage(n.Metadata),
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}
	return resp
}

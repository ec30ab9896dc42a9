package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationSessionLink      NotificationType = "session_link"
	NotificationFeedbackRequest  NotificationType = "feedback_request"
	NotificationBookingReminder  NotificationType = "booking_reminder"
)

// Notification is an in-app message for one user. It is created unread and never
// updated by this service.
type Notification struct {
	ID        string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string           `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(64);not null" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Link      *string          `gorm:"type:text" json:"link,omitempty"`
	Metadata  datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

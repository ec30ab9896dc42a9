package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderType string

const (
	Reminder24h ReminderType = "24h"
	Reminder1h  ReminderType = "1h"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
)

// ScheduledReminder rows are delivered by an external worker once SendAt has passed.
// A booking has at most one reminder per type.
type ScheduledReminder struct {
	ID                 string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BookingID          string         `gorm:"not null;uniqueIndex:idx_reminder_booking_type,priority:1" json:"booking_id"`
	ReminderType       ReminderType   `gorm:"type:varchar(8);not null;uniqueIndex:idx_reminder_booking_type,priority:2" json:"reminder_type"`
	ClientID           string         `gorm:"not null" json:"client_id"`
	TherapistID        string         `gorm:"not null" json:"therapist_id"`
	SendAt             time.Time      `gorm:"not null;index" json:"send_at"`
	Message            string         `gorm:"type:text;not null" json:"message"`
	IncludeMeetingLink bool           `gorm:"not null;default:false" json:"include_meeting_link"`
	Status             ReminderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (r *ScheduledReminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

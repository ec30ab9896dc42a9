package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

type SessionMode string

const (
	ModeVideo    SessionMode = "video"
	ModeAudio    SessionMode = "audio"
	ModeChat     SessionMode = "chat"
	ModeInPerson SessionMode = "in_person"
)

// IsRemote reports whether sessions in this mode happen in a meeting room.
func (m SessionMode) IsRemote() bool {
	return m == ModeVideo || m == ModeAudio || m == ModeChat
}

// Booking rows are owned by the booking API; this service only writes the meeting room
// fields and the cancellation fields.
type Booking struct {
	ID                 string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ClientID           string        `gorm:"not null;index" json:"client_id"`
	TherapistID        string        `gorm:"not null;index" json:"therapist_id"`
	ScheduledAt        time.Time     `gorm:"not null" json:"scheduled_at"`
	ServiceType        string        `gorm:"type:varchar(64)" json:"service_type"`
	SessionMode        SessionMode   `gorm:"type:varchar(20);not null;default:'video'" json:"session_mode"`
	Status             BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CancelledBy        *string       `gorm:"type:varchar(20)" json:"cancelled_by,omitempty"`
	CancellationReason *string       `json:"cancellation_reason,omitempty"`

	VideoRoomID *string `json:"video_room_id,omitempty"`
	// RoomID is the legacy name of VideoRoomID; both are always written together.
	RoomID     *string `json:"room_id,omitempty"`
	MeetingURL *string `json:"meeting_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client    *Profile   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Therapist *Therapist `gorm:"foreignKey:TherapistID" json:"therapist,omitempty"`
}

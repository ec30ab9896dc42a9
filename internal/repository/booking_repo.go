package repository

import (
	"context"
	"errors"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type BookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindWithParticipants(ctx context.Context, id string) (*models.Booking, error)
	MarkCancelled(ctx context.Context, id string, cancelledBy string, reason *string) error
	UpdateMeetingRoom(ctx context.Context, id, roomID, meetingURL string) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

// FindWithParticipants loads the booking together with the client profile and therapist.
func (r *bookingRepository) FindWithParticipants(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Therapist").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (r *bookingRepository) MarkCancelled(ctx context.Context, id string, cancelledBy string, reason *string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":              models.StatusCancelled,
			"cancelled_by":        cancelledBy,
			"cancellation_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMeetingRoom writes video_room_id, the legacy room_id and meeting_url in one statement.
func (r *bookingRepository) UpdateMeetingRoom(ctx context.Context, id, roomID, meetingURL string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"video_room_id": roomID,
			"room_id":       roomID,
			"meeting_url":   meetingURL,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

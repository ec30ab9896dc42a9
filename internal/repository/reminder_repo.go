package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReminderRepository interface {
	// Create reports false when a reminder of the same type already exists for the booking.
	Create(ctx context.Context, reminder *models.ScheduledReminder) (bool, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error)
}

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.ScheduledReminder) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}, {Name: "reminder_type"}},
			DoNothing: true,
		}).
		Create(reminder)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reminderRepository) ListByBooking(ctx context.Context, bookingID string) ([]models.ScheduledReminder, error) {
	var reminders []models.ScheduledReminder
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("send_at ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
	"gorm.io/gorm"
)

type TherapistRepository interface {
	FindUserID(ctx context.Context, therapistID string) (string, error)
}

type therapistRepository struct {
	db *gorm.DB
}

func NewTherapistRepository(db *gorm.DB) TherapistRepository {
	return &therapistRepository{db: db}
}

// FindUserID returns ErrNotFound when the therapist is missing or has no linked user.
func (r *therapistRepository) FindUserID(ctx context.Context, therapistID string) (string, error) {
	var therapist models.Therapist
	err := r.db.WithContext(ctx).
		Select("id", "user_id").
		First(&therapist, "id = ?", therapistID).Error
	if err != nil {
		return "", translate(err)
	}
	if therapist.UserID == "" {
		return "", ErrNotFound
	}
	return therapist.UserID, nil
}

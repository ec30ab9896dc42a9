package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/metrics"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/models"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/repository"
	"gorm.io/datatypes"
)

var ErrNoRecipient = errors.New("notification has no recipient")

type NotificationInput struct {
	UserID   string
	Type     models.NotificationType
	Title    string
	Message  string
	Link     string
	Metadata map[string]any
}

// Notifier writes in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, in NotificationInput) error
}

type NotificationSink struct {
	repo repository.NotificationRepository
}

func NewNotificationSink(repo repository.NotificationRepository) *NotificationSink {
	return &NotificationSink{repo: repo}
}

// Notify stores one unread notification. A nil error means the row was written.
func (s *NotificationSink) Notify(ctx context.Context, in NotificationInput) error {
	if in.UserID == "" {
		return ErrNoRecipient
	}

	n := &models.Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   in.Title,
		Message: in.Message,
		IsRead:  false,
	}
	if in.Link != "" {
		link := in.Link
		n.Link = &link
	}
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return fmt.Errorf("encode notification metadata: %w", err)
		}
		n.Metadata = datatypes.JSON(raw)
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("create %s notification: %w", in.Type, err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(in.Type)).Inc()
	return nil
}

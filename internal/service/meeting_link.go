package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/repository"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/logger"
)

const (
	roomIDPrefix    = "session-"
	bookingIDPrefix = 8
	videoCallPath   = "/video-call/"
)

type MeetingLinker interface {
	GenerateMeetingURL(ctx context.Context, bookingID string) string
}

type MeetingLinkGenerator struct {
	bookings repository.BookingRepository
	baseURL  string
	now      func() time.Time
}

func NewMeetingLinkGenerator(bookings repository.BookingRepository, baseURL string) *MeetingLinkGenerator {
	return &MeetingLinkGenerator{
		bookings: bookings,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// RoomID builds session-{first 8 chars of bookingID}-{epoch millis in base 36}.
func (g *MeetingLinkGenerator) RoomID(bookingID string) string {
	prefix := bookingID
	if len(prefix) > bookingIDPrefix {
		prefix = prefix[:bookingIDPrefix]
	}
	return roomIDPrefix + prefix + "-" + strconv.FormatInt(g.now().UnixMilli(), 36)
}

func (g *MeetingLinkGenerator) URL(roomID string) string {
	return g.baseURL + videoCallPath + roomID
}

// GenerateMeetingURL stores a fresh room on the booking and returns its join URL.
// The URL is returned even when the booking update fails.
func (g *MeetingLinkGenerator) GenerateMeetingURL(ctx context.Context, bookingID string) string {
	roomID := g.RoomID(bookingID)
	meetingURL := g.URL(roomID)

	if err := g.bookings.UpdateMeetingRoom(ctx, bookingID, roomID, meetingURL); err != nil {
		logger.From(ctx).Error("failed to store meeting room",
			slog.String("component", "meeting_link"),
			slog.String("booking_id", bookingID),
			slog.String("room_id", roomID),
			slog.String("error", err.Error()),
		)
	}
	return meetingURL
}

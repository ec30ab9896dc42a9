package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/dto"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/phone"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	bookings := e.Group("/api/v1/bookings")
	bookings.POST("/:id/confirmation", h.ConfirmBooking)
	bookings.POST("/:id/cancellation", h.CancelBooking)
	bookings.POST("/:id/feedback-request", h.RequestFeedback)
	bookings.POST("/:id/meeting-link", h.GenerateMeetingLink)
	bookings.POST("/:id/reminders", h.ScheduleReminders)
	bookings.GET("/:id/reminders", h.ListReminders)

	e.GET("/api/v1/users/:id/notifications", h.ListNotifications)
	e.GET("/api/v1/contact-links", h.ContactLinks)
}

func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
	bookingID := c.Param("id")
	if bookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking id is required")
	}

	res, err := h.svc.ConfirmBooking(c.Request().Context(), bookingID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusAccepted, dto.ToConfirmationResponse(res))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID := c.Param("id")
	if bookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking id is required")
	}

	var req dto.CancellationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.svc.HandleBookingCancellation(c.Request().Context(), bookingID, service.CancelledBy(req.CancelledBy), req.Reason)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, dto.CancellationResponse{
		BookingID:   bookingID,
		Status:      "cancelled",
		CancelledBy: req.CancelledBy,
	})
}

func (h *BookingHandler) RequestFeedback(c echo.Context) error {
	bookingID := c.Param("id")
	if bookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking id is required")
	}

	h.svc.SendFeedbackRequest(c.Request().Context(), bookingID)
	return c.NoContent(http.StatusAccepted)
}

func (h *BookingHandler) GenerateMeetingLink(c echo.Context) error {
	bookingID := c.Param("id")
	if bookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking id is required")
	}

	url, err := h.svc.GenerateMeetingLink(c.Request().Context(), bookingID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, dto.MeetingLinkResponse{BookingID: bookingID, MeetingURL: url})
}

func (h *BookingHandler) ScheduleReminders(c echo.Context) error {
	bookingID := c.Param("id")
	if bookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking id is required")
	}

	reminders, err := h.svc.ScheduleReminders(c.Request().Context(), bookingID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToReminderResponses(reminders))
}

func (h *BookingHandler) ListReminders(c echo.Context) error {
	reminders, err := h.svc.ListReminders(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToReminderResponses(reminders))
}

func (h *BookingHandler) ListNotifications(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	unreadOnly := false
	if s := c.QueryParam("unread"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unread must be a boolean")
		}
		unreadOnly = v
	}

	notifications, err := h.svc.ListNotifications(c.Request().Context(), userID, unreadOnly)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToNotificationResponses(notifications))
}

func (h *BookingHandler) ContactLinks(c echo.Context) error {
	var q dto.ContactLinksQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	if phone.Digits(q.Phone) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "phone must contain digits")
	}

	return c.JSON(http.StatusOK, dto.ContactLinksResponse{
		CallLink:     phone.CallLink(q.Phone),
		WhatsAppLink: phone.WhatsAppLink(q.Phone, q.Message),
	})
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCanceller):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadyCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrMeetingNotApplied):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Eursukkul/booking-microservice/booking-automation/internal/dto"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/logger"
	"github.com/labstack/echo/v4"
)

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	if code >= http.StatusInternalServerError {
		logger.From(c.Request().Context()).Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.Int("status", code),
			slog.String("error", err.Error()),
		)
	}

	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}

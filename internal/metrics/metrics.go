package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_notifications_created_total",
		Help: "In-app notifications written, by type.",
	}, []string{"type"})

	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_dispatch_total",
		Help: "Email and SMS dispatch attempts, by channel and outcome.",
	}, []string{"channel", "outcome"})

	RemindersScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reminders_scheduled_total",
		Help: "Reminders persisted, by kind.",
	}, []string{"kind"})

	RemindersSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reminders_skipped_total",
		Help: "Reminders not persisted, by kind and reason.",
	}, []string{"kind", "reason"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_events_consumed_total",
		Help: "Booking events taken off the queue, by routing key and result.",
	}, []string{"routing_key", "result"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "status"})
)

// unmatchedPath labels requests that hit no route, keeping the path label bounded.
const unmatchedPath = "unmatched"

// Outcome maps a dispatch success flag to its label value.
func Outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Middleware records RED metrics labelled with the route pattern.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		path := c.Path()
		if path == "" {
			path = unmatchedPath
		}

		code := strconv.Itoa(status)
		httpDuration.WithLabelValues(path, c.Request().Method, code).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(path, c.Request().Method, code).Inc()
		return err
	}
}

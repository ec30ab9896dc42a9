package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/booking-microservice/booking-automation/config"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/consumer"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/dedupe"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/dispatch"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/handler"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/metrics"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/middleware"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/repository"
	"github.com/Eursukkul/booking-microservice/booking-automation/internal/service"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/database"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/logger"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/rabbitmq"
	"github.com/Eursukkul/booking-microservice/booking-automation/pkg/tracing"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	db := database.NewPostgresDB(cfg.DSN())

	// Remote functions (email, sms) go through the functions exchange.
	var invoker dispatch.Invoker
	if cfg.RabbitURL != "" {
		fi, err := rabbitmq.NewFunctionInvoker(cfg.RabbitURL, cfg.FunctionsExchange, cfg.FunctionTimeout)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer fi.Close()
		invoker = fi
	} else {
		slog.Warn("RABBIT_URL not set, email and sms dispatch disabled")
	}

	guard := dedupe.Noop()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, event guard will fail open", slog.String("error", err.Error()))
		}
		guard = dedupe.NewRedisGuard(rdb, cfg.EventGuardTTL)
	}

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	therapistRepo := repository.NewTherapistRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	// Services
	loc := cfg.Location()
	bookingSvc := service.NewBookingService(service.Dependencies{
		Bookings:      bookingRepo,
		Therapists:    therapistRepo,
		Notifications: notificationRepo,
		Notifier:      service.NewNotificationSink(notificationRepo),
		Email:         dispatch.NewEmailDispatcher(invoker),
		SMS:           dispatch.NewSMSDispatcher(invoker),
		Reminders:     service.NewReminderScheduler(reminderRepo, loc),
		Meetings:      service.NewMeetingLinkGenerator(bookingRepo, cfg.AppBaseURL),
		Location:      loc,
	})

	// RabbitMQ consumer: booking lifecycle events from the booking API
	var consumerDone <-chan struct{}
	if cfg.RabbitURL != "" {
		mqConsumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
			URL:      cfg.RabbitURL,
			Exchange: cfg.BookingsExchange,
			Queue:    cfg.BookingsQueue,
			Prefetch: 10,
		})
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume(ctx)
		if err != nil {
			log.Fatalf("failed to start consuming: %v", err)
		}
		consumerDone = consumer.NewBookingConsumer(bookingSvc, guard).Start(ctx, msgs)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewRequestValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			logger.From(c.Request().Context()).Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(metrics.Middleware)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": cfg.ServiceName})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           otelhttp.NewHandler(e, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("booking automation service starting", slog.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", slog.String("error", err.Error()))
	}

	if consumerDone != nil {
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
			slog.Warn("consumer did not stop in time")
		}
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown failed", slog.String("error", err.Error()))
	}
}

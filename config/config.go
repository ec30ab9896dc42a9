package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" env-default:"booking-automation"`
	ServerPort  string `env:"SERVER_PORT" env-default:"8083"`

	DBHost     string `env:"DB_HOST" env-default:"localhost"`
	DBPort     string `env:"DB_PORT" env-default:"5432"`
	DBUser     string `env:"DB_USER" env-default:"postgres"`
	DBPassword string `env:"DB_PASSWORD" env-default:"postgres"`
	DBName     string `env:"DB_NAME" env-default:"booking_automation_db"`
	DBSSLMode  string `env:"DB_SSLMODE" env-default:"disable"`

	// Empty RabbitURL runs the service without the broker: dispatchers report failures
	// and no booking events are consumed.
	RabbitURL         string        `env:"RABBIT_URL"`
	FunctionsExchange string        `env:"FUNCTIONS_EXCHANGE" env-default:"functions"`
	BookingsExchange  string        `env:"BOOKINGS_EXCHANGE" env-default:"bookings"`
	BookingsQueue     string        `env:"BOOKINGS_QUEUE" env-default:"booking-automation.bookings"`
	FunctionTimeout   time.Duration `env:"FUNCTION_TIMEOUT" env-default:"5s"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	EventGuardTTL time.Duration `env:"EVENT_GUARD_TTL" env-default:"24h"`

	AppBaseURL      string `env:"APP_BASE_URL" env-default:"http://localhost:3000"`
	DisplayTimezone string `env:"DISPLAY_TIMEZONE" env-default:"Asia/Kolkata"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config: %v", err)
	}
	return &cfg
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Location falls back to UTC when DisplayTimezone is not a known zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		log.Printf("unknown DISPLAY_TIMEZONE %q, using UTC", c.DisplayTimezone)
		return time.UTC
	}
	return loc
}

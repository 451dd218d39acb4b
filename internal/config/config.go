package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	LogLevel             string
	JWTSecret            string
	JWTExpirationMinutes int
	Admin                AdminConfig
	Database             DatabaseConfig
	Redis                RedisConfig
	Booking              BookingConfig
	Notify               NotifyConfig
	RateLimit            RateLimitConfig
}

// AdminConfig holds the site owner's credentials for the admin endpoints.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
	Debug    bool
}

// RedisConfig holds the Redis connection used for slot locks and the task queue.
type RedisConfig struct {
	Addr     string
	Password string
	LockDB   int
	QueueDB  int
}

// BookingConfig controls slot generation and claiming.
type BookingConfig struct {
	WindowDays        int
	Timezone          string
	SlotLabels        []string
	AvailabilitySeed  int64
	AvailabilityRatio float64
	Locker            string
	LockTTL           time.Duration
	LockWait          time.Duration
}

// NotifyConfig controls outbox draining and delivery.
type NotifyConfig struct {
	Driver            string
	DrainSpec         string
	BatchSize         int
	MaxAttempts       int
	WorkerConcurrency int
	MailFrom          string
}

// RateLimitConfig limits booking attempts per client IP.
type RateLimitConfig struct {
	BookingsPerMinute int
	Burst             int
}

// Location resolves the booking timezone.
func (b BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(b.Timezone)
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3001")
	v.SetDefault("ORIGIN", "http://localhost:3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "default_jwt_secret")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 60)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")

	v.SetDefault("DB_DRIVER", "memory")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "portfolio")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_DEBUG", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_LOCK_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)

	v.SetDefault("BOOKING_WINDOW_DAYS", 14)
	v.SetDefault("BOOKING_TIMEZONE", "UTC")
	v.SetDefault("BOOKING_SLOT_LABELS", "")
	v.SetDefault("BOOKING_AVAILABILITY_SEED", 1)
	v.SetDefault("BOOKING_AVAILABILITY_RATIO", 1.0)
	v.SetDefault("SLOT_LOCKER", "local")
	v.SetDefault("SLOT_LOCK_TTL", "10s")
	v.SetDefault("SLOT_LOCK_WAIT", "3s")

	v.SetDefault("NOTIFY_DRIVER", "log")
	v.SetDefault("NOTIFY_DRAIN_SPEC", "@every 10s")
	v.SetDefault("NOTIFY_BATCH_SIZE", 50)
	v.SetDefault("NOTIFY_MAX_ATTEMPTS", 10)
	v.SetDefault("NOTIFY_WORKER_CONCURRENCY", 5)
	v.SetDefault("MAIL_FROM", "noreply@localhost")

	v.SetDefault("RATE_LIMIT_BOOKINGS_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_BURST", 5)
}

// LoadConfig loads configuration from environment variables and an optional
// config.yaml in the working directory or ./config.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		Username: v.GetString("DB_USERNAME"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
		DSN:      v.GetString("DB_DSN"),
		Debug:    v.GetBool("DB_DEBUG"),
	}
	if dbConfig.DSN == "" {
		dsn, err := buildDSN(dbConfig)
		if err != nil {
			return nil, err
		}
		dbConfig.DSN = dsn
	}

	bookingConfig := BookingConfig{
		WindowDays:        v.GetInt("BOOKING_WINDOW_DAYS"),
		Timezone:          v.GetString("BOOKING_TIMEZONE"),
		SlotLabels:        splitList(v.GetString("BOOKING_SLOT_LABELS")),
		AvailabilitySeed:  v.GetInt64("BOOKING_AVAILABILITY_SEED"),
		AvailabilityRatio: v.GetFloat64("BOOKING_AVAILABILITY_RATIO"),
		Locker:            strings.ToLower(v.GetString("SLOT_LOCKER")),
		LockTTL:           v.GetDuration("SLOT_LOCK_TTL"),
		LockWait:          v.GetDuration("SLOT_LOCK_WAIT"),
	}
	if bookingConfig.WindowDays <= 0 {
		return nil, fmt.Errorf("invalid BOOKING_WINDOW_DAYS: %d", bookingConfig.WindowDays)
	}
	if bookingConfig.AvailabilityRatio < 0 || bookingConfig.AvailabilityRatio > 1 {
		return nil, fmt.Errorf("invalid BOOKING_AVAILABILITY_RATIO: %v", bookingConfig.AvailabilityRatio)
	}
	if _, err := bookingConfig.Location(); err != nil {
		return nil, fmt.Errorf("invalid BOOKING_TIMEZONE: %w", err)
	}
	switch bookingConfig.Locker {
	case "local", "redis":
	default:
		return nil, fmt.Errorf("invalid SLOT_LOCKER: %q", bookingConfig.Locker)
	}

	notifyConfig := NotifyConfig{
		Driver:            strings.ToLower(v.GetString("NOTIFY_DRIVER")),
		DrainSpec:         v.GetString("NOTIFY_DRAIN_SPEC"),
		BatchSize:         v.GetInt("NOTIFY_BATCH_SIZE"),
		MaxAttempts:       v.GetInt("NOTIFY_MAX_ATTEMPTS"),
		WorkerConcurrency: v.GetInt("NOTIFY_WORKER_CONCURRENCY"),
		MailFrom:          v.GetString("MAIL_FROM"),
	}
	switch notifyConfig.Driver {
	case "log", "asynq":
	default:
		return nil, fmt.Errorf("invalid NOTIFY_DRIVER: %q", notifyConfig.Driver)
	}

	jwtExpMinutes := v.GetInt("JWT_EXPIRATION_MINUTES")
	if jwtExpMinutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %d", jwtExpMinutes)
	}

	// Return complete configuration
	return &Config{
		Port:                 v.GetString("PORT"),
		Origin:               v.GetString("ORIGIN"),
		Environment:          v.GetString("APP_ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTExpirationMinutes: jwtExpMinutes,
		Admin: AdminConfig{
			Email:        v.GetString("ADMIN_EMAIL"),
			PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		},
		Database: dbConfig,
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			LockDB:   v.GetInt("REDIS_LOCK_DB"),
			QueueDB:  v.GetInt("REDIS_QUEUE_DB"),
		},
		Booking: bookingConfig,
		Notify:  notifyConfig,
		RateLimit: RateLimitConfig{
			BookingsPerMinute: v.GetInt("RATE_LIMIT_BOOKINGS_PER_MINUTE"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}, nil
}

// buildDSN builds the Data Source Name for the configured driver.
func buildDSN(db DatabaseConfig) (string, error) {
	switch db.Driver {
	case "memory":
		return "", nil
	case "mysql":
		port := db.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			db.Username, db.Password, db.Host, port, db.Name), nil
	case "postgres":
		port := db.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			db.Host, port, db.Username, db.Password, db.Name), nil
	case "sqlite":
		return db.Name + ".db?_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("invalid DB_DRIVER: %q", db.Driver)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "", cfg.Database.DSN)
	assert.Equal(t, 14, cfg.Booking.WindowDays)
	assert.Equal(t, 1.0, cfg.Booking.AvailabilityRatio)
	assert.Equal(t, "local", cfg.Booking.Locker)
	assert.Equal(t, 10*time.Second, cfg.Booking.LockTTL)
	assert.Equal(t, "log", cfg.Notify.Driver)
	assert.Empty(t, cfg.Booking.SlotLabels)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_USERNAME", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "site")
	t.Setenv("BOOKING_SLOT_LABELS", "10:00 AM, 02:00 PM,")
	t.Setenv("BOOKING_TIMEZONE", "Europe/Berlin")
	t.Setenv("BOOKING_AVAILABILITY_RATIO", "0.7")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "app:secret@tcp(localhost:3306)/site?charset=utf8mb4&parseTime=True&loc=UTC", cfg.Database.DSN)
	assert.Equal(t, []string{"10:00 AM", "02:00 PM"}, cfg.Booking.SlotLabels)
	assert.Equal(t, 0.7, cfg.Booking.AvailabilityRatio)
	assert.True(t, cfg.IsProduction())

	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_DRIVER", "oracle"},
		{"BOOKING_WINDOW_DAYS", "0"},
		{"BOOKING_AVAILABILITY_RATIO", "1.5"},
		{"BOOKING_TIMEZONE", "Mars/Olympus"},
		{"SLOT_LOCKER", "zookeeper"},
		{"NOTIFY_DRIVER", "pigeon"},
		{"JWT_EXPIRATION_MINUTES", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestBuildDSNPostgres(t *testing.T) {
	dsn, err := buildDSN(DatabaseConfig{Driver: "postgres", Host: "db", Username: "u", Password: "p", Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC", dsn)
}

// chdir changes the working directory for the duration of the test,
// standing in for testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

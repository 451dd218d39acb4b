package store_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar-booking-server/internal/models"
	"calendar-booking-server/internal/store"
)

func newGormStore(t *testing.T) *store.GormStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "booking.db") + "?_pragma=busy_timeout(5000)"
	db, err := models.InitDB(models.DatabaseConfig{Driver: models.DriverSQLite, DSN: dsn})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return store.NewGormStore(db)
}

// each runs the test body against every Repository implementation.
func each(t *testing.T, fn func(t *testing.T, repo store.Repository)) {
	t.Run("memory", func(t *testing.T) { fn(t, store.NewMemoryStore()) })
	t.Run("gorm", func(t *testing.T) { fn(t, newGormStore(t)) })
}

func seedSlots(t *testing.T, repo store.Repository, dates ...string) []models.TimeSlot {
	t.Helper()
	var slots []models.TimeSlot
	for _, d := range dates {
		for i := 0; i < 3; i++ {
			slots = append(slots, models.TimeSlot{
				ID:        models.SlotID(d, i),
				Date:      d,
				Index:     i,
				Time:      fmt.Sprintf("%02d:00 AM", 9+i),
				Available: i != 2,
			})
		}
	}
	n, err := repo.InsertSlots(context.Background(), slots)
	require.NoError(t, err)
	require.Equal(t, len(slots), n)
	return slots
}

func newAppointment(slotID string) *models.Appointment {
	return &models.Appointment{
		BaseModel:   models.BaseModel{ID: uuid.NewString(), CreatedAt: time.Now()},
		Date:        slotID[:10],
		TimeSlotID:  slotID,
		Name:        "A",
		Email:       "a@x.com",
		MeetingType: "quick",
		Topic:       "t",
	}
}

func TestInsertSlotsIsIdempotent(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		slots := seedSlots(t, repo, "2025-01-06")

		n, err := repo.InsertSlots(ctx, slots)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		all, err := repo.ListSlots(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestSlotsForDateOrdering(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		seedSlots(t, repo, "2025-01-07", "2025-01-06")

		slots, err := repo.SlotsForDate(ctx, "2025-01-06")
		require.NoError(t, err)
		require.Len(t, slots, 3)
		for i, s := range slots {
			assert.Equal(t, models.SlotID("2025-01-06", i), s.ID)
		}

		all, err := repo.ListSlots(ctx)
		require.NoError(t, err)
		require.Len(t, all, 6)
		assert.Equal(t, "2025-01-06-0", all[0].ID)
		assert.Equal(t, "2025-01-07-2", all[5].ID)

		none, err := repo.SlotsForDate(ctx, "2030-01-01")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestGetSlotNotFound(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		_, err := repo.GetSlot(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestClaimSlot(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		seedSlots(t, repo, "2025-01-06")

		appt := newAppointment("2025-01-06-0")
		event := &models.OutboxEvent{
			BaseModel:   models.BaseModel{ID: uuid.NewString()},
			Type:        models.EventBookingCreated,
			AggregateID: appt.ID,
			Payload:     "{}",
		}
		require.NoError(t, repo.ClaimSlot(ctx, appt, event))

		err := repo.ClaimSlot(ctx, newAppointment("2025-01-06-0"), nil)
		assert.ErrorIs(t, err, store.ErrAlreadyClaimed)

		err = repo.ClaimSlot(ctx, newAppointment("2025-01-08-0"), nil)
		assert.ErrorIs(t, err, store.ErrNotFound)

		claimed, err := repo.ClaimedSlotIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"2025-01-06-0": true}, claimed)

		claimed, err = repo.ClaimedSlotIDs(ctx, "2025-01-06-1", "2025-01-06-2")
		require.NoError(t, err)
		assert.Empty(t, claimed)

		got, err := repo.GetAppointment(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, appt.TimeSlotID, got.TimeSlotID)
		assert.Equal(t, "a@x.com", got.Email)

		list, err := repo.ListAppointments(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		pending, err := repo.PendingEvents(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, appt.ID, pending[0].AggregateID)
	})
}

func TestClaimSlotConcurrent(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		seedSlots(t, repo, "2025-01-06")

		const n = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.ClaimSlot(ctx, newAppointment("2025-01-06-1"), nil)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, store.ErrAlreadyClaimed):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, n-1, conflicts)
	})
}

func TestGetAppointmentNotFound(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		_, err := repo.GetAppointment(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestStatus(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()

		s, err := repo.GetStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAvailable, s)

		require.NoError(t, repo.SetStatus(ctx, models.StatusBusy))
		require.NoError(t, repo.SetStatus(ctx, models.StatusAway))

		s, err = repo.GetStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAway, s)
	})
}

func TestOutboxLifecycle(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		seedSlots(t, repo, "2025-01-06")

		var ids []string
		for i := 0; i < 2; i++ {
			appt := newAppointment(models.SlotID("2025-01-06", i))
			ev := &models.OutboxEvent{
				BaseModel:   models.BaseModel{ID: uuid.NewString(), CreatedAt: time.Now().Add(time.Duration(i) * time.Second)},
				Type:        models.EventBookingCreated,
				AggregateID: appt.ID,
				Payload:     "{}",
			}
			require.NoError(t, repo.ClaimSlot(ctx, appt, ev))
			ids = append(ids, ev.ID)
		}

		pending, err := repo.PendingEvents(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, ids[0], pending[0].ID)

		require.NoError(t, repo.MarkFailed(ctx, ids[0], "boom"))
		require.NoError(t, repo.MarkDispatched(ctx, ids[1], time.Now()))

		pending, err = repo.PendingEvents(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, ids[0], pending[0].ID)
		assert.Equal(t, 1, pending[0].Attempts)
		assert.Equal(t, "boom", pending[0].LastError)

		pending, err = repo.PendingEvents(ctx, 0, 1)
		require.NoError(t, err)
		assert.Empty(t, pending)

		assert.ErrorIs(t, repo.MarkDispatched(ctx, "missing", time.Now()), store.ErrNotFound)
	})
}

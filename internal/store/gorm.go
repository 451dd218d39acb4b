package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"calendar-booking-server/internal/models"
)

// GormStore is a Repository backed by a SQL database. Slot claims rely on
// the unique index on appointments.time_slot_id.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore creates a GormStore over an already migrated database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// InsertSlots inserts slots, skipping ids that already exist.
func (s *GormStore) InsertSlots(ctx context.Context, slots []models.TimeSlot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(slots, 100)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// ListSlots returns every slot ordered by date and index.
func (s *GormStore) ListSlots(ctx context.Context) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	err := s.DB.WithContext(ctx).Order("date asc, slot_index asc").Find(&slots).Error
	return slots, err
}

// SlotsForDate returns the slots of one date ordered by index.
func (s *GormStore) SlotsForDate(ctx context.Context, date string) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	err := s.DB.WithContext(ctx).
		Where("date = ?", date).
		Order("slot_index asc").
		Find(&slots).Error
	return slots, err
}

// GetSlot returns the slot or ErrNotFound.
func (s *GormStore) GetSlot(ctx context.Context, id string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := s.DB.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// ClaimedSlotIDs reports which of slotIDs are claimed; no ids means all.
func (s *GormStore) ClaimedSlotIDs(ctx context.Context, slotIDs ...string) (map[string]bool, error) {
	q := s.DB.WithContext(ctx).Model(&models.Appointment{})
	if len(slotIDs) > 0 {
		q = q.Where("time_slot_id IN ?", slotIDs)
	}

	var ids []string
	if err := q.Pluck("time_slot_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ClaimSlot inserts appt and event in one transaction. A duplicate
// time_slot_id yields ErrAlreadyClaimed.
func (s *GormStore) ClaimSlot(ctx context.Context, appt *models.Appointment, event *models.OutboxEvent) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.TimeSlot
		if err := tx.Select("id").First(&slot, "id = ?", appt.TimeSlotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// The unique index settles races between concurrent inserts.
		if err := tx.Create(appt).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyClaimed
			}
			return err
		}

		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAppointment returns the appointment or ErrNotFound.
func (s *GormStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.DB.WithContext(ctx).First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

// ListAppointments returns appointments in booking order.
func (s *GormStore) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.DB.WithContext(ctx).Order("created_at asc").Find(&appts).Error
	return appts, err
}

// GetStatus returns the owner status, available if never set.
func (s *GormStore) GetStatus(ctx context.Context) (models.Status, error) {
	var row models.OwnerStatus
	if err := s.DB.WithContext(ctx).First(&row, models.OwnerStatusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StatusAvailable, nil
		}
		return "", err
	}
	return row.Status, nil
}

// SetStatus upserts the owner status row.
func (s *GormStore) SetStatus(ctx context.Context, status models.Status) error {
	row := models.OwnerStatus{ID: models.OwnerStatusID, Status: status}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(&row).Error
}

// PendingEvents returns undispatched events below maxAttempts, oldest first.
func (s *GormStore) PendingEvents(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	q := s.DB.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("created_at asc")
	if maxAttempts > 0 {
		q = q.Where("attempts < ?", maxAttempts)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}

// MarkDispatched records a successful publish.
func (s *GormStore) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	res := s.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"dispatched_at": at,
			"last_error":    "",
			"attempts":      gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed counts a failed publish and keeps the reason.
func (s *GormStore) MarkFailed(ctx context.Context, id string, reason string) error {
	res := s.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error": reason,
			"attempts":   gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKey recognises unique violations from every supported driver,
// whether or not gorm's error translation caught them first.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

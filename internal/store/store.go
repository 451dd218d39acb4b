// Package store holds the persistence layer for slots, appointments, the
// owner status and the notification outbox.
package store

import (
	"context"
	"errors"
	"time"

	"calendar-booking-server/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyClaimed is returned by ClaimSlot when another appointment
	// already references the slot.
	ErrAlreadyClaimed = errors.New("time slot already claimed")
)

// Repository is the narrow persistence interface used by the booking service.
type Repository interface {
	// InsertSlots stores slots whose id is not yet known and returns how many
	// were inserted. Existing slots are left untouched.
	InsertSlots(ctx context.Context, slots []models.TimeSlot) (int, error)
	ListSlots(ctx context.Context) ([]models.TimeSlot, error)
	SlotsForDate(ctx context.Context, date string) ([]models.TimeSlot, error)
	GetSlot(ctx context.Context, id string) (*models.TimeSlot, error)

	// ClaimedSlotIDs returns the set of claimed slot ids among slotIDs, or
	// among all slots when none are given.
	ClaimedSlotIDs(ctx context.Context, slotIDs ...string) (map[string]bool, error)

	// ClaimSlot records appt and, when non-nil, event as one atomic unit.
	// It fails with ErrAlreadyClaimed if appt.TimeSlotID is already referenced
	// and with ErrNotFound if the slot does not exist.
	ClaimSlot(ctx context.Context, appt *models.Appointment, event *models.OutboxEvent) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ListAppointments(ctx context.Context) ([]models.Appointment, error)

	GetStatus(ctx context.Context) (models.Status, error)
	SetStatus(ctx context.Context, status models.Status) error

	// PendingEvents returns undispatched events, oldest first, skipping those
	// that already failed maxAttempts times (0 disables the cutoff).
	PendingEvents(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

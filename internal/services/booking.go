// Package services implements the availability and booking logic of the
// calendar: slot generation, availability queries and slot claiming.
package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"calendar-booking-server/internal/models"
	"calendar-booking-server/internal/notify"
	"calendar-booking-server/internal/store"
)

// BookingRequest carries the requester-supplied fields of a booking.
type BookingRequest struct {
	Date        string `json:"date" validate:"required"`
	TimeSlotID  string `json:"timeSlotId" validate:"required"`
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	MeetingType string `json:"meetingType" validate:"required"`
	Topic       string `json:"topic" validate:"max=2000"`
}

// BookingService owns the slot universe, the appointments and the owner
// status. It is constructed once at startup and shared by all handlers.
type BookingService struct {
	repo      store.Repository
	generator *SlotGenerator
	locker    SlotLocker
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService wires a BookingService. A nil locker defaults to a
// LocalLocker and a nil logger to a no-op logger.
func NewBookingService(repo store.Repository, generator *SlotGenerator, locker SlotLocker, logger *zap.Logger) *BookingService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = NewSlotGenerator(0, nil, nil, nil)
	}
	return &BookingService{
		repo:      repo,
		generator: generator,
		locker:    locker,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source; used by tests and tooling.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Location is the time zone slot dates are expressed in.
func (s *BookingService) Location() *time.Location {
	return s.generator.Location
}

// EnsureWindow generates any missing slots of the rolling window starting
// today. Existing slots keep their nominal flag.
func (s *BookingService) EnsureWindow(ctx context.Context) (int, error) {
	slots := s.generator.Generate(s.now())
	n, err := s.repo.InsertSlots(ctx, slots)
	if err != nil {
		return 0, fmt.Errorf("insert slots: %w", err)
	}
	if n > 0 {
		s.logger.Info("generated time slots", zap.Int("inserted", n), zap.Int("window", len(slots)))
	}
	return n, nil
}

// ListAvailableDays returns, in ascending order, every date that still has
// a nominally available, unclaimed slot.
func (s *BookingService) ListAvailableDays(ctx context.Context) ([]string, error) {
	slots, err := s.repo.ListSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	claimed, err := s.repo.ClaimedSlotIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list claimed slots: %w", err)
	}

	seen := make(map[string]bool)
	days := []string{}
	for _, slot := range slots {
		if seen[slot.Date] {
			continue
		}
		if slot.Available && !claimed[slot.ID] {
			seen[slot.Date] = true
			days = append(days, slot.Date)
		}
	}
	sort.Strings(days)
	return days, nil
}

// ListSlotsForDate returns every slot generated for date with Available
// recomputed as nominal and not claimed. Unknown dates yield an empty slice.
func (s *BookingService) ListSlotsForDate(ctx context.Context, date string) ([]models.TimeSlot, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, invalid("date", "must be formatted as YYYY-MM-DD")
	}

	slots, err := s.repo.SlotsForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list slots for %s: %w", date, err)
	}
	if len(slots) == 0 {
		return []models.TimeSlot{}, nil
	}

	ids := make([]string, len(slots))
	for i, slot := range slots {
		ids[i] = slot.ID
	}
	claimed, err := s.repo.ClaimedSlotIDs(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("list claimed slots: %w", err)
	}

	for i := range slots {
		slots[i].Available = slots[i].Available && !claimed[slots[i].ID]
	}
	return slots, nil
}

// ValidateBooking checks a request before any state is touched.
func (s *BookingService) ValidateBooking(req BookingRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return invalid(verrs[0].Field(), "failed on the '"+verrs[0].Tag()+"' rule")
		}
		return invalid("request", err.Error())
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return invalid("date", "must be formatted as YYYY-MM-DD")
	}
	if !strings.HasPrefix(req.TimeSlotID, req.Date+"-") {
		return invalid("timeSlotId", "does not belong to the requested date")
	}
	if _, ok := FindMeetingType(req.MeetingType); !ok {
		return invalid("meetingType", "unknown meeting type")
	}
	return nil
}

// BookAppointment claims the requested slot. At most one booking per slot
// ever succeeds, however many callers race for it; the rest get
// ErrSlotUnavailable and leave state unchanged.
func (s *BookingService) BookAppointment(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	if err := s.ValidateBooking(req); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, ErrLockTimeout) {
			// another booking of the same slot is still in flight
			return nil, fmt.Errorf("slot %s is being booked: %w", req.TimeSlotID, ErrSlotUnavailable)
		}
		return nil, fmt.Errorf("lock slot %s: %w", req.TimeSlotID, err)
	}
	defer unlock()

	slot, err := s.repo.GetSlot(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("slot %s does not exist: %w", req.TimeSlotID, ErrSlotUnavailable)
		}
		return nil, fmt.Errorf("get slot %s: %w", req.TimeSlotID, err)
	}
	if !slot.Available {
		return nil, fmt.Errorf("slot %s is not offered: %w", slot.ID, ErrSlotUnavailable)
	}

	appt := &models.Appointment{
		BaseModel:   models.BaseModel{ID: uuid.NewString(), CreatedAt: s.now().UTC()},
		Date:        slot.Date,
		TimeSlotID:  slot.ID,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		MeetingType: req.MeetingType,
		Topic:       strings.TrimSpace(req.Topic),
	}
	event, err := notify.NewBookingCreatedEvent(appt, slot.Time)
	if err != nil {
		return nil, fmt.Errorf("build booking event: %w", err)
	}

	if err := s.repo.ClaimSlot(ctx, appt, event); err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			return nil, fmt.Errorf("slot %s already booked: %w", slot.ID, ErrSlotUnavailable)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("slot %s does not exist: %w", slot.ID, ErrSlotUnavailable)
		}
		return nil, fmt.Errorf("claim slot %s: %w", slot.ID, err)
	}

	s.logger.Info("appointment booked",
		zap.String("appointmentId", appt.ID),
		zap.String("timeSlotId", appt.TimeSlotID),
		zap.String("meetingType", appt.MeetingType),
	)
	return appt, nil
}

// GetAppointment returns a booked appointment or ErrNotFound.
func (s *BookingService) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return appt, nil
}

// GetSlot returns a slot by id or ErrNotFound.
func (s *BookingService) GetSlot(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("slot %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get slot %s: %w", id, err)
	}
	return slot, nil
}

// ListAppointments returns every appointment in booking order.
func (s *BookingService) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	appts, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// GetStatus returns the owner's current reachability.
func (s *BookingService) GetStatus(ctx context.Context) (models.Status, error) {
	return s.repo.GetStatus(ctx)
}

// SetStatus updates the owner's reachability.
func (s *BookingService) SetStatus(ctx context.Context, status models.Status) error {
	if !status.Valid() {
		return invalid("status", "must be one of available, busy, away")
	}
	if err := s.repo.SetStatus(ctx, status); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	s.logger.Info("status updated", zap.String("status", string(status)))
	return nil
}

// ListMeetingTypes returns the static meeting catalog.
func (s *BookingService) ListMeetingTypes() []models.MeetingType {
	return MeetingTypes()
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

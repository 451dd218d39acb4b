package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"calendar-booking-server/internal/models"
)

// MemoryStore is an in-process Repository. A single lock guards every
// collection, which makes ClaimSlot's check-and-insert atomic.
type MemoryStore struct {
	mu           sync.RWMutex
	slots        map[string]models.TimeSlot
	appointments map[string]models.Appointment
	apptOrder    []string
	claimed      map[string]string // slot id -> appointment id
	events       []*models.OutboxEvent
	status       models.Status
}

// NewMemoryStore creates an empty MemoryStore with the owner marked available.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots:        make(map[string]models.TimeSlot),
		appointments: make(map[string]models.Appointment),
		claimed:      make(map[string]string),
		status:       models.StatusAvailable,
	}
}

// InsertSlots adds slots whose id is new and reports how many were added.
func (s *MemoryStore) InsertSlots(_ context.Context, slots []models.TimeSlot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, slot := range slots {
		if _, ok := s.slots[slot.ID]; ok {
			continue
		}
		s.slots[slot.ID] = slot
		inserted++
	}
	return inserted, nil
}

// ListSlots returns every slot ordered by date and index.
func (s *MemoryStore) ListSlots(_ context.Context) ([]models.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.TimeSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		out = append(out, slot)
	}
	sortSlots(out)
	return out, nil
}

// SlotsForDate returns the slots of one date ordered by index.
func (s *MemoryStore) SlotsForDate(_ context.Context, date string) ([]models.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TimeSlot
	for _, slot := range s.slots {
		if slot.Date == date {
			out = append(out, slot)
		}
	}
	sortSlots(out)
	return out, nil
}

// GetSlot returns a copy of the slot or ErrNotFound.
func (s *MemoryStore) GetSlot(_ context.Context, id string) (*models.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &slot, nil
}

// ClaimedSlotIDs reports which of slotIDs are claimed; no ids means all.
func (s *MemoryStore) ClaimedSlotIDs(_ context.Context, slotIDs ...string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool)
	if len(slotIDs) == 0 {
		for id := range s.claimed {
			out[id] = true
		}
		return out, nil
	}
	for _, id := range slotIDs {
		if _, ok := s.claimed[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// ClaimSlot stores appt and event if the slot exists and is unclaimed.
func (s *MemoryStore) ClaimSlot(_ context.Context, appt *models.Appointment, event *models.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[appt.TimeSlotID]; !ok {
		return ErrNotFound
	}
	if _, taken := s.claimed[appt.TimeSlotID]; taken {
		return ErrAlreadyClaimed
	}

	s.claimed[appt.TimeSlotID] = appt.ID
	s.appointments[appt.ID] = *appt
	s.apptOrder = append(s.apptOrder, appt.ID)
	if event != nil {
		ev := *event
		s.events = append(s.events, &ev)
	}
	return nil
}

// GetAppointment returns a copy of the appointment or ErrNotFound.
func (s *MemoryStore) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appt, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &appt, nil
}

// ListAppointments returns appointments in booking order.
func (s *MemoryStore) ListAppointments(_ context.Context) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Appointment, 0, len(s.apptOrder))
	for _, id := range s.apptOrder {
		out = append(out, s.appointments[id])
	}
	return out, nil
}

// GetStatus returns the owner status.
func (s *MemoryStore) GetStatus(_ context.Context) (models.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, nil
}

// SetStatus replaces the owner status.
func (s *MemoryStore) SetStatus(_ context.Context, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	return nil
}

// PendingEvents returns undispatched events below maxAttempts, oldest first.
func (s *MemoryStore) PendingEvents(_ context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.OutboxEvent
	for _, ev := range s.events {
		if ev.DispatchedAt != nil || (maxAttempts > 0 && ev.Attempts >= maxAttempts) {
			continue
		}
		out = append(out, *ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkDispatched records a successful publish.
func (s *MemoryStore) MarkDispatched(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.findEvent(id)
	if ev == nil {
		return ErrNotFound
	}
	ev.Attempts++
	ev.LastError = ""
	ev.DispatchedAt = &at
	return nil
}

// MarkFailed counts a failed publish and keeps the reason.
func (s *MemoryStore) MarkFailed(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.findEvent(id)
	if ev == nil {
		return ErrNotFound
	}
	ev.Attempts++
	ev.LastError = reason
	return nil
}

func (s *MemoryStore) findEvent(id string) *models.OutboxEvent {
	for _, ev := range s.events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

func sortSlots(slots []models.TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Index < slots[j].Index
	})
}

// Package notify turns outbox events into asynchronous notifications.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"calendar-booking-server/internal/models"
)

// TypeBookingCreated is the asynq task type for new bookings.
const TypeBookingCreated = "booking:created"

// QueueNotifications is the asynq queue notification tasks are sent to.
const QueueNotifications = "notifications"

// BookingCreated is the payload recorded when a slot is claimed.
type BookingCreated struct {
	AppointmentID string    `json:"appointmentId"`
	TimeSlotID    string    `json:"timeSlotId"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	MeetingType   string    `json:"meetingType"`
	Topic         string    `json:"topic,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewBookingCreatedEvent builds the outbox row for a freshly claimed slot.
func NewBookingCreatedEvent(appt *models.Appointment, slotTime string) (*models.OutboxEvent, error) {
	b, err := json.Marshal(BookingCreated{
		AppointmentID: appt.ID,
		TimeSlotID:    appt.TimeSlotID,
		Date:          appt.Date,
		Time:          slotTime,
		Name:          appt.Name,
		Email:         appt.Email,
		MeetingType:   appt.MeetingType,
		Topic:         appt.Topic,
		CreatedAt:     appt.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &models.OutboxEvent{
		BaseModel:   models.BaseModel{ID: uuid.NewString(), CreatedAt: appt.CreatedAt},
		Type:        models.EventBookingCreated,
		AggregateID: appt.ID,
		Payload:     string(b),
	}, nil
}

// NewTask converts an outbox event into an asynq task. The task id is the
// event id, so dispatching the same event twice enqueues it once.
func NewTask(ev models.OutboxEvent) (*asynq.Task, []asynq.Option, error) {
	switch ev.Type {
	case models.EventBookingCreated:
		task := asynq.NewTask(TypeBookingCreated, []byte(ev.Payload))
		opts := []asynq.Option{
			asynq.TaskID(ev.ID),
			asynq.Queue(QueueNotifications),
			asynq.MaxRetry(5),
			asynq.Timeout(30 * time.Second),
		}
		return task, opts, nil
	default:
		return nil, nil, fmt.Errorf("unknown outbox event type %q", ev.Type)
	}
}

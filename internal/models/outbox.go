package models

import "time"

// Outbox event types.
const (
	EventBookingCreated = "booking.created"
)

// OutboxEvent is a pending notification fact, written alongside the change
// that produced it and drained later by the dispatcher.
type OutboxEvent struct {
	BaseModel
	Type         string     `gorm:"size:64;not null;index" json:"type"`
	AggregateID  string     `gorm:"size:36;not null;index" json:"aggregateId"`
	Payload      string     `gorm:"type:text;not null" json:"payload"`
	Attempts     int        `gorm:"not null;default:0" json:"attempts"`
	LastError    string     `gorm:"type:text" json:"lastError,omitempty"`
	DispatchedAt *time.Time `gorm:"index" json:"dispatchedAt,omitempty"`
}

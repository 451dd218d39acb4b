package models

import "time"

// Status is the owner's general reachability.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusAway      Status = "away"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusAway:
		return true
	}
	return false
}

// OwnerStatusID is the primary key of the single owner_statuses row.
const OwnerStatusID = 1

// OwnerStatus persists the current Status.
type OwnerStatus struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Status    Status    `gorm:"size:20;not null" json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

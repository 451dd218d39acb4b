package models

import "fmt"

// DateLayout is the ISO calendar date format used for slot dates.
const DateLayout = "2006-01-02"

// TimeSlot is a bookable (date, time label) unit. Available is the nominal
// flag decided at generation time; whether the slot has been claimed is
// tracked by the appointments table.
type TimeSlot struct {
	ID        string `gorm:"primaryKey;size:32" json:"id"`
	Date      string `gorm:"size:10;not null;index" json:"date"`
	Index     int    `gorm:"column:slot_index;not null" json:"-"`
	Time      string `gorm:"size:20;not null" json:"time"`
	Available bool   `gorm:"not null" json:"available"`
}

// SlotID derives the deterministic slot identifier for a date and slot index.
func SlotID(date string, index int) string {
	return fmt.Sprintf("%s-%d", date, index)
}

package models

// Appointment is a confirmed claim on exactly one TimeSlot.
// The unique index on TimeSlotID is what keeps a slot from being claimed twice.
type Appointment struct {
	BaseModel
	Date        string `gorm:"size:10;index" json:"date"`
	TimeSlotID  string `gorm:"size:32;not null;uniqueIndex:idx_appointments_time_slot" json:"timeSlotId"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Email       string `gorm:"size:255;not null" json:"email"`
	MeetingType string `gorm:"size:50;not null" json:"meetingType"`
	Topic       string `gorm:"type:text" json:"topic"`
}

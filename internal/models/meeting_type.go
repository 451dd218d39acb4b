package models

// MeetingType is an entry of the static meeting catalog. Duration is in minutes.
type MeetingType struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	Icon     string `json:"icon"`
}

package services

import "calendar-booking-server/internal/models"

var meetingTypes = []models.MeetingType{
	{ID: "quick", Name: "Quick Chat", Duration: 15, Icon: "coffee"},
	{ID: "consultation", Name: "Consultation", Duration: 30, Icon: "message-circle"},
	{ID: "project", Name: "Project Discussion", Duration: 60, Icon: "briefcase"},
	{ID: "mentorship", Name: "Mentorship Session", Duration: 45, Icon: "graduation-cap"},
}

// MeetingTypes returns a copy of the static meeting catalog in display order.
func MeetingTypes() []models.MeetingType {
	out := make([]models.MeetingType, len(meetingTypes))
	copy(out, meetingTypes)
	return out
}

// FindMeetingType looks up a catalog entry by id.
func FindMeetingType(id string) (models.MeetingType, bool) {
	for _, mt := range meetingTypes {
		if mt.ID == id {
			return mt, true
		}
	}
	return models.MeetingType{}, false
}

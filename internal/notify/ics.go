package notify

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"calendar-booking-server/internal/models"
)

const slotTimeLayout = "2006-01-02 03:04 PM"

// SlotStart resolves a slot's date and time label to an instant in loc.
func SlotStart(slot models.TimeSlot, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(slotTimeLayout, slot.Date+" "+slot.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot %s time %q: %w", slot.ID, slot.Time, err)
	}
	return t, nil
}

// AppointmentICS encodes an appointment as a single-event VCALENDAR.
func AppointmentICS(appt models.Appointment, slot models.TimeSlot, mt models.MeetingType, organizer string, loc *time.Location) ([]byte, error) {
	start, err := SlotStart(slot, loc)
	if err != nil {
		return nil, err
	}
	duration := time.Duration(mt.Duration) * time.Minute
	if duration <= 0 {
		duration = time.Hour
	}

	ev := ical.NewComponent(ical.CompEvent)
	ev.Props.SetText(ical.PropUID, appt.ID)
	ev.Props.SetText(ical.PropSummary, fmt.Sprintf("%s with %s", mt.Name, appt.Name))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, appt.CreatedAt.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(duration).UTC())
	if appt.Topic != "" {
		ev.Props.SetText(ical.PropDescription, appt.Topic)
	}
	if organizer != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.SetText("mailto:" + organizer)
		ev.Props.Add(p)
	}
	attendee := ical.NewProp(ical.PropAttendee)
	attendee.SetText("mailto:" + appt.Email)
	ev.Props.Add(attendee)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calendar-booking-server//EN")
	cal.Children = append(cal.Children, ev)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

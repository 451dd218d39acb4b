package services

import (
	"time"

	"calendar-booking-server/internal/models"
)

// DefaultSlotLabels are the nine hourly labels offered each weekday.
var DefaultSlotLabels = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM", "01:00 PM",
	"02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM",
}

// DefaultWindowDays is the length of the rolling booking window.
const DefaultWindowDays = 14

// SlotGenerator builds the slot universe for a rolling window of days.
type SlotGenerator struct {
	WindowDays int
	Labels     []string
	Location   *time.Location
	Rule       AvailabilityRule
}

// NewSlotGenerator fills unset fields with defaults.
func NewSlotGenerator(windowDays int, labels []string, loc *time.Location, rule AvailabilityRule) *SlotGenerator {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if len(labels) == 0 {
		labels = DefaultSlotLabels
	}
	if loc == nil {
		loc = time.UTC
	}
	if rule == nil {
		rule = AlwaysAvailable{}
	}
	return &SlotGenerator{WindowDays: windowDays, Labels: labels, Location: loc, Rule: rule}
}

// Generate returns the slots of every weekday in [now, now+WindowDays).
func (g *SlotGenerator) Generate(now time.Time) []models.TimeSlot {
	local := now.In(g.Location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.Location)

	slots := make([]models.TimeSlot, 0, g.WindowDays*len(g.Labels))
	for d := 0; d < g.WindowDays; d++ {
		day := start.AddDate(0, 0, d)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		date := day.Format(models.DateLayout)
		for i, label := range g.Labels {
			id := models.SlotID(date, i)
			slots = append(slots, models.TimeSlot{
				ID:        id,
				Date:      date,
				Index:     i,
				Time:      label,
				Available: g.Rule.Available(id),
			})
		}
	}
	return slots
}

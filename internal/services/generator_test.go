package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSkipsWeekends(t *testing.T) {
	// Friday evening in New York is already Saturday in UTC.
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2025, time.January, 10, 22, 0, 0, 0, ny)

	g := NewSlotGenerator(3, []string{"09:00 AM", "10:00 AM"}, ny, nil)
	slots := g.Generate(now)

	require.Len(t, slots, 2)
	assert.Equal(t, "2025-01-10-0", slots[0].ID)
	assert.Equal(t, "2025-01-10-1", slots[1].ID)
	assert.Equal(t, "10:00 AM", slots[1].Time)
}

func TestGenerateIDsAreUnique(t *testing.T) {
	g := NewSlotGenerator(30, nil, nil, nil)
	slots := g.Generate(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	seen := make(map[string]bool)
	for _, s := range slots {
		assert.False(t, seen[s.ID], s.ID)
		seen[s.ID] = true
		assert.Equal(t, s.Date+"-", s.ID[:11])
	}
	assert.Len(t, slots, 20*len(DefaultSlotLabels))
}

func TestSeededAvailabilityIsDeterministic(t *testing.T) {
	now := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	a := NewSlotGenerator(14, nil, nil, SeededAvailability{Seed: 42, Ratio: 0.7}).Generate(now)
	b := NewSlotGenerator(14, nil, nil, SeededAvailability{Seed: 42, Ratio: 0.7}).Generate(now)
	assert.Equal(t, a, b)

	open := 0
	for _, s := range a {
		if s.Available {
			open++
		}
	}
	assert.Greater(t, open, 0)
	assert.Less(t, open, len(a))
}

func TestNewAvailabilityRule(t *testing.T) {
	assert.IsType(t, AlwaysAvailable{}, NewAvailabilityRule(3, 1))
	assert.IsType(t, SeededAvailability{}, NewAvailabilityRule(3, 0.5))
	assert.False(t, SeededAvailability{Ratio: 0}.Available("2025-01-06-0"))
}

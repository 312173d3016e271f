package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogEligibleExcludesBlockedSlots(t *testing.T) {
	catalog := Catalog{
		{ID: "s1", Day: Monday, Period: 1, Session: SessionMorning, IsActive: true},
		{ID: "s2", Day: Monday, Period: 2, Session: SessionMorning, IsActive: true, IsBreak: true, BreakType: "RECESS"},
		{ID: "s3", Day: Monday, Period: 3, Session: SessionMorning, IsActive: true, IsCPD: true},
		{ID: "s4", Day: Monday, Period: 4, Session: SessionMorning, IsActive: false},
		{ID: "s5", Day: Monday, Period: 5, Session: SessionAfternoon, IsActive: true},
	}

	morning := catalog.Eligible(SessionMorning)
	require.Len(t, morning, 1)
	assert.Equal(t, "s1", morning[0].ID)
	assert.Equal(t, 1, catalog.EligibleCount(SessionMorning))
	assert.Equal(t, 1, catalog.EligibleCount(SessionAfternoon))
}

func TestCatalogShiftsAndForShift(t *testing.T) {
	catalog := Catalog{
		{ID: "m1", Shift: "FIRST", Session: SessionMorning, IsActive: true},
		{ID: "m2", Shift: "SECOND", Session: SessionMorning, IsActive: true},
		{ID: "m3", Shift: "FIRST", Session: SessionAfternoon, IsActive: true},
	}

	assert.Equal(t, []string{"FIRST", "SECOND"}, catalog.Shifts())

	first := catalog.ForShift("FIRST")
	require.Len(t, first, 2)
	assert.Equal(t, "m1", first[0].ID)
	assert.Equal(t, "m3", first[1].ID)
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "MONDAY", DayName(Monday))
	assert.Equal(t, "FRIDAY", DayName(Friday))
	assert.Equal(t, "MONDAY", DayName(99))
}

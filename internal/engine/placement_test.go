package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCatalog builds an active catalog covering the given number of weekdays
// with morning periods 1..m and afternoon periods m+1..m+a.
func testCatalog(days, morningPeriods, afternoonPeriods int, shift string) Catalog {
	var catalog Catalog
	for day := 1; day <= days; day++ {
		for p := 1; p <= morningPeriods+afternoonPeriods; p++ {
			session := SessionMorning
			if p > morningPeriods {
				session = SessionAfternoon
			}
			catalog = append(catalog, Slot{
				ID:       fmt.Sprintf("%s-d%d-p%d", shift, day, p),
				Day:      day,
				Period:   p,
				Session:  session,
				IsActive: true,
				Shift:    shift,
			})
		}
	}
	return catalog
}

func requireNoDoubleBookings(t *testing.T, assignments []Assignment) {
	t.Helper()
	classCells := make(map[string]bool)
	teacherCells := make(map[string]bool)
	for _, a := range assignments {
		classKey := fmt.Sprintf("%s|%d|%d", a.ClassID, a.Day, a.Period)
		require.False(t, classCells[classKey], "class %s double-booked at day %d period %d", a.ClassID, a.Day, a.Period)
		classCells[classKey] = true

		teacherKey := fmt.Sprintf("%s|%d|%d", a.TeacherID, a.Day, a.Period)
		require.False(t, teacherCells[teacherKey], "teacher %s double-booked at day %d period %d", a.TeacherID, a.Day, a.Period)
		teacherCells[teacherKey] = true
	}
}

func TestGeneratePlacesFullyLoadedWeek(t *testing.T) {
	// 5 days x (5 morning + 5 afternoon) gives 25 cells per session. Five
	// subjects at 10 periods each fill the class grid exactly.
	catalog := testCatalog(5, 5, 5, "FIRST")
	var demands []Demand
	for i := 1; i <= 5; i++ {
		demands = append(demands, Demand{
			ClassID:        "class-a",
			SubjectID:      fmt.Sprintf("subject-%d", i),
			TeacherID:      fmt.Sprintf("teacher-%d", i),
			PeriodsPerWeek: 10,
		})
	}

	result, err := Generate(catalog, demands, Config{Seed: 42})
	require.NoError(t, err)

	assert.True(t, result.Report.Success)
	assert.Empty(t, result.Report.Conflicts)
	assert.Equal(t, 50, result.Report.TotalPlaced)
	require.Len(t, result.Assignments, 50)
	requireNoDoubleBookings(t, result.Assignments)

	slotsByID := make(map[string]Slot, len(catalog))
	for _, slot := range catalog {
		slotsByID[slot.ID] = slot
	}
	for _, a := range result.Assignments {
		slot, ok := slotsByID[a.SlotID]
		require.True(t, ok, "assignment references unknown slot %s", a.SlotID)
		assert.Equal(t, a.Session, slot.Session, "unit placed outside its session")
		assert.True(t, slot.Assignable())
	}
}

func TestGenerateNeverUsesBlockedSlots(t *testing.T) {
	catalog := testCatalog(5, 5, 5, "FIRST")
	// Block Wednesday period 9 for CPD and Friday period 6 as a break.
	for i := range catalog {
		if catalog[i].Day == Wednesday && catalog[i].Period == 9 {
			catalog[i].IsCPD = true
		}
		if catalog[i].Day == Friday && catalog[i].Period == 6 {
			catalog[i].IsBreak = true
			catalog[i].BreakType = "LUNCH"
		}
	}

	result, err := Generate(catalog, []Demand{
		{ClassID: "class-a", SubjectID: "math", TeacherID: "t1", PeriodsPerWeek: 10},
		{ClassID: "class-a", SubjectID: "geo", TeacherID: "t2", PeriodsPerWeek: 10},
	}, Config{Seed: 7})
	require.NoError(t, err)
	require.True(t, result.Report.Success)

	for _, a := range result.Assignments {
		assert.False(t, a.Day == Wednesday && a.Period == 9, "lesson placed on CPD block")
		assert.False(t, a.Day == Friday && a.Period == 6, "lesson placed on break")
	}
}

func TestGenerateReportsTeacherContention(t *testing.T) {
	// Two classes share one teacher for everything. Each class grid is
	// feasible on its own, but the teacher only has 4 cells per session for
	// 8 units per session, so exactly half the load cannot land.
	catalog := testCatalog(2, 2, 2, "FIRST")
	demands := []Demand{
		{ClassID: "class-a", SubjectID: "math", TeacherID: "shared", PeriodsPerWeek: 4},
		{ClassID: "class-a", SubjectID: "phys", TeacherID: "shared", PeriodsPerWeek: 4},
		{ClassID: "class-b", SubjectID: "math", TeacherID: "shared", PeriodsPerWeek: 4},
		{ClassID: "class-b", SubjectID: "phys", TeacherID: "shared", PeriodsPerWeek: 4},
	}

	result, err := Generate(catalog, demands, Config{Seed: 11})
	require.NoError(t, err)

	assert.False(t, result.Report.Success)
	assert.Len(t, result.Report.Conflicts, 8)
	assert.Equal(t, 8, result.Report.TotalPlaced)
	for _, c := range result.Report.Conflicts {
		assert.Equal(t, ReasonNoLegalSlot, c.Reason)
		assert.Equal(t, "shared", c.TeacherID)
	}
	// Conservation: every lesson unit is either placed or reported.
	assert.Equal(t, 16, result.Report.TotalPlaced+len(result.Report.Conflicts))
	requireNoDoubleBookings(t, result.Assignments)
}

func TestGenerateExcludesInfeasibleSessionOnly(t *testing.T) {
	// 3 morning cells but 4 morning units: the morning half is excluded up
	// front while the afternoon half still places.
	catalog := testCatalog(1, 3, 5, "FIRST")
	result, err := Generate(catalog, []Demand{
		{ClassID: "class-a", SubjectID: "math", TeacherID: "t1", PeriodsPerWeek: 8},
	}, Config{Seed: 3})
	require.NoError(t, err)

	require.Len(t, result.Report.Infeasible, 1)
	assert.Equal(t, ClassShortfall{ClassID: "class-a", Session: SessionMorning, Required: 4, Available: 3}, result.Report.Infeasible[0])

	infeasibleConflicts := 0
	for _, c := range result.Report.Conflicts {
		if c.Reason == ReasonInfeasibleDemand {
			infeasibleConflicts++
			assert.Equal(t, SessionMorning, c.Session)
		}
	}
	assert.Equal(t, 4, infeasibleConflicts)
	assert.Equal(t, 4, result.Report.TotalPlaced)
	for _, a := range result.Assignments {
		assert.Equal(t, SessionAfternoon, a.Session)
	}
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	catalog := testCatalog(5, 3, 4, "FIRST")
	demands := []Demand{
		{ClassID: "class-a", SubjectID: "math", TeacherID: "t1", PeriodsPerWeek: 6},
		{ClassID: "class-a", SubjectID: "geo", TeacherID: "t2", PeriodsPerWeek: 5},
		{ClassID: "class-b", SubjectID: "math", TeacherID: "t1", PeriodsPerWeek: 6},
		{ClassID: "class-b", SubjectID: "chem", TeacherID: "t3", PeriodsPerWeek: 7},
	}

	first, err := Generate(catalog, demands, Config{Seed: 99})
	require.NoError(t, err)
	second, err := Generate(catalog, demands, Config{Seed: 99})
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Report, second.Report)
}

func TestGenerateKeepsBestAttempt(t *testing.T) {
	catalog := testCatalog(2, 2, 2, "FIRST")
	demands := []Demand{
		{ClassID: "class-a", SubjectID: "math", TeacherID: "shared", PeriodsPerWeek: 4},
		{ClassID: "class-b", SubjectID: "math", TeacherID: "shared", PeriodsPerWeek: 4},
		{ClassID: "class-c", SubjectID: "math", TeacherID: "shared", PeriodsPerWeek: 4},
	}

	result, err := Generate(catalog, demands, Config{Seed: 1, MaxAttempts: 5})
	require.NoError(t, err)
	assert.False(t, result.Report.Success)
	assert.LessOrEqual(t, result.Report.Attempts, 5)
	assert.GreaterOrEqual(t, result.Report.Attempts, 1)
	// 12 units against 8 teacher cells leaves at least 4 unplaced in any attempt.
	assert.GreaterOrEqual(t, len(result.Report.Conflicts), 4)
	requireNoDoubleBookings(t, result.Assignments)
}

func TestPlaceUnitRelocatesEarlierPlacement(t *testing.T) {
	slotA := Slot{ID: "s1", Day: Monday, Period: 1, Session: SessionMorning, IsActive: true}
	slotB := Slot{ID: "s2", Day: Monday, Period: 2, Session: SessionMorning, IsActive: true}
	run := newPlacementRun(Catalog{slotA, slotB}, rand.New(rand.NewSource(1)), 2)

	// teacher-1's lesson takes period 1, then teacher-2 is blocked at
	// period 2 by another class. The only way to place teacher-2's lesson
	// is to relocate the first one.
	run.commit(LessonUnit{ClassID: "class-a", SubjectID: "math", TeacherID: "teacher-1", Session: SessionMorning}, slotA)
	run.usage.Reserve("class-x", "teacher-2", Monday, 2)

	placed := run.placeUnit(LessonUnit{ClassID: "class-a", SubjectID: "geo", TeacherID: "teacher-2", Session: SessionMorning})
	require.True(t, placed)
	require.Len(t, run.placed, 2)

	assert.Equal(t, "teacher-1", run.placed[0].TeacherID)
	assert.Equal(t, 2, run.placed[0].Period, "earlier placement should have moved to period 2")
	assert.Equal(t, "teacher-2", run.placed[1].TeacherID)
	assert.Equal(t, 1, run.placed[1].Period)
}

func TestPlaceUnitFailsWhenBudgetExhausted(t *testing.T) {
	slotA := Slot{ID: "s1", Day: Monday, Period: 1, Session: SessionMorning, IsActive: true}
	run := newPlacementRun(Catalog{slotA}, rand.New(rand.NewSource(1)), 1)

	run.commit(LessonUnit{ClassID: "class-a", SubjectID: "math", TeacherID: "teacher-1", Session: SessionMorning}, slotA)

	// Single-cell catalog: nothing can relocate, so the second unit fails.
	placed := run.placeUnit(LessonUnit{ClassID: "class-a", SubjectID: "geo", TeacherID: "teacher-2", Session: SessionMorning})
	assert.False(t, placed)
	assert.Len(t, run.placed, 1)
}

package engine

import (
	"fmt"
	"sort"
)

// Conflict reason codes surfaced to callers.
const (
	ReasonNoLegalSlot      = "NO_LEGAL_SLOT"
	ReasonInfeasibleDemand = "INFEASIBLE_DEMAND"
)

// Assignment binds a lesson unit to a concrete slot.
type Assignment struct {
	ClassID   string
	SubjectID string
	TeacherID string
	SlotID    string
	Day       int
	Period    int
	Session   Session
	Shift     string
}

// Conflict records a lesson unit that could not be placed.
type Conflict struct {
	ClassID   string
	SubjectID string
	TeacherID string
	Session   Session
	Reason    string
}

// TeacherOverload warns that a teacher's weekly load exceeds the cap. It
// never blocks a run.
type TeacherOverload struct {
	TeacherID string
	Assigned  int
	Cap       int
}

// Report summarises a generation run.
type Report struct {
	Success     bool
	TotalPlaced int
	Attempts    int
	Conflicts   []Conflict
	Infeasible  []ClassShortfall
	Overloads   []TeacherOverload
	ByClass     map[string]int
	ByTeacher   map[string]int
}

// Result carries the winning attempt of a generation run.
type Result struct {
	Assignments []Assignment
	Report      Report
}

// IntegrityError signals a double-booked grid cell discovered by the
// post-run audit. It indicates a logic defect, never bad input, and the run
// must fail loudly instead of persisting an invalid schedule.
type IntegrityError struct {
	Dimension string
	OwnerID   string
	Day       int
	Period    int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %s double-booked at day %d period %d", e.Dimension, e.OwnerID, e.Day, e.Period)
}

func buildReport(assignments []Assignment, conflicts []Conflict, shortfalls []ClassShortfall, overloads []TeacherOverload, attempts int) Report {
	byClass := make(map[string]int)
	byTeacher := make(map[string]int)
	for _, c := range conflicts {
		byClass[c.ClassID]++
		byTeacher[c.TeacherID]++
	}
	return Report{
		Success:     len(conflicts) == 0,
		TotalPlaced: len(assignments),
		Attempts:    attempts,
		Conflicts:   conflicts,
		Infeasible:  shortfalls,
		Overloads:   overloads,
		ByClass:     byClass,
		ByTeacher:   byTeacher,
	}
}

// DetectOverloads compares per-teacher weekly totals against the cap. For
// double-shift institutions it runs over the merged assignment set so
// cross-shift workload is still bounded.
func DetectOverloads(assignments []Assignment, weeklyCap int) []TeacherOverload {
	if weeklyCap <= 0 {
		return nil
	}
	totals := make(map[string]int)
	for _, a := range assignments {
		totals[a.TeacherID]++
	}
	teachers := make([]string, 0, len(totals))
	for id := range totals {
		teachers = append(teachers, id)
	}
	sort.Strings(teachers)

	var overloads []TeacherOverload
	for _, id := range teachers {
		if totals[id] > weeklyCap {
			overloads = append(overloads, TeacherOverload{TeacherID: id, Assigned: totals[id], Cap: weeklyCap})
		}
	}
	return overloads
}

// auditIntegrity verifies that no class and no teacher holds two assignments
// on the same (day, period) cell.
func auditIntegrity(assignments []Assignment) error {
	type cell struct {
		OwnerID string
		Day     int
		Period  int
	}
	classCells := make(map[cell]bool, len(assignments))
	teacherCells := make(map[cell]bool, len(assignments))
	for _, a := range assignments {
		classCell := cell{OwnerID: a.ClassID, Day: a.Day, Period: a.Period}
		if classCells[classCell] {
			return &IntegrityError{Dimension: "class", OwnerID: a.ClassID, Day: a.Day, Period: a.Period}
		}
		classCells[classCell] = true

		teacherCell := cell{OwnerID: a.TeacherID, Day: a.Day, Period: a.Period}
		if teacherCells[teacherCell] {
			return &IntegrityError{Dimension: "teacher", OwnerID: a.TeacherID, Day: a.Day, Period: a.Period}
		}
		teacherCells[teacherCell] = true
	}
	return nil
}

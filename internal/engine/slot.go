package engine

// Session partitions the school day; subject load is balanced across it.
type Session string

const (
	SessionMorning   Session = "MORNING"
	SessionAfternoon Session = "AFTERNOON"
)

// Weekday indices used by the slot catalog (teaching week is Monday-Friday).
const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 3
	Thursday  = 4
	Friday    = 5
)

var dayNames = map[int]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
}

// DayName resolves a weekday index to its catalog name.
func DayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return "MONDAY"
}

// Slot is one cell of the weekly grid. Catalog entries are immutable inputs
// to a generation run and are never mutated by the engine.
type Slot struct {
	ID        string
	Day       int
	Period    int
	Session   Session
	IsBreak   bool
	BreakType string
	IsCPD     bool
	IsActive  bool
	Shift     string
	StartsAt  string
	EndsAt    string
}

// Assignable reports whether the slot may ever host a lesson. CPD blocks are
// excluded even when they are not flagged as breaks.
func (s Slot) Assignable() bool {
	return s.IsActive && !s.IsBreak && !s.IsCPD
}

// Catalog is the fixed slot set of one institution, or of one shift of it.
type Catalog []Slot

// Eligible returns the assignable slots for a session in catalog order.
func (c Catalog) Eligible(session Session) []Slot {
	var slots []Slot
	for _, slot := range c {
		if slot.Session == session && slot.Assignable() {
			slots = append(slots, slot)
		}
	}
	return slots
}

// EligibleCount counts assignable slots for a session.
func (c Catalog) EligibleCount(session Session) int {
	count := 0
	for _, slot := range c {
		if slot.Session == session && slot.Assignable() {
			count++
		}
	}
	return count
}

// Shifts returns the distinct shift labels in first-seen order.
func (c Catalog) Shifts() []string {
	seen := make(map[string]bool)
	var shifts []string
	for _, slot := range c {
		if seen[slot.Shift] {
			continue
		}
		seen[slot.Shift] = true
		shifts = append(shifts, slot.Shift)
	}
	return shifts
}

// ForShift filters the catalog down to one shift.
func (c Catalog) ForShift(shift string) Catalog {
	var subset Catalog
	for _, slot := range c {
		if slot.Shift == shift {
			subset = append(subset, slot)
		}
	}
	return subset
}

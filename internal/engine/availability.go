package engine

// gridKey identifies one (day, period) cell of the weekly grid.
type gridKey struct {
	Day    int
	Period int
}

// usageTracker records which grid cells classes and teachers occupy. Each
// generation run owns exactly one tracker and discards it when the run ends,
// so concurrent runs for different institutions never interfere.
type usageTracker struct {
	classes  map[string]map[gridKey]bool
	teachers map[string]map[gridKey]bool
}

func newUsageTracker() *usageTracker {
	return &usageTracker{
		classes:  make(map[string]map[gridKey]bool),
		teachers: make(map[string]map[gridKey]bool),
	}
}

// Free reports whether both the class and the teacher are unbooked at the cell.
func (u *usageTracker) Free(classID, teacherID string, day, period int) bool {
	key := gridKey{Day: day, Period: period}
	if u.classes[classID][key] {
		return false
	}
	return !u.teachers[teacherID][key]
}

// Reserve books the cell for both owners.
func (u *usageTracker) Reserve(classID, teacherID string, day, period int) {
	key := gridKey{Day: day, Period: period}
	if u.classes[classID] == nil {
		u.classes[classID] = make(map[gridKey]bool)
	}
	if u.teachers[teacherID] == nil {
		u.teachers[teacherID] = make(map[gridKey]bool)
	}
	u.classes[classID][key] = true
	u.teachers[teacherID][key] = true
}

// Release frees the cell for both owners, undoing a Reserve.
func (u *usageTracker) Release(classID, teacherID string, day, period int) {
	key := gridKey{Day: day, Period: period}
	delete(u.classes[classID], key)
	delete(u.teachers[teacherID], key)
}

package engine

import "sort"

// ClassShortfall reports a class/session pair whose demand exceeds the
// eligible slot supply before placement starts.
type ClassShortfall struct {
	ClassID   string
	Session   Session
	Required  int
	Available int
}

// CheckFeasibility sums required lesson units per class and session and
// compares them against the eligible slot counts of the catalog. Feasibility
// is judged per class: an overloaded class is reported without blocking the
// others. Results are ordered by class then session.
func CheckFeasibility(catalog Catalog, units []LessonUnit) []ClassShortfall {
	type classSession struct {
		ClassID string
		Session Session
	}
	required := make(map[classSession]int)
	for _, unit := range units {
		required[classSession{ClassID: unit.ClassID, Session: unit.Session}]++
	}

	supply := map[Session]int{
		SessionMorning:   catalog.EligibleCount(SessionMorning),
		SessionAfternoon: catalog.EligibleCount(SessionAfternoon),
	}

	var shortfalls []ClassShortfall
	for key, count := range required {
		if count > supply[key.Session] {
			shortfalls = append(shortfalls, ClassShortfall{
				ClassID:   key.ClassID,
				Session:   key.Session,
				Required:  count,
				Available: supply[key.Session],
			})
		}
	}
	sort.Slice(shortfalls, func(i, j int) bool {
		if shortfalls[i].ClassID == shortfalls[j].ClassID {
			return shortfalls[i].Session < shortfalls[j].Session
		}
		return shortfalls[i].ClassID < shortfalls[j].ClassID
	})
	return shortfalls
}

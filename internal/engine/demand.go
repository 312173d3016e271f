package engine

// Demand is one weekly teaching requirement: a class needs a subject taught
// by a teacher for a number of periods per week.
type Demand struct {
	ClassID        string
	SubjectID      string
	TeacherID      string
	PeriodsPerWeek int
}

// LessonUnit is one atomic weekly period of a demand, tagged with the session
// it should land in. Units are rebuilt from scratch for every run.
type LessonUnit struct {
	ClassID   string
	SubjectID string
	TeacherID string
	Session   Session
}

// BuildLessonUnits expands demands into lesson units, splitting each demand
// into floor(periods/2) morning units and the remainder in the afternoon.
// Malformed records (missing ids, periods <= 0) are filtered out, not raised.
func BuildLessonUnits(demands []Demand) []LessonUnit {
	var units []LessonUnit
	for _, d := range demands {
		if d.PeriodsPerWeek <= 0 || d.ClassID == "" || d.SubjectID == "" || d.TeacherID == "" {
			continue
		}
		morning := d.PeriodsPerWeek / 2
		for i := 0; i < d.PeriodsPerWeek; i++ {
			session := SessionAfternoon
			if i < morning {
				session = SessionMorning
			}
			units = append(units, LessonUnit{
				ClassID:   d.ClassID,
				SubjectID: d.SubjectID,
				TeacherID: d.TeacherID,
				Session:   session,
			})
		}
	}
	return units
}

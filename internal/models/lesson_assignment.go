package models

import "time"

// LessonAssignment is one generated lesson placement. Regeneration replaces
// the institution's full assignment set in a single transaction.
type LessonAssignment struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	TimeSlotID    string    `db:"time_slot_id" json:"time_slot_id"`
	DayOfWeek     int       `db:"day_of_week" json:"day_of_week"`
	Period        int       `db:"period" json:"period"`
	Session       string    `db:"session" json:"session"`
	Shift         string    `db:"shift" json:"shift"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// LessonAssignmentFilter describes query params for listing assignments.
type LessonAssignmentFilter struct {
	ClassID   string
	TeacherID string
	DayOfWeek int
	Page      int
	PageSize  int
}

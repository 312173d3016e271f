package models

import "time"

// TeachingAssignment records that a teacher covers a subject for a class a
// given number of periods per week. These rows are the demand side of a
// generation run. Shift is empty for single-shift institutions.
type TeachingAssignment struct {
	ID             string    `db:"id" json:"id"`
	InstitutionID  string    `db:"institution_id" json:"institution_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	Shift          string    `db:"shift" json:"shift"`
	PeriodsPerWeek int       `db:"periods_per_week" json:"periods_per_week"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

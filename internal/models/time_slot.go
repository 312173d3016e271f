package models

import "time"

// TimeSlot is one cell of an institution's weekly grid. Rows are created
// during institution setup and are read-only inputs to generation runs.
type TimeSlot struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	DayOfWeek     int       `db:"day_of_week" json:"day_of_week"`
	Period        int       `db:"period" json:"period"`
	Session       string    `db:"session" json:"session"`
	IsBreak       bool      `db:"is_break" json:"is_break"`
	BreakType     string    `db:"break_type" json:"break_type"`
	IsCPD         bool      `db:"is_cpd" json:"is_cpd"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	Shift         string    `db:"shift" json:"shift"`
	StartsAt      string    `db:"starts_at" json:"starts_at"`
	EndsAt        string    `db:"ends_at" json:"ends_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

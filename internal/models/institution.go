package models

import "time"

// Institution is the scheduling boundary: slot catalogs, demand and generated
// assignments all belong to exactly one institution.
type Institution struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DoubleShift bool      `db:"double_shift" json:"double_shift"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

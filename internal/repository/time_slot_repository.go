package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TimeSlotRepository provides read access to an institution's slot catalog.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository creates a new time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// ListByInstitution returns the full slot catalog ordered by day and period.
func (r *TimeSlotRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.TimeSlot, error) {
	const query = `SELECT id, institution_id, day_of_week, period, session, is_break, break_type, is_cpd, is_active, shift, starts_at, ends_at, created_at FROM time_slots WHERE institution_id = $1 ORDER BY shift ASC, day_of_week ASC, period ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, institutionID); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TeachingAssignmentRepository reads the demand side of generation runs.
type TeachingAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeachingAssignmentRepository creates a new teaching assignment repository.
func NewTeachingAssignmentRepository(db *sqlx.DB) *TeachingAssignmentRepository {
	return &TeachingAssignmentRepository{db: db}
}

// ListByInstitution returns all teaching assignments for an institution.
func (r *TeachingAssignmentRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.TeachingAssignment, error) {
	const query = `SELECT id, institution_id, class_id, subject_id, teacher_id, shift, periods_per_week, created_at, updated_at FROM teaching_assignments WHERE institution_id = $1 ORDER BY class_id ASC, subject_id ASC`
	var assignments []models.TeachingAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, institutionID); err != nil {
		return nil, fmt.Errorf("list teaching assignments: %w", err)
	}
	return assignments, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// LessonAssignmentRepository persists generated lesson assignments.
type LessonAssignmentRepository struct {
	db *sqlx.DB
}

// NewLessonAssignmentRepository creates a new lesson assignment repository.
func NewLessonAssignmentRepository(db *sqlx.DB) *LessonAssignmentRepository {
	return &LessonAssignmentRepository{db: db}
}

// CountByInstitution returns the number of stored assignments.
func (r *LessonAssignmentRepository) CountByInstitution(ctx context.Context, institutionID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM lesson_assignments WHERE institution_id = $1`, institutionID); err != nil {
		return 0, fmt.Errorf("count lesson assignments: %w", err)
	}
	return count, nil
}

// ReplaceForInstitution swaps the institution's full assignment set inside a
// single transaction: prior rows are deleted and the new set inserted, so
// readers never observe a partially written schedule.
func (r *LessonAssignmentRepository) ReplaceForInstitution(ctx context.Context, institutionID string, assignments []models.LessonAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace lesson assignments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM lesson_assignments WHERE institution_id = $1`, institutionID); err != nil {
		return fmt.Errorf("delete stale lesson assignments: %w", err)
	}

	if err = r.bulkInsert(ctx, tx, assignments); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace lesson assignments: %w", err)
	}
	return nil
}

func (r *LessonAssignmentRepository) bulkInsert(ctx context.Context, exec sqlx.ExtContext, assignments []models.LessonAssignment) error {
	now := time.Now().UTC()
	for i := range assignments {
		payload := assignments[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO lesson_assignments (id, institution_id, class_id, subject_id, teacher_id, time_slot_id, day_of_week, period, session, shift, created_at) VALUES (:id, :institution_id, :class_id, :subject_id, :teacher_id, :time_slot_id, :day_of_week, :period, :session, :shift, :created_at)`, &payload); err != nil {
			return fmt.Errorf("insert lesson assignment: %w", err)
		}
		assignments[i] = payload
	}
	return nil
}

// List returns assignments with optional filtering and pagination.
func (r *LessonAssignmentRepository) List(ctx context.Context, institutionID string, filter models.LessonAssignmentFilter) ([]models.LessonAssignment, int, error) {
	base := "FROM lesson_assignments WHERE institution_id = $1"
	args := []interface{}{institutionID}
	var conditions []string

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, institution_id, class_id, subject_id, teacher_id, time_slot_id, day_of_week, period, session, shift, created_at %s ORDER BY class_id ASC, day_of_week ASC, period ASC LIMIT %d OFFSET %d", base, size, offset)
	var assignments []models.LessonAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lesson assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lesson assignments: %w", err)
	}

	return assignments, total, nil
}

// ListByInstitution returns the full assignment set ordered for export.
func (r *LessonAssignmentRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.LessonAssignment, error) {
	const query = `SELECT id, institution_id, class_id, subject_id, teacher_id, time_slot_id, day_of_week, period, session, shift, created_at FROM lesson_assignments WHERE institution_id = $1 ORDER BY class_id ASC, day_of_week ASC, period ASC`
	var assignments []models.LessonAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, institutionID); err != nil {
		return nil, fmt.Errorf("list lesson assignments: %w", err)
	}
	return assignments, nil
}

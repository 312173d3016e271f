package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeachingAssignmentRepositoryListByInstitution(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTeachingAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "institution_id", "class_id", "subject_id", "teacher_id", "shift", "periods_per_week", "created_at", "updated_at"}).
		AddRow("ta-1", "inst-1", "class-a", "math", "t1", "", 6, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, class_id, subject_id, teacher_id, shift, periods_per_week")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	assignments, err := repo.ListByInstitution(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, 6, assignments[0].PeriodsPerWeek)
	require.NoError(t, mock.ExpectationsWereMet())
}

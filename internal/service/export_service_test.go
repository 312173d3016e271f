package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

type assignmentListerStub struct {
	rows []models.LessonAssignment
	err  error
}

func (s *assignmentListerStub) ListByInstitution(ctx context.Context, institutionID string) ([]models.LessonAssignment, error) {
	return s.rows, s.err
}

func exportFixtureRows() []models.LessonAssignment {
	return []models.LessonAssignment{
		{InstitutionID: "inst-1", ClassID: "class-a", SubjectID: "math", TeacherID: "t1", DayOfWeek: 1, Period: 1},
		{InstitutionID: "inst-1", ClassID: "class-a", SubjectID: "geo", TeacherID: "t2", DayOfWeek: 2, Period: 3},
		{InstitutionID: "inst-1", ClassID: "class-b", SubjectID: "math", TeacherID: "t1", DayOfWeek: 1, Period: 2},
	}
}

func newExportFixture(t *testing.T, rows []models.LessonAssignment) *TimetableExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewTimetableExportService(&assignmentListerStub{rows: rows}, store, 1, nil)
}

func TestBuildClassGridsPivotsAssignments(t *testing.T) {
	grids := buildClassGrids(exportFixtureRows())
	require.Len(t, grids, 2)

	gridA := grids["class-a"]
	assert.Equal(t, []string{"MONDAY", "TUESDAY"}, gridA.Days)
	assert.Equal(t, []int{1, 2, 3}, gridA.Periods)
	assert.Equal(t, "math (t1)", gridA.Cell("MONDAY", 1))
	assert.Equal(t, "geo (t2)", gridA.Cell("TUESDAY", 3))
	assert.Empty(t, gridA.Cell("MONDAY", 2))

	gridB := grids["class-b"]
	assert.Equal(t, "math (t1)", gridB.Cell("MONDAY", 2))
}

func TestRenderClassCSV(t *testing.T) {
	svc := newExportFixture(t, exportFixtureRows())

	payload, err := svc.RenderClassCSV(context.Background(), "inst-1", "class-a")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 4, "header plus one row per period")
	assert.Equal(t, "period,MONDAY,TUESDAY", lines[0])
	assert.Contains(t, lines[1], "math (t1)")
}

func TestRenderClassCSVUnknownClass(t *testing.T) {
	svc := newExportFixture(t, exportFixtureRows())

	_, err := svc.RenderClassCSV(context.Background(), "inst-1", "class-z")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestExportProcessWritesFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewTimetableExportService(&assignmentListerStub{rows: exportFixtureRows()}, store, 1, nil)

	require.NoError(t, svc.process(context.Background(), jobs.Job{ID: "job-1", Type: jobTypeTimetableExport, Payload: "inst-1"}))

	for _, name := range []string{"inst-1/class-a.csv", "inst-1/class-a.pdf", "inst-1/class-b.csv", "inst-1/class-b.pdf"} {
		info, err := os.Stat(store.Path(name))
		require.NoError(t, err, "expected %s to exist", name)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestExportProcessIgnoresBadPayload(t *testing.T) {
	svc := newExportFixture(t, nil)
	assert.NoError(t, svc.process(context.Background(), jobs.Job{ID: "job-1", Payload: 42}))
}

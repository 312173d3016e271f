package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/engine"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

const jobTypeTimetableExport = "timetable_export"

type assignmentLister interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]models.LessonAssignment, error)
}

// TimetableExportService renders stored timetables into per-class CSV and
// PDF files through a background worker queue.
type TimetableExportService struct {
	assignments assignmentLister
	store       *storage.LocalStorage
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	queue       *jobs.Queue
	logger      *zap.Logger
}

// NewTimetableExportService wires the export pipeline.
func NewTimetableExportService(assignments assignmentLister, store *storage.LocalStorage, workers int, logger *zap.Logger) *TimetableExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TimetableExportService{
		assignments: assignments,
		store:       store,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
	s.queue = jobs.NewQueue("timetable-exports", s.process, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers.
func (s *TimetableExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains and stops the export workers.
func (s *TimetableExportService) Stop() {
	s.queue.Stop()
}

// EnqueueInstitution queues a full per-class export for one institution.
func (s *TimetableExportService) EnqueueInstitution(institutionID string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeTimetableExport,
		Payload: institutionID,
	})
}

func (s *TimetableExportService) process(ctx context.Context, job jobs.Job) error {
	institutionID, ok := job.Payload.(string)
	if !ok || institutionID == "" {
		s.logger.Error("export job has invalid payload", zap.String("job_id", job.ID))
		return nil
	}

	assignments, err := s.assignments.ListByInstitution(ctx, institutionID)
	if err != nil {
		return fmt.Errorf("load assignments for export: %w", err)
	}
	if len(assignments) == 0 {
		s.logger.Warn("nothing to export", zap.String("institution_id", institutionID))
		return nil
	}

	grids := buildClassGrids(assignments)
	for classID, grid := range grids {
		csvBytes, err := s.csv.Render(grid)
		if err != nil {
			return fmt.Errorf("render csv for class %s: %w", classID, err)
		}
		pdfBytes, err := s.pdf.Render(grid)
		if err != nil {
			return fmt.Errorf("render pdf for class %s: %w", classID, err)
		}
		if _, err := s.store.Save(exportFilename(institutionID, classID, "csv"), csvBytes); err != nil {
			return err
		}
		if _, err := s.store.Save(exportFilename(institutionID, classID, "pdf"), pdfBytes); err != nil {
			return err
		}
	}

	s.logger.Info("timetable export finished",
		zap.String("institution_id", institutionID),
		zap.Int("classes", len(grids)))
	return nil
}

// RenderClassCSV renders one class timetable synchronously for download.
func (s *TimetableExportService) RenderClassCSV(ctx context.Context, institutionID, classID string) ([]byte, error) {
	assignments, err := s.assignments.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	grids := buildClassGrids(assignments)
	grid, ok := grids[classID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable stored for this class")
	}
	payload, err := s.csv.Render(grid)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return payload, nil
}

func exportFilename(institutionID, classID, ext string) string {
	return fmt.Sprintf("%s/%s.%s", institutionID, classID, ext)
}

// buildClassGrids pivots the flat assignment rows into one weekly grid per
// class. Days and periods cover the union observed across the institution so
// every class renders against the same frame.
func buildClassGrids(assignments []models.LessonAssignment) map[string]export.WeeklyGrid {
	daySet := make(map[int]bool)
	periodSet := make(map[int]bool)
	for _, a := range assignments {
		daySet[a.DayOfWeek] = true
		periodSet[a.Period] = true
	}

	dayNumbers := make([]int, 0, len(daySet))
	for day := range daySet {
		dayNumbers = append(dayNumbers, day)
	}
	sort.Ints(dayNumbers)
	days := make([]string, 0, len(dayNumbers))
	for _, day := range dayNumbers {
		days = append(days, engine.DayName(day))
	}

	periods := make([]int, 0, len(periodSet))
	for period := range periodSet {
		periods = append(periods, period)
	}
	sort.Ints(periods)

	grids := make(map[string]export.WeeklyGrid)
	for _, a := range assignments {
		grid, ok := grids[a.ClassID]
		if !ok {
			grid = export.WeeklyGrid{
				Title:   fmt.Sprintf("Class %s", a.ClassID),
				Days:    days,
				Periods: periods,
				Cells:   make(map[export.GridKey]string),
			}
		}
		key := export.GridKey{Day: engine.DayName(a.DayOfWeek), Period: a.Period}
		grid.Cells[key] = fmt.Sprintf("%s (%s)", a.SubjectID, a.TeacherID)
		grids[a.ClassID] = grid
	}
	return grids
}

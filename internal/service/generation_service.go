package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/engine"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type institutionReader interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
}

type slotCatalogReader interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]models.TimeSlot, error)
}

type demandReader interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]models.TeachingAssignment, error)
}

type assignmentStore interface {
	CountByInstitution(ctx context.Context, institutionID string) (int, error)
	ReplaceForInstitution(ctx context.Context, institutionID string, assignments []models.LessonAssignment) error
	List(ctx context.Context, institutionID string, filter models.LessonAssignmentFilter) ([]models.LessonAssignment, int, error)
}

// ReportCache stores and retrieves the latest conflict report per institution.
type ReportCache interface {
	SaveReport(ctx context.Context, institutionID string, report dto.TimetableReportResponse) error
	GetReport(ctx context.Context, institutionID string) (*dto.TimetableReportResponse, error)
}

// TimetableExporter queues file exports after a successful run.
type TimetableExporter interface {
	EnqueueInstitution(institutionID string) error
}

// GenerationConfig bounds the placement search for every run.
type GenerationConfig struct {
	BacktrackBudget  int
	MaxAttempts      int
	TeacherWeeklyCap int
	Seed             int64
}

// GenerationService runs the timetable pipeline: it loads the slot catalog
// and demand, places lessons shift by shift, atomically replaces the stored
// assignment set and publishes the conflict report.
type GenerationService struct {
	institutions institutionReader
	slots        slotCatalogReader
	demands      demandReader
	assignments  assignmentStore
	reports      ReportCache
	exporter     TimetableExporter
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          GenerationConfig
}

// NewGenerationService wires generation dependencies.
func NewGenerationService(
	institutions institutionReader,
	slots slotCatalogReader,
	demands demandReader,
	assignments assignmentStore,
	reports ReportCache,
	exporter TimetableExporter,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GenerationConfig,
) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		institutions: institutions,
		slots:        slots,
		demands:      demands,
		assignments:  assignments,
		reports:      reports,
		exporter:     exporter,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// Generate runs the full pipeline for one institution. Double-shift
// institutions get one independent engine run per shift; the merged result
// replaces the stored assignment set in a single transaction.
func (s *GenerationService) Generate(ctx context.Context, institutionID string, req dto.GenerateTimetableRequest) (*dto.TimetableReportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	institution, err := s.institutions.FindByID(ctx, institutionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}

	existing, err := s.assignments.CountByInstitution(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count existing assignments")
	}
	if existing > 0 && !req.Regenerate {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a timetable already exists for this institution; set regenerate=true to replace it")
	}

	slotRows, err := s.slots.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot catalog")
	}
	if len(slotRows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no slot catalog defined for this institution")
	}

	demandRows, err := s.demands.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching assignments")
	}
	if len(demandRows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no teaching assignments defined for this institution")
	}

	seed := s.cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	catalog := toEngineCatalog(slotRows)
	start := time.Now()
	results, err := s.runEngine(institution, catalog, demandRows, seed)
	if err != nil {
		s.metrics.ObserveGenerationRun("error", time.Since(start), 0, 0, 0)
		var integrity *engine.IntegrityError
		if errors.As(err, &integrity) {
			s.logger.Error("generation failed integrity audit",
				zap.String("institution_id", institutionID),
				zap.String("detail", integrity.Error()))
			return nil, appErrors.Wrap(err, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, appErrors.ErrIntegrity.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation run failed")
	}

	merged := mergeResults(results, s.cfg.TeacherWeeklyCap)
	rows := toAssignmentRows(institutionID, merged.Assignments)
	if err := s.assignments.ReplaceForInstitution(ctx, institutionID, rows); err != nil {
		s.metrics.ObserveGenerationRun("error", time.Since(start), merged.Report.Attempts, len(merged.Report.Conflicts), 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignments")
	}

	outcome := "success"
	if !merged.Report.Success {
		outcome = "conflict"
	}
	s.metrics.ObserveGenerationRun(outcome, time.Since(start), merged.Report.Attempts, len(merged.Report.Conflicts), merged.Report.TotalPlaced)

	report := toReportResponse(institutionID, seed, merged.Report)
	if s.reports != nil {
		if err := s.reports.SaveReport(ctx, institutionID, report); err != nil {
			s.logger.Warn("failed to cache conflict report", zap.String("institution_id", institutionID), zap.Error(err))
		}
	}

	if report.Success && s.exporter != nil {
		if err := s.exporter.EnqueueInstitution(institutionID); err != nil {
			s.logger.Warn("failed to enqueue timetable export", zap.String("institution_id", institutionID), zap.Error(err))
		}
	}

	s.logger.Info("generation run finished",
		zap.String("institution_id", institutionID),
		zap.Bool("success", report.Success),
		zap.Int("placed", report.TotalPlaced),
		zap.Int("conflicts", len(report.Conflicts)),
		zap.Int("attempts", report.Attempts))

	return &report, nil
}

// runEngine executes one engine run per shift for double-shift institutions
// and a single run otherwise. Each shift gets its own availability state, so
// a teacher may appear in both shifts of one day; within a shift the usual
// double-booking rules hold.
func (s *GenerationService) runEngine(institution *models.Institution, catalog engine.Catalog, demandRows []models.TeachingAssignment, seed int64) ([]*engine.Result, error) {
	engineCfg := engine.Config{
		Seed:             seed,
		BacktrackBudget:  s.cfg.BacktrackBudget,
		MaxAttempts:      s.cfg.MaxAttempts,
		TeacherWeeklyCap: s.cfg.TeacherWeeklyCap,
	}

	if !institution.DoubleShift {
		result, err := engine.Generate(catalog, toEngineDemands(demandRows, nil), engineCfg)
		if err != nil {
			return nil, err
		}
		return []*engine.Result{result}, nil
	}

	shifts := catalog.Shifts()
	known := make(map[string]bool, len(shifts))
	for _, shift := range shifts {
		known[shift] = true
	}
	for _, row := range demandRows {
		if !known[row.Shift] {
			s.logger.Warn("teaching assignment references unknown shift",
				zap.String("institution_id", institution.ID),
				zap.String("class_id", row.ClassID),
				zap.String("shift", row.Shift))
		}
	}

	var results []*engine.Result
	for i, shift := range shifts {
		cfg := engineCfg
		cfg.Seed = seed + int64(i)
		wanted := shift
		result, err := engine.Generate(catalog.ForShift(shift), toEngineDemands(demandRows, &wanted), cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Report returns the cached conflict report for an institution.
func (s *GenerationService) Report(ctx context.Context, institutionID string) (*dto.TimetableReportResponse, error) {
	if s.reports == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report cache unavailable")
	}
	report, err := s.reports.GetReport(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read conflict report")
	}
	s.metrics.RecordCacheOperation(report != nil)
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no conflict report cached for this institution")
	}
	return report, nil
}

// ListAssignments returns stored assignments with filtering and pagination.
func (s *GenerationService) ListAssignments(ctx context.Context, institutionID string, query dto.AssignmentQuery) ([]models.LessonAssignment, int, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment query")
	}
	filter := models.LessonAssignmentFilter{
		ClassID:   query.ClassID,
		TeacherID: query.TeacherID,
		DayOfWeek: query.DayOfWeek,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	assignments, total, err := s.assignments.List(ctx, institutionID, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, total, nil
}

// --- Conversions ---

func toEngineCatalog(rows []models.TimeSlot) engine.Catalog {
	catalog := make(engine.Catalog, 0, len(rows))
	for _, row := range rows {
		catalog = append(catalog, engine.Slot{
			ID:        row.ID,
			Day:       row.DayOfWeek,
			Period:    row.Period,
			Session:   engine.Session(row.Session),
			IsBreak:   row.IsBreak,
			BreakType: row.BreakType,
			IsCPD:     row.IsCPD,
			IsActive:  row.IsActive,
			Shift:     row.Shift,
			StartsAt:  row.StartsAt,
			EndsAt:    row.EndsAt,
		})
	}
	return catalog
}

func toEngineDemands(rows []models.TeachingAssignment, shift *string) []engine.Demand {
	demands := make([]engine.Demand, 0, len(rows))
	for _, row := range rows {
		if shift != nil && row.Shift != *shift {
			continue
		}
		demands = append(demands, engine.Demand{
			ClassID:        row.ClassID,
			SubjectID:      row.SubjectID,
			TeacherID:      row.TeacherID,
			PeriodsPerWeek: row.PeriodsPerWeek,
		})
	}
	return demands
}

func mergeResults(results []*engine.Result, weeklyCap int) *engine.Result {
	if len(results) == 1 {
		return results[0]
	}
	merged := &engine.Result{}
	attempts := 0
	var conflicts []engine.Conflict
	var shortfalls []engine.ClassShortfall
	for _, result := range results {
		merged.Assignments = append(merged.Assignments, result.Assignments...)
		conflicts = append(conflicts, result.Report.Conflicts...)
		shortfalls = append(shortfalls, result.Report.Infeasible...)
		if result.Report.Attempts > attempts {
			attempts = result.Report.Attempts
		}
	}
	// Overloads are recomputed over the merged set so cross-shift workload
	// still counts against the weekly cap.
	overloads := engine.DetectOverloads(merged.Assignments, weeklyCap)
	byClass := make(map[string]int)
	byTeacher := make(map[string]int)
	for _, c := range conflicts {
		byClass[c.ClassID]++
		byTeacher[c.TeacherID]++
	}
	merged.Report = engine.Report{
		Success:     len(conflicts) == 0,
		TotalPlaced: len(merged.Assignments),
		Attempts:    attempts,
		Conflicts:   conflicts,
		Infeasible:  shortfalls,
		Overloads:   overloads,
		ByClass:     byClass,
		ByTeacher:   byTeacher,
	}
	return merged
}

func toAssignmentRows(institutionID string, assignments []engine.Assignment) []models.LessonAssignment {
	rows := make([]models.LessonAssignment, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, models.LessonAssignment{
			InstitutionID: institutionID,
			ClassID:       a.ClassID,
			SubjectID:     a.SubjectID,
			TeacherID:     a.TeacherID,
			TimeSlotID:    a.SlotID,
			DayOfWeek:     a.Day,
			Period:        a.Period,
			Session:       string(a.Session),
			Shift:         a.Shift,
		})
	}
	return rows
}

func toReportResponse(institutionID string, seed int64, report engine.Report) dto.TimetableReportResponse {
	conflicts := make([]dto.TimetableConflict, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		conflicts = append(conflicts, dto.TimetableConflict{
			ClassID:   c.ClassID,
			TeacherID: c.TeacherID,
			SubjectID: c.SubjectID,
			Session:   string(c.Session),
			Reason:    c.Reason,
		})
	}
	infeasible := make([]dto.ClassShortfallDetail, 0, len(report.Infeasible))
	for _, s := range report.Infeasible {
		infeasible = append(infeasible, dto.ClassShortfallDetail{
			ClassID:   s.ClassID,
			Session:   string(s.Session),
			Required:  s.Required,
			Available: s.Available,
		})
	}
	warnings := make([]dto.TeacherOverloadWarning, 0, len(report.Overloads))
	for _, o := range report.Overloads {
		warnings = append(warnings, dto.TeacherOverloadWarning{
			TeacherID: o.TeacherID,
			Assigned:  o.Assigned,
			Cap:       o.Cap,
		})
	}
	return dto.TimetableReportResponse{
		InstitutionID: institutionID,
		Success:       report.Success,
		TotalPlaced:   report.TotalPlaced,
		Attempts:      report.Attempts,
		Seed:          seed,
		Conflicts:     conflicts,
		Infeasible:    infeasible,
		Warnings:      warnings,
		ByClass:       report.ByClass,
		ByTeacher:     report.ByTeacher,
		GeneratedAt:   time.Now().UTC(),
	}
}

package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, institutionID string, req dto.GenerateTimetableRequest) (*dto.TimetableReportResponse, error)
	Report(ctx context.Context, institutionID string) (*dto.TimetableReportResponse, error)
	ListAssignments(ctx context.Context, institutionID string, query dto.AssignmentQuery) ([]models.LessonAssignment, int, error)
}

// ClassExportRenderer renders one class timetable for synchronous download.
type ClassExportRenderer interface {
	RenderClassCSV(ctx context.Context, institutionID, classID string) ([]byte, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service  timetableGenerator
	exporter ClassExportRenderer
}

// NewTimetableHandler constructs the handler. The exporter may be nil when
// exports are disabled.
func NewTimetableHandler(svc timetableGenerator, exporter ClassExportRenderer) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate a weekly timetable for an institution
// @Description Runs the placement engine and atomically replaces the stored assignment set. Conflicts are reported in the response body, not as an HTTP error.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Institution ID"
// @Param payload body dto.GenerateTimetableRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id}/timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
			return
		}
	}
	report, err := h.service.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Report godoc
// @Summary Fetch the latest conflict report
// @Tags Timetable
// @Produce json
// @Param id path string true "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id}/timetable/report [get]
func (h *TimetableHandler) Report(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Assignments godoc
// @Summary List stored lesson assignments
// @Tags Timetable
// @Produce json
// @Param id path string true "Institution ID"
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Filter by teacher"
// @Param dayOfWeek query int false "Filter by ISO day (1=Monday)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id}/timetable/assignments [get]
func (h *TimetableHandler) Assignments(c *gin.Context) {
	var query dto.AssignmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment query"))
		return
	}
	assignments, total, err := h.service.ListAssignments(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	response.JSON(c, http.StatusOK, assignments, pagination)
}

// ExportClassCSV godoc
// @Summary Download one class timetable as CSV
// @Tags Timetable
// @Produce text/csv
// @Param id path string true "Institution ID"
// @Param classId path string true "Class ID"
// @Success 200 {string} string "CSV payload"
// @Router /institutions/{id}/timetable/classes/{classId}/export.csv [get]
func (h *TimetableHandler) ExportClassCSV(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	classID := c.Param("classId")
	payload, err := h.exporter.RenderClassCSV(c.Request.Context(), c.Param("id"), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", classID+".csv"))
	c.Data(http.StatusOK, "text/csv", payload)
}

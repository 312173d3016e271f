package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	capturedID  string
	capturedReq dto.GenerateTimetableRequest
	report      *dto.TimetableReportResponse
	err         error
	assignments []models.LessonAssignment
	total       int
}

func (m *timetableServiceMock) Generate(ctx context.Context, institutionID string, req dto.GenerateTimetableRequest) (*dto.TimetableReportResponse, error) {
	m.capturedID = institutionID
	m.capturedReq = req
	return m.report, m.err
}

func (m *timetableServiceMock) Report(ctx context.Context, institutionID string) (*dto.TimetableReportResponse, error) {
	m.capturedID = institutionID
	return m.report, m.err
}

func (m *timetableServiceMock) ListAssignments(ctx context.Context, institutionID string, query dto.AssignmentQuery) ([]models.LessonAssignment, int, error) {
	m.capturedID = institutionID
	return m.assignments, m.total, m.err
}

type exportRendererMock struct {
	payload []byte
	err     error
}

func (m *exportRendererMock) RenderClassCSV(ctx context.Context, institutionID, classID string) ([]byte, error) {
	return m.payload, m.err
}

func newTimetableTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func TestTimetableHandlerGenerate(t *testing.T) {
	mockSvc := &timetableServiceMock{report: &dto.TimetableReportResponse{InstitutionID: "inst-1", Success: true, TotalPlaced: 11}}
	h := NewTimetableHandler(mockSvc, nil)

	c, w := newTimetableTestContext(t, http.MethodPost, "/institutions/inst-1/timetable/generate", []byte(`{"regenerate":true,"seed":5}`))
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}

	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inst-1", mockSvc.capturedID)
	assert.True(t, mockSvc.capturedReq.Regenerate)
	require.NotNil(t, mockSvc.capturedReq.Seed)
	assert.Equal(t, int64(5), *mockSvc.capturedReq.Seed)

	var envelope struct {
		Data dto.TimetableReportResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Success)
	assert.Equal(t, 11, envelope.Data.TotalPlaced)
}

func TestTimetableHandlerGenerateEmptyBody(t *testing.T) {
	mockSvc := &timetableServiceMock{report: &dto.TimetableReportResponse{Success: true}}
	h := NewTimetableHandler(mockSvc, nil)

	c, w := newTimetableTestContext(t, http.MethodPost, "/institutions/inst-1/timetable/generate", nil)
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}

	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mockSvc.capturedReq.Regenerate)
}

func TestTimetableHandlerGenerateInvalidJSON(t *testing.T) {
	h := NewTimetableHandler(&timetableServiceMock{}, nil)

	c, w := newTimetableTestContext(t, http.MethodPost, "/institutions/inst-1/timetable/generate", []byte(`{"regenerate":`))
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}

	h.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerGenerateConflictError(t *testing.T) {
	mockSvc := &timetableServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "a timetable already exists")}
	h := NewTimetableHandler(mockSvc, nil)

	c, w := newTimetableTestContext(t, http.MethodPost, "/institutions/inst-1/timetable/generate", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}

	h.Generate(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerReportNotFound(t *testing.T) {
	mockSvc := &timetableServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "no conflict report cached")}
	h := NewTimetableHandler(mockSvc, nil)

	c, w := newTimetableTestContext(t, http.MethodGet, "/institutions/inst-1/timetable/report", nil)
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}

	h.Report(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerAssignmentsPagination(t *testing.T) {
	mockSvc := &timetableServiceMock{
		assignments: []models.LessonAssignment{{ID: "la-1", ClassID: "class-a"}},
		total:       35,
	}
	h := NewTimetableHandler(mockSvc, nil)

	c, w := newTimetableTestContext(t, http.MethodGet, "/institutions/inst-1/timetable/assignments?classId=class-a&page=2&pageSize=10", nil)
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}

	h.Assignments(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Pagination.Page)
	assert.Equal(t, 10, envelope.Pagination.PageSize)
	assert.Equal(t, 35, envelope.Pagination.TotalCount)
}

func TestTimetableHandlerExportDisabled(t *testing.T) {
	h := NewTimetableHandler(&timetableServiceMock{}, nil)

	c, w := newTimetableTestContext(t, http.MethodGet, "/institutions/inst-1/timetable/classes/class-a/export.csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}, {Key: "classId", Value: "class-a"}}

	h.ExportClassCSV(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerExportClassCSV(t *testing.T) {
	renderer := &exportRendererMock{payload: []byte("period,MONDAY\n1,math (t1)\n")}
	h := NewTimetableHandler(&timetableServiceMock{}, renderer)

	c, w := newTimetableTestContext(t, http.MethodGet, "/institutions/inst-1/timetable/classes/class-a/export.csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}, {Key: "classId", Value: "class-a"}}

	h.ExportClassCSV(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "class-a.csv")
	assert.Contains(t, w.Body.String(), "math (t1)")
}

package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/service"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
)

type sessionServiceMock struct {
	filter    models.AttendanceSessionFilter
	deleted   string
	deleteErr error
	report    service.MonthlyReportRequest
}

func (m *sessionServiceMock) ListSessions(ctx context.Context, filter models.AttendanceSessionFilter) ([]models.AttendanceSession, error) {
	m.filter = filter
	return []models.AttendanceSession{{ID: "2024-03-10_Violão", Activity: "Violão", Present: 3}}, nil
}

func (m *sessionServiceMock) GetSession(ctx context.Context, id string) (*models.AttendanceSession, error) {
	if id != "2024-03-10_Violão" {
		return nil, appErrors.ErrNotFound
	}
	return &models.AttendanceSession{ID: id, Activity: "Violão"}, nil
}

func (m *sessionServiceMock) DeleteSession(ctx context.Context, id string) error {
	m.deleted = id
	return m.deleteErr
}

func (m *sessionServiceMock) ListSessionActivities(ctx context.Context) ([]string, error) {
	return []string{"Violão"}, nil
}

func (m *sessionServiceMock) MonthlyReport(ctx context.Context, req service.MonthlyReportRequest) (*models.MonthlyAttendanceReport, error) {
	m.report = req
	return &models.MonthlyAttendanceReport{Activity: req.Activity, Month: req.Month, Year: req.Year, AverageRate: 66.7}, nil
}

type sheetServiceMock struct{}

func (sheetServiceMock) Sheet(ctx context.Context, sessionID string) (*models.AttendanceSheet, error) {
	return &models.AttendanceSheet{SessionID: sessionID, Course: "Violão"}, nil
}

func (sheetServiceMock) RenderHTML(ctx context.Context, sessionID string) ([]byte, error) {
	return []byte("<html><script>window.print()</script></html>"), nil
}

func (sheetServiceMock) RenderPDF(ctx context.Context, sessionID string) ([]byte, error) {
	return []byte("%PDF-1.3"), nil
}

func TestSessionHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{}
	handler := NewSessionHandler(mockSvc, sheetServiceMock{})

	c, w := newGinContext(http.MethodGet, "/attendance/sessions?date=2024-03-10&teacher=maria", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.filter.Date)
	assert.Equal(t, "2024-03-10", mockSvc.filter.Date.Format(models.ISODate))
	assert.Equal(t, "maria", mockSvc.filter.Teacher)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestSessionHandlerListRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(&sessionServiceMock{}, sheetServiceMock{})

	c, w := newGinContext(http.MethodGet, "/attendance/sessions?date=10/03/2024", nil)
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(&sessionServiceMock{}, sheetServiceMock{})

	c, w := newGinContext(http.MethodGet, "/attendance/sessions/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{}
	handler := NewSessionHandler(mockSvc, sheetServiceMock{})

	c, w := newGinContext(http.MethodDelete, "/attendance/sessions/2024-03-10_Violão", nil)
	c.Params = gin.Params{{Key: "id", Value: "2024-03-10_Violão"}}
	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2024-03-10_Violão", mockSvc.deleted)
}

func TestSessionHandlerSheetFormats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(&sessionServiceMock{}, sheetServiceMock{})
	params := gin.Params{{Key: "id", Value: "2024-03-10_Violão"}}

	c, w := newGinContext(http.MethodGet, "/attendance/sessions/x/sheet", nil)
	c.Params = params
	handler.Sheet(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "window.print()")

	c, w = newGinContext(http.MethodGet, "/attendance/sessions/x/sheet?format=pdf", nil)
	c.Params = params
	handler.Sheet(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")

	c, w = newGinContext(http.MethodGet, "/attendance/sessions/x/sheet?format=json", nil)
	c.Params = params
	handler.Sheet(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"course":"Violão"`)

	c, w = newGinContext(http.MethodGet, "/attendance/sessions/x/sheet?format=docx", nil)
	c.Params = params
	handler.Sheet(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerMonthlyReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{}
	handler := NewSessionHandler(mockSvc, sheetServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports/monthly?activity=Violão&month=3&year=2024&district=Sede", nil)
	handler.MonthlyReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.MonthlyReportRequest{Activity: "Violão", Month: 3, Year: 2024, District: "Sede"}, mockSvc.report)

	c, w = newGinContext(http.MethodGet, "/reports/monthly?activity=Violão&month=marco&year=2024", nil)
	handler.MonthlyReport(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/service"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
	"github.com/noah-isme/mis-educa-api/pkg/response"
)

type sessionReporter interface {
	ListSessions(ctx context.Context, filter models.AttendanceSessionFilter) ([]models.AttendanceSession, error)
	GetSession(ctx context.Context, id string) (*models.AttendanceSession, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessionActivities(ctx context.Context) ([]string, error)
	MonthlyReport(ctx context.Context, req service.MonthlyReportRequest) (*models.MonthlyAttendanceReport, error)
}

type sheetRenderer interface {
	Sheet(ctx context.Context, sessionID string) (*models.AttendanceSheet, error)
	RenderHTML(ctx context.Context, sessionID string) ([]byte, error)
	RenderPDF(ctx context.Context, sessionID string) ([]byte, error)
}

// SessionHandler exposes attendance history, printable sheets and monthly reports.
type SessionHandler struct {
	reports sessionReporter
	sheets  sheetRenderer
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(reports sessionReporter, sheets sheetRenderer) *SessionHandler {
	return &SessionHandler{reports: reports, sheets: sheets}
}

// List godoc
// @Summary List attendance sessions
// @Tags Attendance Sessions
// @Produce json
// @Param date query string false "Exact date (YYYY-MM-DD)"
// @Param activity query string false "Exact activity"
// @Param teacher query string false "Teacher name fragment"
// @Success 200 {object} response.Envelope
// @Router /attendance/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.AttendanceSessionFilter{
		Activity: c.Query("activity"),
		Teacher:  c.Query("teacher"),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(models.ISODate, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		filter.Date = &date
	}
	sessions, err := h.reports.ListSessions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil, map[string]interface{}{"total": len(sessions)})
}

// Activities godoc
// @Summary Activities with recorded sessions
// @Tags Attendance Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/session-activities [get]
func (h *SessionHandler) Activities(c *gin.Context) {
	activities, err := h.reports.ListSessionActivities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// Get godoc
// @Summary Session detail
// @Tags Attendance Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.reports.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete a session
// @Description Removes every stored roll call of the session, district records included.
// @Tags Attendance Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /attendance/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.reports.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sheet godoc
// @Summary Printable attendance sheet
// @Description format=json returns the view model, html the auto-printing page, pdf an A4 document.
// @Tags Attendance Sessions
// @Produce json,html,application/pdf
// @Param id path string true "Session ID"
// @Param format query string false "json, html or pdf" default(html)
// @Success 200 {object} response.Envelope
// @Router /attendance/sessions/{id}/sheet [get]
func (h *SessionHandler) Sheet(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	switch strings.ToLower(c.DefaultQuery("format", "html")) {
	case "json":
		sheet, err := h.sheets.Sheet(ctx, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, sheet, nil)
	case "html":
		page, err := h.sheets.RenderHTML(ctx, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Document(c, "text/html; charset=utf-8", "frequencia.html", page, true)
	case "pdf":
		doc, err := h.sheets.RenderPDF(ctx, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Document(c, "application/pdf", "frequencia_"+id+".pdf", doc, true)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, html or pdf"))
	}
}

// MonthlyReport godoc
// @Summary Monthly attendance report
// @Tags Reports
// @Produce json
// @Param activity query string true "Activity"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Param district query string false "District"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/monthly [get]
func (h *SessionHandler) MonthlyReport(c *gin.Context) {
	var req service.MonthlyReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "month and year must be numbers"))
		return
	}
	report, err := h.reports.MonthlyReport(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

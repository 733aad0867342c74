package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/service"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
	"github.com/noah-isme/mis-educa-api/pkg/response"
)

type attendanceRecorder interface {
	ListActivities(ctx context.Context) ([]string, error)
	ListDistricts() []string
	DistrictFor(neighborhood string) string
	RequiresDistrict(activity string) bool
	Key(date time.Time, activity string, district *string) string
	Prepare(ctx context.Context, req service.RollCallRequest) (*models.RollCall, error)
	Save(ctx context.Context, req service.SaveAttendanceRequest, teacher string) (*models.AttendanceRecord, error)
}

// AttendanceHandler exposes roll call endpoints.
type AttendanceHandler struct {
	service attendanceRecorder
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceRecorder) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Activities godoc
// @Summary List activities
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/activities [get]
func (h *AttendanceHandler) Activities(c *gin.Context) {
	activities, err := h.service.ListActivities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// Districts godoc
// @Summary List districts
// @Description Districts selectable for the grouped activity. With neighborhood, resolves its district.
// @Tags Attendance
// @Produce json
// @Param activity query string false "Activity to check for district grouping"
// @Param neighborhood query string false "Neighborhood to resolve"
// @Success 200 {object} response.Envelope
// @Router /attendance/districts [get]
func (h *AttendanceHandler) Districts(c *gin.Context) {
	payload := gin.H{"districts": h.service.ListDistricts()}
	if activity := c.Query("activity"); activity != "" {
		payload["requires_district"] = h.service.RequiresDistrict(activity)
	}
	if neighborhood := c.Query("neighborhood"); neighborhood != "" {
		payload["district"] = h.service.DistrictFor(neighborhood)
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// RollCall godoc
// @Summary Prepare a roll call
// @Description Returns the roster to mark, or why the class cannot be recorded.
// @Tags Attendance
// @Produce json
// @Param activity query string true "Activity"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param district query string false "District (grouped activity only)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/roll-call [get]
func (h *AttendanceHandler) RollCall(c *gin.Context) {
	req := service.RollCallRequest{
		Activity: c.Query("activity"),
		Date:     c.Query("date"),
		District: c.Query("district"),
	}
	call, err := h.service.Prepare(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, call, nil)
}

// Save godoc
// @Summary Record attendance
// @Description Stores one roll call. Every enrolled student needs a mark; a class is recorded once per day.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SaveAttendanceRequest true "Marks"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Save(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	record, err := h.service.Save(c.Request.Context(), req, claims.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

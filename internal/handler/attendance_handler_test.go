package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mis-educa-api/internal/middleware"
	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/service"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
)

type attendanceServiceMock struct {
	prepareReq  service.RollCallRequest
	prepareResp *models.RollCall
	saveReq     service.SaveAttendanceRequest
	savedBy     string
	saveErr     error
}

func (m *attendanceServiceMock) ListActivities(ctx context.Context) ([]string, error) {
	return []string{"Percussão/Fanfarra", "Violão"}, nil
}

func (m *attendanceServiceMock) ListDistricts() []string {
	return []string{"Macaoca", "Sede"}
}

func (m *attendanceServiceMock) DistrictFor(neighborhood string) string {
	if neighborhood == "macaoca" {
		return "Macaoca"
	}
	return "Sede"
}

func (m *attendanceServiceMock) RequiresDistrict(activity string) bool {
	return activity == "Percussão/Fanfarra"
}

func (m *attendanceServiceMock) Key(date time.Time, activity string, district *string) string {
	return models.SessionKey(date, activity)
}

func (m *attendanceServiceMock) Prepare(ctx context.Context, req service.RollCallRequest) (*models.RollCall, error) {
	m.prepareReq = req
	return m.prepareResp, nil
}

func (m *attendanceServiceMock) Save(ctx context.Context, req service.SaveAttendanceRequest, teacher string) (*models.AttendanceRecord, error) {
	m.saveReq = req
	m.savedBy = teacher
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return &models.AttendanceRecord{ID: "2024-03-10_Violão", Activity: req.Activity, Teacher: teacher}, nil
}

func TestAttendanceHandlerDistricts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{})

	c, w := newGinContext(http.MethodGet, "/attendance/districts?activity=Percussão/Fanfarra&neighborhood=macaoca", nil)
	handler.Districts(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Districts        []string `json:"districts"`
			RequiresDistrict bool     `json:"requires_district"`
			District         string   `json:"district"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Macaoca", "Sede"}, body.Data.Districts)
	assert.True(t, body.Data.RequiresDistrict)
	assert.Equal(t, "Macaoca", body.Data.District)
}

func TestAttendanceHandlerRollCallPassesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{prepareResp: &models.RollCall{Key: "2024-03-10_Violão", CanSave: true}}
	handler := NewAttendanceHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/attendance/roll-call?activity=Violão&date=2024-03-10", nil)
	handler.RollCall(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Violão", mockSvc.prepareReq.Activity)
	assert.Equal(t, "2024-03-10", mockSvc.prepareReq.Date)
	assert.Contains(t, w.Body.String(), `"can_save":true`)
}

func TestAttendanceHandlerSaveUsesTokenTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{}
	handler := NewAttendanceHandler(mockSvc)

	payload := []byte(`{"activity":"Violão","date":"2024-03-10","marks":[{"student_id":"e1","status":"presente"}]}`)
	c, w := newGinContext(http.MethodPost, "/attendance", payload)
	c.Set(middleware.ContextUserKey, teacherClaims())
	handler.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Maria Lima", mockSvc.savedBy)
	require.Len(t, mockSvc.saveReq.Marks, 1)
	assert.Equal(t, "presente", mockSvc.saveReq.Marks[0].Status)
}

func TestAttendanceHandlerSaveConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{saveErr: appErrors.Clone(appErrors.ErrAlreadyRecorded, "already recorded")})

	payload := []byte(`{"activity":"Violão","date":"2024-03-10","marks":[{"student_id":"e1","status":"presente"}]}`)
	c, w := newGinContext(http.MethodPost, "/attendance", payload)
	c.Set(middleware.ContextUserKey, teacherClaims())
	handler.Save(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAttendanceHandlerSaveRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{})

	c, w := newGinContext(http.MethodPost, "/attendance", []byte(`{"marks":`))
	c.Set(middleware.ContextUserKey, teacherClaims())
	handler.Save(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

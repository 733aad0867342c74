package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/service"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

type enrollmentServiceMock struct{}

func (enrollmentServiceMock) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	return []models.Enrollment{{ID: "e1", Name: "Ana Souza"}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

func (enrollmentServiceMock) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	return &models.Enrollment{ID: id}, nil
}

func (enrollmentServiceMock) Create(ctx context.Context, req service.CreateEnrollmentRequest) (*models.Enrollment, error) {
	return &models.Enrollment{ID: "new", Name: req.Name}, nil
}

type lessonPlanServiceMock struct {
	author service.LessonPlanAuthor
}

func (m *lessonPlanServiceMock) Create(ctx context.Context, req service.CreateLessonPlanRequest, author service.LessonPlanAuthor) (*models.LessonPlan, error) {
	m.author = author
	return &models.LessonPlan{ID: "p1", Title: req.Title, Teacher: author.Name}, nil
}

func (m *lessonPlanServiceMock) Get(ctx context.Context, id string) (*models.LessonPlan, error) {
	return &models.LessonPlan{ID: id}, nil
}

func (m *lessonPlanServiceMock) List(ctx context.Context, filter models.LessonPlanFilter) ([]models.LessonPlan, error) {
	return nil, nil
}

func (m *lessonPlanServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

func buildTestRouter(plans *lessonPlanServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tokens := tokenStub{
		"admin-token":   {UserID: "a-1", Role: models.RoleAdmin, FullName: "Coordenação"},
		"teacher-token": teacherClaims(),
	}
	RegisterRoutes(r.Group("/api/v1"), Handlers{
		Auth:        NewAuthHandler(),
		Attendance:  NewAttendanceHandler(&attendanceServiceMock{prepareResp: &models.RollCall{CanSave: true}}),
		Sessions:    NewSessionHandler(&sessionServiceMock{}, sheetServiceMock{}),
		Enrollments: NewEnrollmentHandler(enrollmentServiceMock{}),
		LessonPlans: NewLessonPlanHandler(plans),
		Reports:     NewReportHandler(&reportServiceMock{downloadErr: appErrors.ErrForbidden}),
		Metrics:     NewMetricsHandler(nil),
	}, tokens)
	return r
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authed(method, path, token string, body []byte) *http.Request {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestRoutesIntegration(t *testing.T) {
	plans := &lessonPlanServiceMock{}
	router := buildTestRouter(plans)

	t.Run("missing token", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/attendance/activities", "", nil))
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/attendance/activities", "forged", nil))
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("teacher lists activities", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/attendance/activities", "teacher-token", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "Violão")
	})

	t.Run("teacher cannot delete sessions", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodDelete, "/api/v1/attendance/sessions/2024-03-10_Violão", "teacher-token", nil))
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("admin deletes sessions", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodDelete, "/api/v1/attendance/sessions/2024-03-10_Violão", "admin-token", nil))
		require.Equal(t, http.StatusNoContent, resp.Code)
	})

	t.Run("session activities route", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/attendance/session-activities", "teacher-token", nil))
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("teacher cannot register students", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodPost, "/api/v1/enrollments", "teacher-token", []byte(`{"name":"X"}`)))
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("enrollment list carries pagination", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/enrollments", "admin-token", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"pagination"`)
	})

	t.Run("lesson plan author comes from token", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodPost, "/api/v1/lesson-plans", "teacher-token", []byte(`{"title":"Acordes"}`)))
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Equal(t, "Maria Lima", plans.author.Name)
		require.Equal(t, "maria@example.com", plans.author.Email)
	})

	t.Run("download needs no bearer token", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/exports/download/abc", "", nil))
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("export status requires token", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/exports/job-1", "", nil))
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("me", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/auth/me", "teacher-token", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"TEACHER"`)
	})

	t.Run("metrics snapshot without service", func(t *testing.T) {
		resp := performRequest(router, authed(http.MethodGet, "/api/v1/admin/metrics", "admin-token", nil))
		require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}

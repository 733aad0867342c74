package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/middleware"
	"github.com/noah-isme/mis-educa-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth        *AuthHandler
	Attendance  *AttendanceHandler
	Sessions    *SessionHandler
	Enrollments *EnrollmentHandler
	LessonPlans *LessonPlanHandler
	Reports     *ReportHandler
	Metrics     *MetricsHandler
	// AuditLog receives one entry per successful destructive or administrative request.
	AuditLog    *zap.Logger
}

// RegisterRoutes mounts the API. Every route needs a bearer token except the signed export download.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	if h.Reports != nil {
		group.GET("/exports/download/:token", h.Reports.Download)
	}

	secured := group.Group("")
	secured.Use(middleware.JWT(tokens))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	secured.GET("/auth/me", h.Auth.Me)

	attendance := secured.Group("/attendance", staff)
	attendance.GET("/activities", h.Attendance.Activities)
	attendance.GET("/districts", h.Attendance.Districts)
	attendance.GET("/roll-call", h.Attendance.RollCall)
	attendance.POST("", h.Attendance.Save)
	attendance.GET("/session-activities", h.Sessions.Activities)
	attendance.GET("/sessions", h.Sessions.List)
	attendance.GET("/sessions/:id", h.Sessions.Get)
	attendance.GET("/sessions/:id/sheet", h.Sessions.Sheet)
	attendance.DELETE("/sessions/:id", adminOnly, middleware.Audit(h.AuditLog, "delete", "attendance_session"), h.Sessions.Delete)

	secured.GET("/reports/monthly", staff, h.Sessions.MonthlyReport)

	enrollments := secured.Group("/enrollments", staff)
	enrollments.GET("", h.Enrollments.List)
	enrollments.GET("/:id", h.Enrollments.Get)
	enrollments.POST("", adminOnly, middleware.Audit(h.AuditLog, "create", "enrollment"), h.Enrollments.Create)

	plans := secured.Group("/lesson-plans", staff)
	plans.GET("", h.LessonPlans.List)
	plans.GET("/:id", h.LessonPlans.Get)
	plans.POST("", h.LessonPlans.Create)
	plans.DELETE("/:id", adminOnly, middleware.Audit(h.AuditLog, "delete", "lesson_plan"), h.LessonPlans.Delete)

	if h.Reports != nil {
		exports := secured.Group("/exports", staff)
		exports.POST("", h.Reports.CreateExport)
		exports.GET("/:id", h.Reports.ExportStatus)
	}

	if h.Metrics != nil {
		secured.GET("/admin/metrics", adminOnly, h.Metrics.Snapshot)
	}
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/service"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
	"github.com/noah-isme/mis-educa-api/pkg/response"
)

type lessonPlanService interface {
	Create(ctx context.Context, req service.CreateLessonPlanRequest, author service.LessonPlanAuthor) (*models.LessonPlan, error)
	Get(ctx context.Context, id string) (*models.LessonPlan, error)
	List(ctx context.Context, filter models.LessonPlanFilter) ([]models.LessonPlan, error)
	Delete(ctx context.Context, id string) error
}

// LessonPlanHandler exposes lesson plan endpoints.
type LessonPlanHandler struct {
	plans lessonPlanService
}

// NewLessonPlanHandler constructs LessonPlanHandler.
func NewLessonPlanHandler(plans lessonPlanService) *LessonPlanHandler {
	return &LessonPlanHandler{plans: plans}
}

// List godoc
// @Summary List lesson plans
// @Tags Lesson Plans
// @Produce json
// @Param activity query string false "Activity"
// @Param district query string false "District"
// @Param teacher query string false "Teacher name fragment"
// @Param month query int false "Month"
// @Param year query int false "Year"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans [get]
func (h *LessonPlanHandler) List(c *gin.Context) {
	filter := models.LessonPlanFilter{
		Activity: c.Query("activity"),
		District: c.Query("district"),
		Teacher:  c.Query("teacher"),
	}
	filter.Month, _ = strconv.Atoi(c.Query("month"))
	filter.Year, _ = strconv.Atoi(c.Query("year"))

	plans, err := h.plans.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil, map[string]interface{}{"total": len(plans)})
}

// Get godoc
// @Summary Lesson plan detail
// @Tags Lesson Plans
// @Produce json
// @Param id path string true "Lesson plan ID"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans/{id} [get]
func (h *LessonPlanHandler) Get(c *gin.Context) {
	plan, err := h.plans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Create godoc
// @Summary Create a lesson plan
// @Tags Lesson Plans
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonPlanRequest true "Lesson plan"
// @Success 201 {object} response.Envelope
// @Router /lesson-plans [post]
func (h *LessonPlanHandler) Create(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateLessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.plans.Create(c.Request.Context(), req, service.LessonPlanAuthor{Name: claims.FullName, Email: claims.Email})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// Delete godoc
// @Summary Delete a lesson plan
// @Tags Lesson Plans
// @Param id path string true "Lesson plan ID"
// @Success 204
// @Router /lesson-plans/{id} [delete]
func (h *LessonPlanHandler) Delete(c *gin.Context) {
	if err := h.plans.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

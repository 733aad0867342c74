package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
	"github.com/noah-isme/mis-educa-api/pkg/textnorm"
)

type lessonPlanRepository interface {
	List(ctx context.Context, activity string) ([]models.LessonPlan, error)
	FindByID(ctx context.Context, id string) (*models.LessonPlan, error)
	Create(ctx context.Context, plan *models.LessonPlan) error
	Delete(ctx context.Context, id string) error
}

// CreateLessonPlanRequest is the payload of a new lesson plan.
type CreateLessonPlanRequest struct {
	Title       string `json:"title" validate:"required"`
	Activity    string `json:"activity" validate:"required"`
	District    string `json:"district"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Objectives  string `json:"objectives" validate:"required"`
	Materials   string `json:"materials"`
	Development string `json:"development" validate:"required"`
	Evaluation  string `json:"evaluation"`
}

// LessonPlanAuthor identifies the teacher creating a plan.
type LessonPlanAuthor struct {
	Name  string
	Email string
}

// LessonPlanService manages lesson plans.
type LessonPlanService struct {
	repo      lessonPlanRepository
	rules     AttendanceRules
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonPlanService constructs the service.
func NewLessonPlanService(repo lessonPlanRepository, rules AttendanceRules, validate *validator.Validate, logger *zap.Logger) *LessonPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonPlanService{repo: repo, rules: rules, validator: validate, logger: logger}
}

// Create stores a plan authored by the given teacher.
func (s *LessonPlanService) Create(ctx context.Context, req CreateLessonPlanRequest, author LessonPlanAuthor) (*models.LessonPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, err := time.Parse(models.ISODate, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	plan := &models.LessonPlan{
		Title:        strings.TrimSpace(req.Title),
		Activity:     strings.TrimSpace(req.Activity),
		Teacher:      s.rules.TeacherName(author.Name),
		TeacherEmail: author.Email,
		Date:         date,
		Objectives:   strings.TrimSpace(req.Objectives),
		Materials:    strings.TrimSpace(req.Materials),
		Development:  strings.TrimSpace(req.Development),
		Evaluation:   strings.TrimSpace(req.Evaluation),
	}
	if strings.TrimSpace(req.District) != "" {
		district, ok := s.rules.canonicalDistrict(req.District)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown district")
		}
		plan.District = &district
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		s.logger.Error("failed to create lesson plan", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create lesson plan")
	}
	return plan, nil
}

// Get returns one plan.
func (s *LessonPlanService) Get(ctx context.Context, id string) (*models.LessonPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson plan not found")
		}
		return nil, appErrors.Internal(err, "failed to load lesson plan")
	}
	return plan, nil
}

// List returns plans matching filter, newest first.
func (s *LessonPlanService) List(ctx context.Context, filter models.LessonPlanFilter) ([]models.LessonPlan, error) {
	plans, err := s.repo.List(ctx, strings.TrimSpace(filter.Activity))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list lesson plans")
	}
	out := make([]models.LessonPlan, 0, len(plans))
	for _, plan := range plans {
		if filter.Teacher != "" && !textnorm.ContainsFold(plan.Teacher, filter.Teacher) {
			continue
		}
		if filter.District != "" && plan.District != nil && !strings.EqualFold(*plan.District, filter.District) {
			continue
		}
		if filter.Year != 0 && plan.Date.Year() != filter.Year {
			continue
		}
		if filter.Month != 0 && int(plan.Date.Month()) != filter.Month {
			continue
		}
		out = append(out, plan)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Delete removes a plan.
func (s *LessonPlanService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson plan not found")
		}
		return appErrors.Internal(err, "failed to delete lesson plan")
	}
	return nil
}

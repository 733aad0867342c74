package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
	"github.com/noah-isme/mis-educa-api/pkg/textnorm"
)

type enrollmentRepository interface {
	List(ctx context.Context) ([]models.Enrollment, error)
	ListByActivity(ctx context.Context, activity string) ([]models.Enrollment, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

// CreateEnrollmentRequest describes a new student registration.
type CreateEnrollmentRequest struct {
	Number        string   `json:"number"`
	Name          string   `json:"name" validate:"required"`
	CPF           string   `json:"cpf"`
	Neighborhood  string   `json:"neighborhood" validate:"required"`
	School        string   `json:"school"`
	BirthDate     string   `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	GuardianName  string   `json:"guardian_name"`
	GuardianPhone string   `json:"guardian_phone"`
	GuardianEmail string   `json:"guardian_email" validate:"omitempty,email"`
	Activities    []string `json:"activities" validate:"required,min=1,dive,required"`
}

// EnrollmentService manages student registrations.
type EnrollmentService struct {
	repo      enrollmentRepository
	rules     AttendanceRules
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, rules AttendanceRules, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, rules: rules, validator: validate, logger: logger}
}

// List returns enrollments filtered by activity, district and name, sorted by name and paginated.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	var (
		items []models.Enrollment
		err   error
	)
	activity := strings.TrimSpace(filter.Activity)
	if activity != "" {
		items, err = s.repo.ListByActivity(ctx, activity)
	} else {
		items, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list enrollments")
	}

	district := strings.TrimSpace(filter.District)
	search := strings.TrimSpace(filter.Search)
	filtered := make([]models.Enrollment, 0, len(items))
	for _, e := range items {
		if district != "" && !strings.EqualFold(s.rules.DistrictFor(e.Neighborhood), district) {
			continue
		}
		if search != "" && !textnorm.ContainsFold(e.Name, search) {
			continue
		}
		filtered = append(filtered, e)
	}
	textnorm.SortBy(filtered, func(e models.Enrollment) string { return e.Name })

	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	total := len(filtered)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return filtered[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	return enrollment, nil
}

// Create registers a student.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	enrollment := &models.Enrollment{
		Number:        strings.TrimSpace(req.Number),
		Name:          strings.TrimSpace(req.Name),
		CPF:           strings.TrimSpace(req.CPF),
		Neighborhood:  strings.TrimSpace(req.Neighborhood),
		School:        strings.TrimSpace(req.School),
		GuardianName:  strings.TrimSpace(req.GuardianName),
		GuardianPhone: strings.TrimSpace(req.GuardianPhone),
		GuardianEmail: strings.TrimSpace(req.GuardianEmail),
	}
	for _, a := range req.Activities {
		if trimmed := strings.TrimSpace(a); trimmed != "" && !enrollment.HasActivity(trimmed) {
			enrollment.Activities = append(enrollment.Activities, trimmed)
		}
	}
	if req.BirthDate != "" {
		birth, err := time.Parse(models.ISODate, req.BirthDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid birth date")
		}
		enrollment.BirthDate = &birth
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, docstore.ErrExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already exists")
		}
		s.logger.Error("failed to create enrollment", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create enrollment")
	}
	return enrollment, nil
}

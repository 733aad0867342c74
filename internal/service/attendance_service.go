package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/repository"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
	"github.com/noah-isme/mis-educa-api/pkg/textnorm"
)

type rosterSource interface {
	List(ctx context.Context) ([]models.Enrollment, error)
	ListByActivity(ctx context.Context, activity string) ([]models.Enrollment, error)
}

type attendanceWriter interface {
	Exists(ctx context.Context, key string) (bool, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
}

// RollCallRequest selects the class being recorded.
type RollCallRequest struct {
	Activity string `json:"activity" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	District string `json:"district"`
}

// AttendanceMark is the status chosen for one student.
type AttendanceMark struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
}

// SaveAttendanceRequest carries the marks of a roll call.
type SaveAttendanceRequest struct {
	RollCallRequest
	Marks []AttendanceMark `json:"marks" validate:"required,dive"`
}

// AttendanceService records roll calls.
type AttendanceService struct {
	enrollments rosterSource
	records     attendanceWriter
	rules       AttendanceRules
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(enrollments rosterSource, records attendanceWriter, rules AttendanceRules, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{
		enrollments: enrollments,
		records:     records,
		rules:       rules,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if err := RegisterAttendanceValidations(svc.validator); err != nil {
		logger.Error("attendance validations not registered, roll calls will be rejected", zap.Error(err))
	}
	return svc
}

// RegisterAttendanceValidations adds the attendance_status tag to validate.
func RegisterAttendanceValidations(validate *validator.Validate) error {
	return validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToLower(strings.TrimSpace(fl.Field().String()))).Valid()
	})
}

// ListActivities returns every activity offered to enrolled students, sorted for display.
func (s *AttendanceService) ListActivities(ctx context.Context) ([]string, error) {
	enrollments, err := s.enrollments.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	seen := map[string]struct{}{}
	activities := make([]string, 0)
	for _, e := range enrollments {
		for _, a := range e.Activities {
			name := strings.TrimSpace(a)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			activities = append(activities, name)
		}
	}
	textnorm.SortStrings(activities)
	return activities, nil
}

// ListDistricts returns the districts selectable for the grouped activity.
func (s *AttendanceService) ListDistricts() []string {
	return s.rules.ListDistricts()
}

// DistrictFor maps a neighborhood to its district.
func (s *AttendanceService) DistrictFor(neighborhood string) string {
	return s.rules.DistrictFor(neighborhood)
}

// RequiresDistrict reports whether the activity is recorded per district.
func (s *AttendanceService) RequiresDistrict(activity string) bool {
	return s.rules.RequiresDistrict(activity)
}

// Key derives the record key for a roll call.
func (s *AttendanceService) Key(date time.Time, activity string, district *string) string {
	return s.rules.Key(date, activity, district)
}

// rollCall is a validated RollCallRequest.
type rollCall struct {
	activity string
	date     time.Time
	district *string
	key      string
}

func (s *AttendanceService) resolve(req RollCallRequest) (rollCall, error) {
	if err := s.validator.Struct(req); err != nil {
		return rollCall{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "activity and a YYYY-MM-DD date are required")
	}
	date, err := time.Parse(models.ISODate, req.Date)
	if err != nil {
		return rollCall{}, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	call := rollCall{activity: strings.TrimSpace(req.Activity), date: date}
	if s.rules.RequiresDistrict(call.activity) {
		if strings.TrimSpace(req.District) == "" {
			return rollCall{}, appErrors.Clone(appErrors.ErrValidation, "select a district")
		}
		district, ok := s.rules.canonicalDistrict(req.District)
		if !ok {
			return rollCall{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown district %q", req.District))
		}
		call.district = &district
	}
	call.key = s.rules.Key(call.date, call.activity, call.district)
	return call, nil
}

func (s *AttendanceService) roster(ctx context.Context, call rollCall) ([]models.RosterEntry, error) {
	enrollments, err := s.enrollments.ListByActivity(ctx, call.activity)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load roster")
	}
	roster := make([]models.RosterEntry, 0, len(enrollments))
	for _, e := range enrollments {
		if !e.HasActivity(call.activity) {
			continue
		}
		if call.district != nil && s.rules.DistrictFor(e.Neighborhood) != *call.district {
			continue
		}
		roster = append(roster, models.RosterEntry{
			StudentID:     e.ID,
			Name:          textnorm.Upper(e.Name),
			Neighborhood:  e.Neighborhood,
			DefaultStatus: models.AttendanceStatusAbsent,
		})
	}
	textnorm.SortBy(roster, func(r models.RosterEntry) string { return r.Name })
	return roster, nil
}

func alreadyRecordedMessage(call rollCall) string {
	class := "this class"
	if call.district != nil {
		class = fmt.Sprintf("this class (%s)", *call.district)
	}
	return fmt.Sprintf("attendance for %s was already recorded on %s", class, call.date.Format(models.DisplayDate))
}

func emptyRosterMessage(call rollCall) string {
	if call.district != nil {
		return fmt.Sprintf("no students found for this activity in district %s", *call.district)
	}
	return "no students found for this activity"
}

// Prepare returns the roll call form: either the roster to mark or the reason it cannot be saved.
func (s *AttendanceService) Prepare(ctx context.Context, req RollCallRequest) (*models.RollCall, error) {
	call, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	result := &models.RollCall{
		Key:      call.key,
		Date:     call.date,
		Activity: call.activity,
		District: call.district,
		Students: []models.RosterEntry{},
	}
	exists, err := s.records.Exists(ctx, call.key)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check attendance")
	}
	if exists {
		result.AlreadyRecorded = true
		result.Message = alreadyRecordedMessage(call)
		return result, nil
	}
	roster, err := s.roster(ctx, call)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		result.Message = emptyRosterMessage(call)
		return result, nil
	}
	result.Students = roster
	result.CanSave = true
	return result, nil
}

// Save stores the roll call once. Every roster student needs exactly one mark.
func (s *AttendanceService) Save(ctx context.Context, req SaveAttendanceRequest, teacher string) (*models.AttendanceRecord, error) {
	call, err := s.resolve(req.RollCallRequest)
	if err != nil {
		s.metrics.RecordAttendanceRejected("invalid")
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordAttendanceRejected("invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance marks")
	}
	roster, err := s.roster(ctx, call)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		s.metrics.RecordAttendanceRejected("empty_roster")
		return nil, appErrors.Clone(appErrors.ErrValidation, emptyRosterMessage(call))
	}

	enrolled := make(map[string]struct{}, len(roster))
	for _, r := range roster {
		enrolled[r.StudentID] = struct{}{}
	}
	marks := make(map[string]models.AttendanceStatus, len(req.Marks))
	for _, mark := range req.Marks {
		if _, ok := enrolled[mark.StudentID]; !ok {
			s.metrics.RecordAttendanceRejected("invalid")
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not enrolled in this class", mark.StudentID))
		}
		if _, dup := marks[mark.StudentID]; dup {
			s.metrics.RecordAttendanceRejected("invalid")
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s was marked more than once", mark.StudentID))
		}
		marks[mark.StudentID] = models.AttendanceStatus(strings.ToLower(strings.TrimSpace(mark.Status)))
	}

	entries := make([]models.AttendanceEntry, 0, len(roster))
	for _, r := range roster {
		status, ok := marks[r.StudentID]
		if !ok {
			s.metrics.RecordAttendanceRejected("incomplete")
			return nil, appErrors.ErrIncompleteRoll
		}
		entries = append(entries, models.AttendanceEntry{StudentID: r.StudentID, Name: r.Name, Status: status})
	}

	record := &models.AttendanceRecord{
		ID:       call.key,
		Date:     call.date,
		Activity: call.activity,
		District: call.district,
		Teacher:  s.rules.TeacherName(teacher),
		Students: entries,
		SavedAt:  s.now(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrAttendanceExists) {
			s.metrics.RecordAttendanceRejected("duplicate")
			return nil, appErrors.Clone(appErrors.ErrAlreadyRecorded, alreadyRecordedMessage(call))
		}
		s.logger.Error("failed to save attendance", zap.String("key", call.key), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save attendance")
	}

	s.metrics.RecordAttendanceSaved(call.activity, len(entries))
	s.cache.Invalidate(ctx, sessionCachePattern)
	s.logger.Info("attendance saved",
		zap.String("key", call.key),
		zap.String("teacher", record.Teacher),
		zap.Int("students", len(entries)),
	)
	return record, nil
}

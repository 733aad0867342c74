package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
	"github.com/noah-isme/mis-educa-api/pkg/textnorm"
)

type attendanceReader interface {
	List(ctx context.Context) ([]models.AttendanceRecord, int, error)
	DeleteMany(ctx context.Context, keys []string) (int64, error)
}

type lessonPlanSource interface {
	List(ctx context.Context, activity string) ([]models.LessonPlan, error)
}

const unknownSessionTeacher = "N/A"

// MonthlyReportRequest selects the month summarised by MonthlyReport.
type MonthlyReportRequest struct {
	Activity string `json:"activity" form:"activity" validate:"required"`
	Month    int    `json:"month" form:"month" validate:"required,min=1,max=12"`
	Year     int    `json:"year" form:"year" validate:"required,min=2000,max=2100"`
	District string `json:"district" form:"district"`
}

// AttendanceReportService aggregates stored roll calls into sessions and monthly reports.
type AttendanceReportService struct {
	records     attendanceReader
	enrollments rosterSource
	plans       lessonPlanSource
	rules       AttendanceRules
	cache       *CacheService
	ttl         time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAttendanceReportService constructs the reporting service.
func NewAttendanceReportService(records attendanceReader, enrollments rosterSource, plans lessonPlanSource, rules AttendanceRules, cache *CacheService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *AttendanceReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceReportService{
		records:     records,
		enrollments: enrollments,
		plans:       plans,
		rules:       rules,
		cache:       cache,
		ttl:         ttl,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListSessions returns the sessions matching filter, newest first, without per-student detail.
func (s *AttendanceReportService) ListSessions(ctx context.Context, filter models.AttendanceSessionFilter) ([]models.AttendanceSession, error) {
	sessions, err := s.cachedSessions(ctx)
	if err != nil {
		return nil, err
	}
	activity := strings.TrimSpace(filter.Activity)
	teacher := strings.TrimSpace(filter.Teacher)
	out := make([]models.AttendanceSession, 0, len(sessions))
	for _, session := range sessions {
		if filter.Date != nil && session.Date.Format(models.ISODate) != filter.Date.Format(models.ISODate) {
			continue
		}
		if activity != "" && session.Activity != activity {
			continue
		}
		if teacher != "" && !textnorm.ContainsFold(session.Teacher, teacher) {
			continue
		}
		session.Students = nil
		out = append(out, session)
	}
	return out, nil
}

// GetSession returns one session with its students sorted by name.
func (s *AttendanceReportService) GetSession(ctx context.Context, id string) (*models.AttendanceSession, error) {
	sessions, err := s.cachedSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			session := sessions[i]
			return &session, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
}

// DeleteSession removes every stored document of the session, district documents included.
func (s *AttendanceReportService) DeleteSession(ctx context.Context, id string) error {
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return err
	}
	var keys []string
	for _, session := range sessions {
		if session.ID == id {
			keys = session.DocumentIDs
			break
		}
	}
	if len(keys) == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
	}
	removed, err := s.records.DeleteMany(ctx, keys)
	if err != nil {
		s.logger.Error("failed to delete attendance session", zap.String("session", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete attendance session")
	}
	if removed == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
	}
	s.cache.Invalidate(ctx, sessionCachePattern)
	s.logger.Info("attendance session deleted", zap.String("session", id), zap.Int64("documents", removed))
	return nil
}

// ListSessionActivities returns the distinct activities that have sessions.
func (s *AttendanceReportService) ListSessionActivities(ctx context.Context) ([]string, error) {
	sessions, err := s.cachedSessions(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	activities := make([]string, 0)
	for _, session := range sessions {
		if _, ok := seen[session.Activity]; ok {
			continue
		}
		seen[session.Activity] = struct{}{}
		activities = append(activities, session.Activity)
	}
	textnorm.SortStrings(activities)
	return activities, nil
}

func (s *AttendanceReportService) cachedSessions(ctx context.Context) ([]models.AttendanceSession, error) {
	var cached []models.AttendanceSession
	if s.cache.Get(ctx, sessionCacheKey, &cached) {
		return cached, nil
	}
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, sessionCacheKey, sessions, s.ttl)
	return sessions, nil
}

func (s *AttendanceReportService) loadSessions(ctx context.Context) ([]models.AttendanceSession, error) {
	records, skipped, err := s.records.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance records")
	}
	if skipped > 0 {
		s.logger.Warn("skipped unreadable attendance documents", zap.Int("count", skipped))
	}
	for i := range records {
		records[i].Activity = s.rules.CanonicalActivity(records[i].Activity)
	}
	return groupSessions(records), nil
}

// groupSessions merges records sharing date and activity. Counts cover every entry of every document.
func groupSessions(records []models.AttendanceRecord) []models.AttendanceSession {
	index := map[string]int{}
	sessions := make([]models.AttendanceSession, 0)
	for _, record := range records {
		id := models.SessionKey(record.Date, record.Activity)
		pos, ok := index[id]
		if !ok {
			pos = len(sessions)
			index[id] = pos
			sessions = append(sessions, models.AttendanceSession{
				ID:        id,
				Date:      record.Date,
				DateLabel: record.Date.Format(models.DisplayDate),
				Activity:  record.Activity,
			})
		}
		session := &sessions[pos]
		session.DocumentIDs = append(session.DocumentIDs, record.ID)
		if session.Teacher == "" && strings.TrimSpace(record.Teacher) != "" {
			session.Teacher = record.Teacher
		}
		if record.District != nil {
			session.Districts = append(session.Districts, *record.District)
		}
		for _, entry := range record.Students {
			if entry.Status == models.AttendanceStatusPresent {
				session.Present++
			} else {
				session.Absent++
			}
			session.Students = append(session.Students, entry)
		}
	}
	for i := range sessions {
		if sessions[i].Teacher == "" {
			sessions[i].Teacher = unknownSessionTeacher
		}
		textnorm.SortStrings(sessions[i].Districts)
		textnorm.SortBy(sessions[i].Students, func(e models.AttendanceEntry) string { return e.Name })
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.After(sessions[j].Date)
		}
		return sessions[i].Activity < sessions[j].Activity
	})
	return sessions
}

// MonthlyReport computes per-student attendance of an activity during one month.
func (s *AttendanceReportService) MonthlyReport(ctx context.Context, req MonthlyReportRequest) (*models.MonthlyAttendanceReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "activity, month and year are required")
	}
	activity := strings.TrimSpace(req.Activity)
	var district *string
	if strings.TrimSpace(req.District) != "" {
		d, ok := s.rules.canonicalDistrict(req.District)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown district")
		}
		district = &d
	}

	enrollments, err := s.enrollments.ListByActivity(ctx, activity)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	records, _, err := s.records.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance records")
	}
	plans, err := s.plans.List(ctx, activity)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load lesson plans")
	}

	matched := make([]models.AttendanceRecord, 0)
	sessionIDs := map[string]struct{}{}
	for _, record := range records {
		if models.SanitizeActivity(record.Activity) != models.SanitizeActivity(activity) {
			continue
		}
		if record.Date.Year() != req.Year || int(record.Date.Month()) != req.Month {
			continue
		}
		if district != nil && (record.District == nil || *record.District != *district) {
			continue
		}
		matched = append(matched, record)
		sessionIDs[models.SessionKey(record.Date, record.Activity)] = struct{}{}
	}

	report := &models.MonthlyAttendanceReport{
		Activity:     activity,
		District:     district,
		Month:        req.Month,
		Year:         req.Year,
		SessionCount: len(sessionIDs),
		Students:     []models.StudentAttendanceStats{},
		Lessons:      []models.LessonPlan{},
		GeneratedAt:  s.now(),
	}

	for _, e := range enrollments {
		if !e.HasActivity(activity) {
			continue
		}
		if district != nil && s.rules.DistrictFor(e.Neighborhood) != *district {
			continue
		}
		stats := models.StudentAttendanceStats{StudentID: e.ID, Name: textnorm.Upper(e.Name)}
		for _, record := range matched {
			for _, entry := range record.Students {
				if !sameStudent(entry, e.ID, stats.Name) {
					continue
				}
				if entry.Status == models.AttendanceStatusPresent {
					stats.Presences++
				} else {
					stats.Absences++
				}
				break
			}
		}
		stats.Total = stats.Presences + stats.Absences
		stats.Rate = percentage(stats.Presences, stats.Total)
		stats.Band = models.BandFor(stats.Rate)
		report.Students = append(report.Students, stats)
	}
	textnorm.SortBy(report.Students, func(st models.StudentAttendanceStats) string { return st.Name })
	report.TotalStudents = len(report.Students)

	var present, entries int
	for _, record := range matched {
		for _, entry := range record.Students {
			entries++
			if entry.Status == models.AttendanceStatusPresent {
				present++
			}
		}
	}
	report.AverageRate = percentage(present, entries)

	for _, plan := range plans {
		if plan.Date.Year() != req.Year || int(plan.Date.Month()) != req.Month {
			continue
		}
		if district != nil && plan.District != nil && *plan.District != *district {
			continue
		}
		report.Lessons = append(report.Lessons, plan)
	}
	sort.SliceStable(report.Lessons, func(i, j int) bool {
		return report.Lessons[i].Date.After(report.Lessons[j].Date)
	})
	report.TotalLessons = len(report.Lessons)
	return report, nil
}

// sameStudent matches an entry by id, or by name for legacy entries stored without one.
func sameStudent(entry models.AttendanceEntry, id, name string) bool {
	if entry.StudentID != "" {
		return entry.StudentID == id
	}
	return textnorm.Upper(entry.Name) == name
}

// percentage returns part/total*100 rounded to one decimal, or 0 for an empty total.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

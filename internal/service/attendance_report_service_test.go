package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
)

type lessonPlanStub struct {
	plans []models.LessonPlan
}

func (s *lessonPlanStub) List(ctx context.Context, activity string) ([]models.LessonPlan, error) {
	var out []models.LessonPlan
	for _, p := range s.plans {
		if activity == "" || p.Activity == activity {
			out = append(out, p)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func entry(id, name string, status models.AttendanceStatus) models.AttendanceEntry {
	return models.AttendanceEntry{StudentID: id, Name: name, Status: status}
}

const (
	present = models.AttendanceStatusPresent
	absent  = models.AttendanceStatusAbsent
)

func sampleRecords() []models.AttendanceRecord {
	return []models.AttendanceRecord{
		{ID: "2024-03-10_Percussão_Fanfarra_Macaoca", Date: day("2024-03-10"), Activity: "Percussão/Fanfarra", District: strPtr("Macaoca"), Teacher: "PROF A",
			Students: []models.AttendanceEntry{entry("e2", "ANA SOUZA", present), entry("e3", "ÉRICA LIMA", absent)}},
		{ID: "2024-03-10_Percussão_Fanfarra_Cajazeiras", Date: day("2024-03-10"), Activity: "Percussão/Fanfarra", District: strPtr("Cajazeiras"), Teacher: "PROF A",
			Students: []models.AttendanceEntry{entry("e4", "BRUNO REIS", present)}},
		{ID: "2024-03-12_Violão", Date: day("2024-03-12"), Activity: "Violão", Teacher: "PROF B",
			Students: []models.AttendanceEntry{entry("e1", "JOÃO SILVA", present), entry("e2", "ANA SOUZA", present)}},
		{ID: "2024-03-05_Violão", Date: day("2024-03-05"), Activity: "Violão",
			Students: []models.AttendanceEntry{entry("e1", "JOÃO SILVA", absent), entry("e2", "ANA SOUZA", present)}},
		{ID: "2024-03-20_Violão", Date: day("2024-03-20"), Activity: "Violão", Teacher: "PROF B",
			Students: []models.AttendanceEntry{entry("", "João Silva", present), entry("e2", "ANA SOUZA", absent)}},
		{ID: "2024-02-28_Violão", Date: day("2024-02-28"), Activity: "Violão", Teacher: "PROF C",
			Students: []models.AttendanceEntry{entry("e1", "JOÃO SILVA", absent), entry("e2", "ANA SOUZA", present)}},
	}
}

func samplePlans() []models.LessonPlan {
	return []models.LessonPlan{
		{ID: "p1", Title: "Acordes", Activity: "Violão", Date: day("2024-03-12")},
		{ID: "p2", Title: "Ritmo", Activity: "Violão", Date: day("2024-03-05")},
		{ID: "p3", Title: "Escalas", Activity: "Violão", Date: day("2024-02-01")},
		{ID: "p4", Title: "Marcha", Activity: "Percussão/Fanfarra", District: strPtr("Cajazeiras"), Date: day("2024-03-10")},
		{ID: "p5", Title: "Caixa", Activity: "Percussão/Fanfarra", Date: day("2024-03-11")},
	}
}

func newReportingServiceForTest(store *attendanceStoreStub) (*AttendanceReportService, *memoryCache) {
	cacheRepo := newMemoryCache()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewAttendanceReportService(store, &enrollmentStub{items: sampleEnrollments()}, &lessonPlanStub{plans: samplePlans()}, testRules(), cache, time.Minute, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC) }
	return svc, cacheRepo
}

func TestListSessionsGroupsAndSorts(t *testing.T) {
	svc, _ := newReportingServiceForTest(newAttendanceStoreStub(sampleRecords()...))
	sessions, err := svc.ListSessions(context.Background(), models.AttendanceSessionFilter{})
	require.NoError(t, err)
	require.Len(t, sessions, 5)

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
		assert.Nil(t, s.Students)
	}
	assert.Equal(t, []string{
		"2024-03-20_Violão", "2024-03-12_Violão", "2024-03-10_Percussão_Fanfarra", "2024-03-05_Violão", "2024-02-28_Violão",
	}, ids)

	merged := sessions[2]
	assert.Equal(t, 2, merged.Present)
	assert.Equal(t, 1, merged.Absent)
	assert.Equal(t, []string{"Cajazeiras", "Macaoca"}, merged.Districts)
	assert.Len(t, merged.DocumentIDs, 2)
	assert.Equal(t, "10/03/2024", merged.DateLabel)
	assert.Equal(t, unknownSessionTeacher, sessions[3].Teacher)
}

func TestListSessionsFilters(t *testing.T) {
	svc, _ := newReportingServiceForTest(newAttendanceStoreStub(sampleRecords()...))
	ctx := context.Background()

	date := day("2024-03-10")
	sessions, err := svc.ListSessions(ctx, models.AttendanceSessionFilter{Date: &date})
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	sessions, err = svc.ListSessions(ctx, models.AttendanceSessionFilter{Activity: "Violão"})
	require.NoError(t, err)
	assert.Len(t, sessions, 4)

	sessions, err = svc.ListSessions(ctx, models.AttendanceSessionFilter{Teacher: "prof b"})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestListSessionsResolvesKeySpelledGroupedActivity(t *testing.T) {
	svc, _ := newReportingServiceForTest(newAttendanceStoreStub(keyDerivedGroupRecords("Percussão_Fanfarra")...))
	sessions, err := svc.ListSessions(context.Background(), models.AttendanceSessionFilter{Activity: "Percussão/Fanfarra"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Percussão/Fanfarra", sessions[0].Activity)
	assert.Equal(t, "2024-03-05_Percussão_Fanfarra", sessions[0].ID)
	assert.Equal(t, []string{"Macaoca", "Sede"}, sessions[0].Districts)
	assert.Equal(t, 1, sessions[0].Present)
	assert.Equal(t, 1, sessions[0].Absent)
}

func TestListSessionsUsesCache(t *testing.T) {
	store := newAttendanceStoreStub(sampleRecords()...)
	svc, cacheRepo := newReportingServiceForTest(store)
	ctx := context.Background()

	_, err := svc.ListSessions(ctx, models.AttendanceSessionFilter{})
	require.NoError(t, err)
	_, err = svc.ListSessions(ctx, models.AttendanceSessionFilter{Activity: "Violão"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.listed)
	assert.Contains(t, cacheRepo.values, sessionCacheKey)
}

func TestGetSessionSortsStudents(t *testing.T) {
	svc, _ := newReportingServiceForTest(newAttendanceStoreStub(sampleRecords()...))
	session, err := svc.GetSession(context.Background(), "2024-03-10_Percussão_Fanfarra")
	require.NoError(t, err)
	require.Len(t, session.Students, 3)
	assert.Equal(t, "ANA SOUZA", session.Students[0].Name)
	assert.Equal(t, "BRUNO REIS", session.Students[1].Name)
	assert.Equal(t, "ÉRICA LIMA", session.Students[2].Name)

	_, err = svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDeleteSessionRemovesEveryDocument(t *testing.T) {
	store := newAttendanceStoreStub(sampleRecords()...)
	svc, cacheRepo := newReportingServiceForTest(store)
	ctx := context.Background()

	require.NoError(t, svc.DeleteSession(ctx, "2024-03-10_Percussão_Fanfarra"))
	assert.NotContains(t, store.records, "2024-03-10_Percussão_Fanfarra_Macaoca")
	assert.NotContains(t, store.records, "2024-03-10_Percussão_Fanfarra_Cajazeiras")
	assert.Equal(t, []string{sessionCachePattern}, cacheRepo.invalidated)

	err := svc.DeleteSession(ctx, "2024-03-10_Percussão_Fanfarra")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListSessionActivities(t *testing.T) {
	svc, _ := newReportingServiceForTest(newAttendanceStoreStub(sampleRecords()...))
	activities, err := svc.ListSessionActivities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Percussão/Fanfarra", "Violão"}, activities)
}

func TestMonthlyReportComputesRates(t *testing.T) {
	svc, _ := newReportingServiceForTest(newAttendanceStoreStub(sampleRecords()...))
	report, err := svc.MonthlyReport(context.Background(), MonthlyReportRequest{Activity: "Violão", Month: 3, Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, 3, report.SessionCount)
	assert.Equal(t, 2, report.TotalStudents)
	require.Len(t, report.Students, 2)

	ana := report.Students[0]
	assert.Equal(t, "ANA SOUZA", ana.Name)
	assert.Equal(t, 2, ana.Presences)
	assert.Equal(t, 1, ana.Absences)
	assert.Equal(t, 3, ana.Total)
	assert.Equal(t, 66.7, ana.Rate)
	assert.Equal(t, models.AttendanceBandMedium, ana.Band)

	joao := report.Students[1]
	assert.Equal(t, 2, joao.Presences, "legacy entry without id matches by name")
	assert.Equal(t, 3, joao.Total)

	assert.Equal(t, 66.7, report.AverageRate)
	assert.Equal(t, 2, report.TotalLessons)
	require.Len(t, report.Lessons, 2)
	assert.Equal(t, "p1", report.Lessons[0].ID)
	assert.Equal(t, "p2", report.Lessons[1].ID)
}

func TestMonthlyReportFiltersDistrict(t *testing.T) {
	svc, _ := newReportingServiceForTest(newAttendanceStoreStub(sampleRecords()...))
	report, err := svc.MonthlyReport(context.Background(), MonthlyReportRequest{Activity: "Percussão/Fanfarra", Month: 3, Year: 2024, District: "Macaoca"})
	require.NoError(t, err)

	require.Len(t, report.Students, 2)
	assert.Equal(t, 100.0, report.Students[0].Rate)
	assert.Equal(t, models.AttendanceBandHigh, report.Students[0].Band)
	assert.Equal(t, 0.0, report.Students[1].Rate)
	assert.Equal(t, models.AttendanceBandLow, report.Students[1].Band)
	assert.Equal(t, 50.0, report.AverageRate)
	assert.Equal(t, 1, report.SessionCount)

	require.Len(t, report.Lessons, 1)
	assert.Equal(t, "p5", report.Lessons[0].ID)
}

func TestMonthlyReportValidation(t *testing.T) {
	svc, _ := newReportingServiceForTest(newAttendanceStoreStub())
	_, err := svc.MonthlyReport(context.Background(), MonthlyReportRequest{Activity: "Violão", Month: 13, Year: 2024})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.MonthlyReport(context.Background(), MonthlyReportRequest{Activity: "Violão", Month: 3, Year: 2024, District: "Atlântida"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPercentageRoundsToOneDecimal(t *testing.T) {
	assert.Equal(t, 0.0, percentage(0, 0))
	assert.Equal(t, 33.3, percentage(1, 3))
	assert.Equal(t, 66.7, percentage(2, 3))
	assert.Equal(t, 100.0, percentage(4, 4))
}

package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/repository"
)

type attendanceRekeyStore interface {
	List(ctx context.Context) ([]models.AttendanceRecord, int, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Put(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, key string) error
}

// RekeyReport summarises a rekey run.
type RekeyReport struct {
	Scanned   int      `json:"scanned"`
	Skipped   int      `json:"skipped"`
	Moved     int      `json:"moved"`
	Rewritten int      `json:"rewritten"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// MaintenanceService repairs stored attendance data.
type MaintenanceService struct {
	records attendanceRekeyStore
	rules   AttendanceRules
	cache   *CacheService
	logger  *zap.Logger
}

// NewMaintenanceService constructs MaintenanceService.
func NewMaintenanceService(records attendanceRekeyStore, rules AttendanceRules, cache *CacheService, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{records: records, rules: rules, cache: cache, logger: logger}
}

// Rekey moves records stored under a legacy key to their canonical key. A record whose canonical key
// is already taken stays where it is and is reported as a conflict. Records already under their
// canonical key but stored in a legacy shape are rewritten in place.
func (s *MaintenanceService) Rekey(ctx context.Context, dryRun bool) (*RekeyReport, error) {
	records, skipped, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	report := &RekeyReport{Scanned: len(records), Skipped: skipped}
	for i := range records {
		record := records[i]
		if activity := s.rules.CanonicalActivity(record.Activity); activity != record.Activity {
			record.Activity = activity
			record.Legacy = true
		}
		canonical := s.rules.Key(record.Date, record.Activity, record.District)
		if !s.rules.RequiresDistrict(record.Activity) {
			record.District = nil
		}
		if canonical == record.ID {
			if !record.Legacy {
				continue
			}
			report.Rewritten++
			if dryRun {
				continue
			}
			if err := s.records.Put(ctx, &record); err != nil {
				return report, err
			}
			s.logger.Info("attendance rewritten", zap.String("key", canonical))
			continue
		}
		if dryRun {
			report.Moved++
			continue
		}
		legacy := record.ID
		record.ID = canonical
		if err := s.records.Create(ctx, &record); err != nil {
			if errors.Is(err, repository.ErrAttendanceExists) {
				report.Conflicts = append(report.Conflicts, legacy)
				continue
			}
			return report, err
		}
		if err := s.records.Delete(ctx, legacy); err != nil {
			return report, err
		}
		report.Moved++
		s.logger.Info("attendance rekeyed", zap.String("from", legacy), zap.String("to", canonical))
	}
	if report.Moved+report.Rewritten > 0 && !dryRun {
		s.cache.Invalidate(ctx, sessionCachePattern)
	}
	return report, nil
}

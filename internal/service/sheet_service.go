package service

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/config"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
	"github.com/noah-isme/mis-educa-api/pkg/export"
	"github.com/noah-isme/mis-educa-api/pkg/textnorm"
)

type sessionReader interface {
	GetSession(ctx context.Context, id string) (*models.AttendanceSession, error)
}

type enrollmentLister interface {
	List(ctx context.Context) ([]models.Enrollment, error)
}

// SheetService builds the official printed attendance sheet of a session.
type SheetService struct {
	sessions    sessionReader
	enrollments enrollmentLister
	cfg         config.SheetConfig
	logger      *zap.Logger
}

// NewSheetService constructs the sheet service.
func NewSheetService(sessions sessionReader, enrollments enrollmentLister, cfg config.SheetConfig, logger *zap.Logger) *SheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinRows <= 0 {
		cfg.MinRows = 15
	}
	return &SheetService{sessions: sessions, enrollments: enrollments, cfg: cfg, logger: logger}
}

type sheetStudent struct {
	entry      models.AttendanceEntry
	enrollment *models.Enrollment
}

// Sheet lists the present students of a session by seniority, padded with blank rows.
func (s *SheetService) Sheet(ctx context.Context, sessionID string) (*models.AttendanceSheet, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	byID := make(map[string]*models.Enrollment, len(enrollments))
	byName := make(map[string]*models.Enrollment, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		byID[e.ID] = e
		byName[textnorm.Upper(e.Name)] = e
	}

	present := make([]sheetStudent, 0, len(session.Students))
	for _, entry := range session.Students {
		if entry.Status != models.AttendanceStatusPresent {
			continue
		}
		st := sheetStudent{entry: entry}
		if e, ok := byID[entry.StudentID]; ok && entry.StudentID != "" {
			st.enrollment = e
		} else if e, ok := byName[textnorm.Upper(entry.Name)]; ok {
			st.enrollment = e
		}
		present = append(present, st)
	}
	textnorm.SortBy(present, func(st sheetStudent) string { return st.entry.Name })
	sort.SliceStable(present, func(i, j int) bool {
		a, b := present[i].enrollment, present[j].enrollment
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})

	monthYear := textnorm.MonthYear(session.Date)
	sheet := &models.AttendanceSheet{
		SessionID:        session.ID,
		Institution:      s.cfg.Institution,
		Project:          s.cfg.Project,
		Course:           session.Activity,
		Workload:         s.cfg.Workload,
		ArtisticLanguage: s.cfg.ArtisticLanguage,
		Schedule:         s.cfg.Schedule,
		Modality:         export.Modalities[0],
		Teacher:          session.Teacher,
		Date:             session.Date,
		MonthYear:        monthYear,
		Rows:             make([]models.AttendanceSheetRow, 0, s.cfg.MinRows),
	}
	for i, st := range present {
		age := "-"
		if st.enrollment != nil {
			if years, ok := st.enrollment.AgeAt(session.Date); ok {
				age = strconv.Itoa(years)
			}
		}
		sheet.Rows = append(sheet.Rows, models.AttendanceSheetRow{
			Number:    i + 1,
			Name:      textnorm.Upper(st.entry.Name),
			MonthYear: monthYear,
			Age:       age,
			Content:   s.cfg.ProgramContent,
		})
	}
	for n := len(sheet.Rows); n < s.cfg.MinRows; n++ {
		sheet.Rows = append(sheet.Rows, models.AttendanceSheetRow{Number: n + 1, Blank: true})
	}
	return sheet, nil
}

// RenderHTML returns the printable page; it opens the print dialog once loaded.
func (s *SheetService) RenderHTML(ctx context.Context, sessionID string) ([]byte, error) {
	sheet, err := s.Sheet(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	page, err := export.RenderSheetHTML(*sheet, true)
	if err != nil {
		s.logger.Error("failed to render attendance sheet", zap.String("session", sessionID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render attendance sheet")
	}
	return page, nil
}

// RenderPDF returns the sheet as an A4 PDF document.
func (s *SheetService) RenderPDF(ctx context.Context, sessionID string) ([]byte, error) {
	sheet, err := s.Sheet(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	doc, err := export.RenderSheetPDF(*sheet)
	if err != nil {
		s.logger.Error("failed to render attendance sheet pdf", zap.String("session", sessionID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render attendance sheet")
	}
	return doc, nil
}

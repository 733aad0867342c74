package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/config"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
)

type sessionStub struct {
	session *models.AttendanceSession
}

func (s sessionStub) GetSession(ctx context.Context, id string) (*models.AttendanceSession, error) {
	if s.session == nil || s.session.ID != id {
		return nil, appErrors.ErrNotFound
	}
	return s.session, nil
}

func newSheetServiceForTest() *SheetService {
	birth := day("2010-03-11")
	enrollments := sampleEnrollments()
	enrollments[0].BirthDate = &birth
	session := &models.AttendanceSession{
		ID:       "2024-03-10_Violão",
		Date:     day("2024-03-10"),
		Activity: "Violão",
		Teacher:  "PROF B",
		Students: []models.AttendanceEntry{
			entry("e1", "JOÃO SILVA", present),
			entry("e2", "ANA SOUZA", present),
			entry("e3", "ÉRICA LIMA", absent),
			entry("x9", "ZECA VISITANTE", present),
			entry("e4", "BRUNO REIS", present),
		},
	}
	cfg := config.SheetConfig{Institution: "ESCOLA", Project: "MIS EDUCA", ProgramContent: "Prática", MinRows: 6}
	return NewSheetService(sessionStub{session: session}, &enrollmentStub{items: enrollments}, cfg, zap.NewNop())
}

func TestSheetListsPresentStudentsBySeniority(t *testing.T) {
	svc := newSheetServiceForTest()
	sheet, err := svc.Sheet(context.Background(), "2024-03-10_Violão")
	require.NoError(t, err)

	assert.Equal(t, "Violão", sheet.Course)
	assert.Equal(t, "PROF B", sheet.Teacher)
	assert.Equal(t, "Março/2024", sheet.MonthYear)
	assert.Equal(t, "PRESENCIAL", sheet.Modality)
	require.Len(t, sheet.Rows, 6)

	names := []string{sheet.Rows[0].Name, sheet.Rows[1].Name, sheet.Rows[2].Name, sheet.Rows[3].Name}
	assert.Equal(t, []string{"BRUNO REIS", "ANA SOUZA", "JOÃO SILVA", "ZECA VISITANTE"}, names)
	for i, row := range sheet.Rows {
		assert.Equal(t, i+1, row.Number)
	}
	assert.Equal(t, "13", sheet.Rows[2].Age)
	assert.Equal(t, "-", sheet.Rows[0].Age)
	assert.Equal(t, "Prática", sheet.Rows[0].Content)
	assert.Equal(t, "Março/2024", sheet.Rows[0].MonthYear)
	assert.True(t, sheet.Rows[4].Blank)
	assert.True(t, sheet.Rows[5].Blank)
	assert.Empty(t, sheet.Rows[5].Name)
}

func TestSheetPadsToConfiguredMinimum(t *testing.T) {
	svc := newSheetServiceForTest()
	svc.cfg.MinRows = 15
	sheet, err := svc.Sheet(context.Background(), "2024-03-10_Violão")
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 15)
	assert.Equal(t, 15, sheet.Rows[14].Number)
}

func TestSheetUnknownSession(t *testing.T) {
	svc := newSheetServiceForTest()
	_, err := svc.Sheet(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSheetRenderers(t *testing.T) {
	svc := newSheetServiceForTest()
	page, err := svc.RenderHTML(context.Background(), "2024-03-10_Violão")
	require.NoError(t, err)
	assert.Contains(t, string(page), "window.print()")
	assert.Contains(t, string(page), "BRUNO REIS")

	doc, err := svc.RenderPDF(context.Background(), "2024-03-10_Violão")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

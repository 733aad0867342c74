package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/export"
	"github.com/noah-isme/mis-educa-api/pkg/storage"
	"github.com/noah-isme/mis-educa-api/pkg/textnorm"
)

type monthlyReporter interface {
	MonthlyReport(ctx context.Context, req MonthlyReportRequest) (*models.MonthlyAttendanceReport, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders monthly reports and persists the files behind signed download links.
type ExportService struct {
	reports monthlyReporter
	storage fileStorage
	csv     datasetRenderer
	pdf     datasetRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reports monthlyReporter, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		reports: reports,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Generate renders the job's report and stores it, returning the signed download link.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	req := MonthlyReportRequest{Activity: job.Params.Activity, Month: job.Params.Month, Year: job.Params.Year}
	if job.Params.District != nil {
		req.District = *job.Params.District
	}
	report, err := s.reports.MonthlyReport(ctx, req)
	if err != nil {
		return nil, err
	}
	dataset := MonthlyReportDataset(report)

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Verify(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	parts := []string{"frequencia", sanitizeFilename(job.Params.Activity)}
	if job.Params.District != nil {
		parts = append(parts, sanitizeFilename(*job.Params.District))
	}
	parts = append(parts, fmt.Sprintf("%04d-%02d", job.Params.Year, job.Params.Month), s.now().Format("20060102_150405"))
	return strings.Join(parts, "_") + "." + string(job.Params.Format)
}

// maxFilenamePart bounds each filename component in bytes.
const maxFilenamePart = 100

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(strings.TrimSpace(raw))
	if len(result) > maxFilenamePart {
		cut := maxFilenamePart
		for cut > 0 && !utf8.RuneStart(result[cut]) {
			cut--
		}
		return result[:cut]
	}
	return result
}

// MonthlyReportDataset flattens a monthly report into one row per student.
func MonthlyReportDataset(report *models.MonthlyAttendanceReport) export.Dataset {
	subtitle := []string{
		fmt.Sprintf("Período: %s/%d", textnorm.MonthName(time.Month(report.Month)), report.Year),
	}
	if report.District != nil {
		subtitle = append(subtitle, "Distrito: "+*report.District)
	}
	subtitle = append(subtitle,
		fmt.Sprintf("Alunos: %d  Aulas: %d  Frequência média: %s%%", report.TotalStudents, report.TotalLessons, formatRate(report.AverageRate)),
	)
	rows := make([][]string, 0, len(report.Students))
	for _, st := range report.Students {
		rows = append(rows, []string{
			st.Name,
			strconv.Itoa(st.Presences),
			strconv.Itoa(st.Absences),
			strconv.Itoa(st.Total),
			formatRate(st.Rate),
			string(st.Band),
		})
	}
	return export.Dataset{
		Title:    "Relatório de Frequência - " + report.Activity,
		Subtitle: subtitle,
		Headers:  []string{"Aluno", "Presenças", "Faltas", "Total", "Frequência (%)", "Situação"},
		Rows:     rows,
	}
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 1, 64)
}

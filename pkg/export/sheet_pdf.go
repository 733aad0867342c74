package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/mis-educa-api/internal/models"
)

// Modalities are the options printed on the sheet; the sheet's modality is checked.
var Modalities = []string{"PRESENCIAL", "ON-LINE", "HÍBRIDO"}

var sheetColumns = []struct {
	title string
	width float64
}{
	{"Nº", 12},
	{"NOME", 72},
	{"MÊS/ANO", 30},
	{"IDADE", 14},
	{"CONTEÚDO PROGRAMÁTICO", 62},
}

// RenderSheetPDF draws the official attendance sheet on a single A4 page.
func RenderSheetPDF(sheet models.AttendanceSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Frequência de Alunos - "+sheet.Course, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, tr("FREQUÊNCIA DE ALUNOS"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	field := func(label, value string, width float64, ln int) {
		pdf.SetFont("Arial", "B", 10)
		labelWidth := pdf.GetStringWidth(tr(label)) + 2
		pdf.CellFormat(labelWidth, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(width-labelWidth, 7, tr(value), "B", ln, "L", false, 0, "")
	}
	field("INSTITUIÇÃO:", sheet.Institution, pageWidth, 1)
	field("PROJETO:", sheet.Project, pageWidth, 1)
	field("CURSO:", sheet.Course, pageWidth/2, 0)
	field("CARGA HORÁRIA:", sheet.Workload, pageWidth/2, 1)
	field("LINGUAGEM ARTÍSTICA:", sheet.ArtisticLanguage, pageWidth/2, 0)
	field("HORÁRIO:", sheet.Schedule, pageWidth/2, 1)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(pdf.GetStringWidth("MODALIDADE:")+4, 7, "MODALIDADE:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, option := range Modalities {
		x, y := pdf.GetX(), pdf.GetY()
		style := "D"
		if option == sheet.Modality {
			style = "FD"
		}
		pdf.SetFillColor(0, 0, 0)
		pdf.Rect(x, y+2, 3, 3, style)
		pdf.SetX(x + 4)
		pdf.CellFormat(pdf.GetStringWidth(tr(option))+8, 7, tr(option), "", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	field("PROFESSOR:", sheet.Teacher, pageWidth, 1)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range sheetColumns {
		pdf.CellFormat(col.width, 8, tr(col.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for _, row := range sheet.Rows {
		cells := []string{strconv.Itoa(row.Number), row.Name, row.MonthYear, row.Age, row.Content}
		for i, col := range sheetColumns {
			align := "C"
			size := 9.0
			if i == 1 {
				align = "L"
			}
			if i == 4 {
				size = 7.5
			}
			pdf.SetFont("Arial", "", size)
			pdf.CellFormat(col.width, 7, tr(cells[i]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(18)
	y := pdf.GetY()
	pdf.Line(15, y, 95, y)
	pdf.Line(115, y, 195, y)
	pdf.SetFont("Arial", "B", 8)
	pdf.SetXY(15, y+1)
	pdf.CellFormat(80, 5, tr("ASSINATURA DO PROFESSOR(A)"), "", 0, "C", false, 0, "")
	pdf.SetXY(115, y+1)
	pdf.CellFormat(80, 5, tr("ASSINATURA DO COORDENADOR(A) PEDAGÓGICO"), "", 0, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render sheet pdf: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/noah-isme/mis-educa-api/internal/models"
)

type sheetView struct {
	models.AttendanceSheet
	Options   []modalityOption
	AutoPrint bool
}

type modalityOption struct {
	Label   string
	Checked bool
}

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<title>Frequência de Alunos - {{.Course}}</title>
<style>
@page { size: A4; margin: 1cm; }
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: Arial, sans-serif; font-size: 12px; line-height: 1.2; color: #000; }
.container { width: 100%; max-width: 21cm; margin: 0 auto; padding: 10px; }
.titulo { text-align: center; font-size: 18px; font-weight: bold; margin: 10px 0 20px; }
.info-row { display: flex; margin-bottom: 8px; }
.info-half { flex: 1; display: flex; }
.info-label { font-weight: bold; margin-right: 5px; white-space: nowrap; }
.info-value { flex: 1; border-bottom: 1px solid #000; }
.checkbox { display: inline-block; width: 10px; height: 10px; border: 1px solid #000; margin: 0 4px 0 12px; }
.checkbox.checked { background: #000; }
table { width: 100%; border-collapse: collapse; margin-top: 15px; }
th, td { border: 1px solid #000; padding: 4px; height: 22px; }
th { background: #e6e6e6; font-size: 11px; }
.col-numero, .col-idade, .col-mes-ano { text-align: center; }
.col-conteudo { font-size: 10px; }
.assinaturas { display: flex; justify-content: space-between; margin-top: 50px; }
.assinatura-box { width: 45%; text-align: center; font-size: 10px; }
.linha-assinatura { border-bottom: 1px solid #000; height: 40px; margin-bottom: 5px; }
@media print { body { -webkit-print-color-adjust: exact; print-color-adjust: exact; } .container { padding: 0; } }
</style>
</head>
<body>
<div class="container">
<div class="titulo">FREQUÊNCIA DE ALUNOS</div>
<div class="info-row"><span class="info-label">INSTITUIÇÃO:</span><span class="info-value">{{.Institution}}</span></div>
<div class="info-row"><span class="info-label">PROJETO:</span><span class="info-value">{{.Project}}</span></div>
<div class="info-row">
<div class="info-half"><span class="info-label">CURSO:</span><span class="info-value">{{.Course}}</span></div>
<div class="info-half"><span class="info-label">CARGA HORÁRIA:</span><span class="info-value">{{.Workload}}</span></div>
</div>
<div class="info-row">
<div class="info-half"><span class="info-label">LINGUAGEM ARTÍSTICA:</span><span class="info-value">{{.ArtisticLanguage}}</span></div>
<div class="info-half"><span class="info-label">HORÁRIO:</span><span class="info-value">{{.Schedule}}</span></div>
</div>
<div class="info-row"><span class="info-label">MODALIDADE:</span>
{{- range .Options}}<span class="checkbox{{if .Checked}} checked{{end}}"></span><span>{{.Label}}</span>{{end}}
</div>
<div class="info-row"><span class="info-label">PROFESSOR:</span><span class="info-value">{{.Teacher}}</span></div>
<table>
<thead><tr><th class="col-numero">Nº</th><th class="col-nome">NOME</th><th class="col-mes-ano">MÊS/ANO</th><th class="col-idade">IDADE</th><th class="col-conteudo">CONTEÚDO PROGRAMÁTICO</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td class="col-numero">{{.Number}}</td>{{if .Blank}}<td>&nbsp;</td><td>&nbsp;</td><td>&nbsp;</td><td>&nbsp;</td>{{else}}<td class="col-nome">{{.Name}}</td><td class="col-mes-ano">{{.MonthYear}}</td><td class="col-idade">{{.Age}}</td><td class="col-conteudo">{{.Content}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
<div class="assinaturas">
<div class="assinatura-box"><div class="linha-assinatura"></div><strong>ASSINATURA DO PROFESSOR(A)</strong></div>
<div class="assinatura-box"><div class="linha-assinatura"></div><strong>ASSINATURA DO COORDENADOR(A) PEDAGÓGICO</strong></div>
</div>
</div>
{{- if .AutoPrint}}
<script>
window.onload = function () {
  setTimeout(function () {
    window.onafterprint = function () { window.close(); };
    window.print();
  }, 500);
};
</script>
{{- end}}
</body>
</html>
`))

// RenderSheetHTML produces the print-ready page. With autoPrint the page opens the print dialog on load
// and closes itself afterwards.
func RenderSheetHTML(sheet models.AttendanceSheet, autoPrint bool) ([]byte, error) {
	view := sheetView{AttendanceSheet: sheet, AutoPrint: autoPrint}
	for _, option := range Modalities {
		view.Options = append(view.Options, modalityOption{Label: option, Checked: option == sheet.Modality})
	}
	buf := &bytes.Buffer{}
	if err := sheetTemplate.Execute(buf, view); err != nil {
		return nil, fmt.Errorf("render sheet html: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter writes datasets as spreadsheet-friendly CSV.
type CSVExporter struct {
	Comma rune
	BOM   bool
}

// NewCSVExporter returns an exporter using semicolons and a UTF-8 BOM, the format
// pt-BR spreadsheet software opens without an import wizard.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{Comma: ';', BOM: true}
}

// Render encodes the dataset. The title and subtitle are not part of the CSV body.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if e.BOM {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	if e.Comma != 0 {
		writer.Comma = e.Comma
	}
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(data.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

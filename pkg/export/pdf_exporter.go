package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Table is tabular content for the PDF exporter.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Widths are relative column weights; equal widths when empty.
	Widths []float64
}

// PDFExporter renders a Table on landscape A4 pages, repeating the header
// row on every page.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	pageWidth   = 277.0
	headerLineH = 8.0
	rowLineH    = 7.0
)

func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	if len(table.Widths) != 0 && len(table.Widths) != len(table.Headers) {
		return nil, fmt.Errorf("pdf has %d widths for %d headers", len(table.Widths), len(table.Headers))
	}
	widths := columnWidths(table)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetHeaderFunc(func() {
		if table.Title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, strings.ToUpper(table.Title), "", 1, "C", false, 0, "")
			pdf.Ln(3)
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range table.Headers {
			pdf.CellFormat(widths[i], headerLineH, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, row := range table.Rows {
		for i := range table.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(widths[i], rowLineH, tr(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(table Table) []float64 {
	widths := make([]float64, len(table.Headers))
	if len(table.Widths) == 0 {
		for i := range widths {
			widths[i] = pageWidth / float64(len(widths))
		}
		return widths
	}
	total := 0.0
	for _, w := range table.Widths {
		total += w
	}
	for i, w := range table.Widths {
		widths[i] = pageWidth * w / total
	}
	return widths
}

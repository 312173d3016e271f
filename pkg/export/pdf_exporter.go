package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders weekly grids into a printable timetable page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a landscape PDF page with the grid as a bordered table.
func (e *PDFExporter) Render(grid WeeklyGrid) ([]byte, error) {
	if len(grid.Days) == 0 || len(grid.Periods) == 0 {
		return nil, fmt.Errorf("pdf grid requires days and periods")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(grid.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	periodColWidth := 20.0
	dayColWidth := (277.0 - periodColWidth) / float64(len(grid.Days))

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(periodColWidth, 8, "PERIOD", "1", 0, "C", false, 0, "")
	for _, day := range grid.Days {
		pdf.CellFormat(dayColWidth, 8, day, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, period := range grid.Periods {
		pdf.CellFormat(periodColWidth, 7, strconv.Itoa(period), "1", 0, "C", false, 0, "")
		for _, day := range grid.Days {
			pdf.CellFormat(dayColWidth, 7, grid.Cell(day, period), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

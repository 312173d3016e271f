package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSVExporter renders weekly grids into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV with one row per period and one column per day.
func (e *CSVExporter) Render(grid WeeklyGrid) ([]byte, error) {
	if len(grid.Days) == 0 || len(grid.Periods) == 0 {
		return nil, fmt.Errorf("csv grid requires days and periods")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := append([]string{"period"}, grid.Days...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, period := range grid.Periods {
		record := make([]string, 0, len(grid.Days)+1)
		record = append(record, strconv.Itoa(period))
		for _, day := range grid.Days {
			record = append(record, grid.Cell(day, period))
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

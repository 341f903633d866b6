package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Widths optionally weights PDF columns in header order.
	Widths []float64
	// GroupBy names the column whose value changes start a new visual group.
	GroupBy string
}

// Validate checks that headers are unique and non-blank, that every row only
// uses declared columns, and that Widths, when set, lines up with Headers.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	declared := make(map[string]bool, len(d.Headers))
	for _, header := range d.Headers {
		if header == "" {
			return fmt.Errorf("dataset header must not be blank")
		}
		if declared[header] {
			return fmt.Errorf("duplicate dataset header %q", header)
		}
		declared[header] = true
	}
	if d.GroupBy != "" && !declared[d.GroupBy] {
		return fmt.Errorf("group column %q is not a header", d.GroupBy)
	}
	for idx, row := range d.Rows {
		for column := range row {
			if !declared[column] {
				return fmt.Errorf("row %d: unknown column %q", idx, column)
			}
		}
	}
	if len(d.Widths) == 0 {
		return nil
	}
	if len(d.Widths) != len(d.Headers) {
		return fmt.Errorf("widths: got %d, want %d", len(d.Widths), len(d.Headers))
	}
	for i, w := range d.Widths {
		if w <= 0 {
			return fmt.Errorf("width for %q must be positive", d.Headers[i])
		}
	}
	return nil
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header line then one record per row in header order.
// Missing cells render empty.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			record[i] = row[header]
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

package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"aqicli/internal/files"
	"aqicli/pkg/contracts/domain"
)

// SheetName is the worksheet the enriched registry is written to
const SheetName = "Sheet1"

// RegistryExporter writes an enriched registry as a workbook or CSV file
type RegistryExporter struct {
	files *files.Manager
	csv   *CSVWriter
}

// NewRegistryExporter creates a registry exporter
func NewRegistryExporter(fm *files.Manager) *RegistryExporter {
	return &RegistryExporter{files: fm, csv: NewCSVWriter(fm)}
}

// Export writes the registry to filePath. The format follows the extension:
// .csv writes CSV, anything else an .xlsx workbook.
func (e *RegistryExporter) Export(filePath string, reg *domain.EnrichedRegistry) error {
	slog.Info("Exporting enriched registry",
		slog.String("file_path", filePath),
		slog.Int("stations", len(reg.Stations)),
		slog.Int("months", len(reg.Months)))

	if strings.EqualFold(filepath.Ext(filePath), ".csv") {
		return e.csv.WriteCSV(filePath, WriteOptions{
			Headers: reg.Header(),
			Records: Records(reg),
		})
	}
	return e.files.WriteAtomic(filePath, func(w io.Writer) error {
		return WriteWorkbook(w, reg)
	})
}

// Records renders every station as its raw registry cells followed by its
// monthly averages, missing months as empty strings
func Records(reg *domain.EnrichedRegistry) [][]string {
	records := make([][]string, len(reg.Stations))
	for i, station := range reg.Stations {
		record := make([]string, 0, len(reg.Columns)+len(reg.Months))
		record = append(record, padRow(station.Row, len(reg.Columns))...)
		for _, v := range reg.Cells[i] {
			record = append(record, formatAverage(v))
		}
		records[i] = record
	}
	return records
}

// WriteWorkbook streams the registry into a single-sheet workbook. Numeric
// registry cells are written as numbers and missing months are left blank.
func WriteWorkbook(w io.Writer, reg *domain.EnrichedRegistry) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := reg.Header()
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, station := range reg.Stations {
		row := make([]interface{}, 0, len(header))
		for _, raw := range padRow(station.Row, len(reg.Columns)) {
			if v, ok := numericCell(raw); ok {
				row = append(row, v)
			} else {
				row = append(row, raw)
			}
		}
		for _, v := range reg.Cells[i] {
			if v.Valid {
				row = append(row, v.Value)
			} else {
				row = append(row, nil)
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write station %q: %w", station.Name, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	return f.Write(w)
}

func padRow(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	padded := make([]string, n)
	copy(padded, row)
	return padded
}

package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"aqicli/internal/files"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	files *files.Manager
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(fm *files.Manager) *CSVWriter {
	return &CSVWriter{files: fm}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV replaces the file at filePath with the given headers and records
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	return w.files.WriteAtomic(filePath, func(out io.Writer) error {
		return writeRows(out, options)
	})
}

// WriteSimpleCSV writes a CSV file with headers, records and a BOM
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

func writeRows(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

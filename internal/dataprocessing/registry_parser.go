package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	apperrors "aqicli/internal/errors"
	"aqicli/pkg/contracts/domain"
)

// ParseRegistry reads the station registry from an .xlsx workbook (first
// sheet) or a .csv file. Any failure here is structural and aborts the run.
func ParseRegistry(filePath string) (*domain.Registry, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		rows, err = readCSVRows(filePath)
	default:
		rows, err = readWorkbookRows(filePath)
	}
	if err != nil {
		return nil, apperrors.NewStructuralError("registry unreadable", err).
			WithContext("path", filePath)
	}
	return BuildRegistry(rows)
}

// BuildRegistry converts raw rows (header first) into a Registry
func BuildRegistry(rows [][]string) (*domain.Registry, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewStructuralError("registry is empty", nil)
	}

	header := make([]string, len(rows[0]))
	columnMap := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := columnMap[header[i]]; !dup {
			columnMap[header[i]] = i
		}
	}

	for _, col := range domain.RequiredColumns {
		if _, ok := columnMap[col]; !ok {
			return nil, apperrors.NewStructuralError(
				fmt.Sprintf("registry is missing required column %q", col), nil)
		}
	}

	getString := func(row []string, col string) string {
		if idx, ok := columnMap[col]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	getFloat := func(row []string, col string) float64 {
		v, _ := strconv.ParseFloat(getString(row, col), 64)
		return v
	}

	validate := validator.New()
	reg := &domain.Registry{Columns: header}
	seen := make(map[string]bool)

	for i, raw := range rows[1:] {
		if isBlankRow(raw) {
			continue
		}

		row := make([]string, len(header))
		copy(row, raw)

		station := domain.Station{
			Name:       getString(row, domain.ColumnName),
			FileName:   getString(row, domain.ColumnFileName),
			Lat:        getFloat(row, domain.ColumnLat),
			Long:       getFloat(row, domain.ColumnLong),
			Address:    getString(row, domain.ColumnAddress),
			CurrentAQI: getString(row, domain.ColumnCurrentAQI),
			Row:        row,
		}

		// Invalid rows are kept; a station without a usable file simply
		// contributes no data
		if err := validate.Struct(station); err != nil {
			slog.Warn("Registry row failed validation",
				slog.Int("row_number", i+2),
				slog.String("station", station.Name),
				slog.String("error", err.Error()))
		}
		if seen[station.Name] {
			slog.Warn("Duplicate station name in registry",
				slog.Int("row_number", i+2),
				slog.String("station", station.Name))
		}
		seen[station.Name] = true

		reg.Stations = append(reg.Stations, station)
	}

	slog.Info("Registry loaded",
		slog.Int("stations", len(reg.Stations)),
		slog.Int("columns", len(header)))

	return reg, nil
}

func readWorkbookRows(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return rows, nil
}

func readCSVRows(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

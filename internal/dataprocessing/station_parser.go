package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	apperrors "aqicli/internal/errors"
	"aqicli/pkg/contracts/domain"
)

// StationFileOptions controls how a station time-series file is read
type StationFileOptions struct {
	DateColumn  string
	ValueColumn string
	DateLayouts []string
	// LenientDates drops rows with unparseable dates instead of failing
	LenientDates bool
}

// StationSeries is the parsed content of one station file
type StationSeries struct {
	Readings []domain.Reading
	Stats    ReadingStats
}

// ParseStationFile reads a station CSV. Header names are trimmed and matched
// case-insensitively.
func ParseStationFile(filePath string, opts StationFileOptions) (*StationSeries, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseStationSeries(file, opts)
}

// ParseStationSeries reads a station series from r.
//
// Values that are not finite non-negative numbers become missing readings.
// Blank dates are skipped. Any other unparseable date fails the whole series
// unless opts.LenientDates is set, in which case only that row is dropped.
func ParseStationSeries(r io.Reader, opts StationFileOptions) (*StationSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError("station file is empty", nil)
		}
		return nil, apperrors.NewParsingError("failed to read header", err)
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(name, opts.DateColumn):
			dateIdx = i
		case strings.EqualFold(name, opts.ValueColumn):
			valueIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("missing column %q", opts.DateColumn), nil)
	}
	if valueIdx < 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("missing column %q", opts.ValueColumn), nil)
	}

	series := &StationSeries{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewParsingError("malformed csv", err).WithContext("line", line)
		}
		series.Stats.Total++

		rawDate := cell(record, dateIdx)
		if rawDate == "" {
			series.Stats.BlankDate++
			continue
		}
		date, err := parseDate(rawDate, opts.DateLayouts)
		if err != nil {
			if !opts.LenientDates {
				return nil, apperrors.NewParsingError(fmt.Sprintf("unparseable date %q", rawDate), err).
					WithContext("line", line)
			}
			series.Stats.InvalidDate++
			continue
		}

		series.Readings = append(series.Readings, domain.Reading{
			Date:  date,
			Value: domain.ParseReadingValue(cell(record, valueIdx)),
		})
	}

	return series, nil
}

func cell(record []string, idx int) string {
	if idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func parseDate(raw string, layouts []string) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no date layouts configured")
	}
	return time.Time{}, lastErr
}

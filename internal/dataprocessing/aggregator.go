package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "aqicli/internal/errors"
	"aqicli/internal/files"
	"aqicli/pkg/contracts/domain"
)

// Aggregate reduces readings to the mean of valid values per month. Only
// months in the given sequence can appear in the result, and only when at
// least one valid reading fell in them.
func Aggregate(readings []domain.Reading, months []domain.MonthKey) domain.MonthlyAverage {
	avg, _ := aggregate(readings, domain.NewMonthSet(months))
	return avg
}

func aggregate(readings []domain.Reading, window domain.MonthSet) (domain.MonthlyAverage, ReadingStats) {
	type bucket struct {
		sum   float64
		count int
	}
	var stats ReadingStats
	buckets := make(map[domain.MonthKey]*bucket)

	for _, r := range readings {
		if !r.Value.Valid {
			stats.InvalidValue++
			continue
		}
		key := domain.MonthOf(r.Date)
		if !window.Contains(key) {
			stats.OutOfWindow++
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += r.Value.Value
		b.count++
		stats.Accepted++
	}

	avg := make(domain.MonthlyAverage, len(buckets))
	for key, b := range buckets {
		avg[key] = b.sum / float64(b.count)
	}
	return avg, stats
}

// ProgressFunc is called before each station is processed
type ProgressFunc func(current, total int, station domain.Station)

// Aggregator computes monthly averages for every station of a registry
type Aggregator struct {
	files  *files.Manager
	opts   StationFileOptions
	months []domain.MonthKey
	window domain.MonthSet
	logger *slog.Logger
}

// NewAggregator creates an aggregator over the given month sequence
func NewAggregator(fm *files.Manager, opts StationFileOptions, months []domain.MonthKey, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		files:  fm,
		opts:   opts,
		months: months,
		window: domain.NewMonthSet(months),
		logger: logger,
	}
}

// Months returns the target month sequence
func (a *Aggregator) Months() []domain.MonthKey {
	return a.months
}

// AggregateStation processes one station. Errors are returned inside the
// result, never as a panic or a batch failure.
func (a *Aggregator) AggregateStation(ctx context.Context, index int, station domain.Station) (result StationResult) {
	result = StationResult{Index: index, Station: station}

	defer func() {
		if rec := recover(); rec != nil {
			result.Averages = nil
			result.Err = fmt.Errorf("station %q: panic: %v", station.Name, rec)
		}
	}()

	if station.FileName == "" {
		result.Err = apperrors.NewNotFoundError("source file id").WithContext("station", station.Name)
		return result
	}

	path, err := a.files.StationFile(station.FileName)
	if err != nil {
		result.Err = err
		return result
	}

	series, err := ParseStationFile(path, a.opts)
	if err != nil {
		result.Err = fmt.Errorf("station %q (%s): %w", station.Name, path, err)
		return result
	}

	avg, stats := aggregate(series.Readings, a.window)
	stats.Total = series.Stats.Total
	stats.InvalidDate = series.Stats.InvalidDate
	stats.BlankDate = series.Stats.BlankDate

	result.Averages = avg
	result.Stats = stats
	return result
}

// AggregateAll processes stations one at a time in registry order and
// collects one result per station
func (a *Aggregator) AggregateAll(ctx context.Context, reg *domain.Registry, progress ProgressFunc) ([]StationResult, error) {
	results := make([]StationResult, 0, len(reg.Stations))
	total := len(reg.Stations)

	for i, station := range reg.Stations {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if progress != nil {
			progress(i+1, total, station)
		}

		r := a.AggregateStation(ctx, i, station)
		if r.OK() {
			a.logger.DebugContext(ctx, "Station aggregated",
				slog.String("station", station.Name),
				slog.Int("months", len(r.Averages)),
				slog.Int("accepted", r.Stats.Accepted),
				slog.Int("invalid_values", r.Stats.InvalidValue))
		} else if IsMissingFile(r.Err) {
			a.logger.WarnContext(ctx, "File not found",
				slog.String("station", station.Name),
				slog.String("file_name", station.FileName))
		} else {
			a.logger.ErrorContext(ctx, "Error processing station",
				slog.String("station", station.Name),
				slog.String("file_name", station.FileName),
				slog.String("error", r.Err.Error()))
		}
		results = append(results, r)
	}

	return results, nil
}

// IsMissingFile reports whether a station failed because its file is absent
func IsMissingFile(err error) bool {
	return apperrors.IsType(err, apperrors.ErrTypeNotFound)
}

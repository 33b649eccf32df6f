package dataprocessing

import (
	"aqicli/pkg/contracts/domain"
)

// ReadingStats counts how a station's rows were used
type ReadingStats struct {
	Total        int
	Accepted     int
	InvalidValue int
	InvalidDate  int
	BlankDate    int
	OutOfWindow  int
}

// StationResult is the outcome of aggregating one station. A failed station
// has Err set and no averages.
type StationResult struct {
	Index    int
	Station  domain.Station
	Averages domain.MonthlyAverage
	Stats    ReadingStats
	Err      error
}

// OK reports whether the station was aggregated
func (r StationResult) OK() bool {
	return r.Err == nil
}

// BatchSummary aggregates station outcomes after a batch
type BatchSummary struct {
	Stations     int
	Succeeded    int
	Failed       int
	MissingFiles int
	Readings     ReadingStats
}

// Summarize folds per-station results into a BatchSummary
func Summarize(results []StationResult) BatchSummary {
	s := BatchSummary{Stations: len(results)}
	for _, r := range results {
		switch {
		case r.OK():
			s.Succeeded++
		case IsMissingFile(r.Err):
			s.MissingFiles++
		default:
			s.Failed++
		}
		s.Readings.Total += r.Stats.Total
		s.Readings.Accepted += r.Stats.Accepted
		s.Readings.InvalidValue += r.Stats.InvalidValue
		s.Readings.InvalidDate += r.Stats.InvalidDate
		s.Readings.BlankDate += r.Stats.BlankDate
		s.Readings.OutOfWindow += r.Stats.OutOfWindow
	}
	return s
}

package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqicli/internal/config"
	"aqicli/internal/files"
	"aqicli/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	jan2014 = domain.MonthKey{Year: 2014, Month: time.January}
	feb2014 = domain.MonthKey{Year: 2014, Month: time.February}
	mar2014 = domain.MonthKey{Year: 2014, Month: time.March}
)

func defaultOpts() StationFileOptions {
	return StationFileOptions{
		DateColumn:  "date",
		ValueColumn: "pm25",
		DateLayouts: []string{"2006/1/2", "2006-1-2"},
	}
}

func TestAggregate(t *testing.T) {
	months := []domain.MonthKey{jan2014, feb2014}

	tests := []struct {
		name     string
		readings []domain.Reading
		want     domain.MonthlyAverage
	}{
		{
			name: "mean ignores invalid values",
			readings: []domain.Reading{
				{Date: day(2014, 1, 1), Value: domain.Some(10)},
				{Date: day(2014, 1, 2), Value: domain.Some(20)},
				{Date: day(2014, 1, 3), Value: domain.ParseReadingValue("bad")},
				{Date: day(2014, 1, 4), Value: domain.Some(30)},
			},
			want: domain.MonthlyAverage{jan2014: 20},
		},
		{
			name: "months outside the window are dropped",
			readings: []domain.Reading{
				{Date: day(2013, 12, 31), Value: domain.Some(99)},
				{Date: day(2014, 2, 10), Value: domain.Some(4)},
				{Date: day(2014, 3, 1), Value: domain.Some(7)},
			},
			want: domain.MonthlyAverage{feb2014: 4},
		},
		{
			name: "month with only invalid values is absent",
			readings: []domain.Reading{
				{Date: day(2014, 1, 5), Value: domain.Missing()},
			},
			want: domain.MonthlyAverage{},
		},
		{
			name:     "no readings",
			readings: nil,
			want:     domain.MonthlyAverage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.readings, months)
			assert.Equal(t, tt.want, got)
			for k := range got {
				assert.Contains(t, months, k)
			}
		})
	}
}

func writeStation(t *testing.T, dir, id, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".csv"), []byte(content), 0644))
}

func newTestAggregator(t *testing.T, opts StationFileOptions, months []domain.MonthKey) (*Aggregator, string) {
	t.Helper()
	dir := t.TempDir()
	fm := files.NewManager(&config.Paths{BaseDir: dir, StationDir: dir})
	return NewAggregator(fm, opts, months, nil), dir
}

func TestAggregateAll_EndToEnd(t *testing.T) {
	months := []domain.MonthKey{jan2014, feb2014, mar2014}
	agg, dir := newTestAggregator(t, defaultOpts(), months)

	writeStation(t, dir, "a", "date, pm25\n2014/1/1,10\n2014/1/2,20\n2014/2/1,5\n")
	reg := &domain.Registry{
		Columns: []string{"Name", "file_name"},
		Stations: []domain.Station{
			{Name: "A", FileName: "a", Row: []string{"A", "a"}},
			{Name: "B", FileName: "b", Row: []string{"B", "b"}},
		},
	}

	var seen []string
	results, err := agg.AggregateAll(context.Background(), reg, func(current, total int, s domain.Station) {
		assert.Equal(t, 2, total)
		seen = append(seen, s.Name)
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"A", "B"}, seen)

	assert.True(t, results[0].OK())
	assert.Equal(t, domain.MonthlyAverage{jan2014: 15, feb2014: 5}, results[0].Averages)
	assert.False(t, results[1].OK())

	enriched := Join(reg, months, results)
	assert.Equal(t, domain.Some(15), enriched.Value(0, jan2014))
	assert.Equal(t, domain.Some(5), enriched.Value(0, feb2014))
	assert.False(t, enriched.Value(0, mar2014).Valid)
	for _, m := range months {
		assert.False(t, enriched.Value(1, m).Valid, "station B %s", m)
	}
	assert.InDelta(t, 2.0/6.0*100, enriched.Completeness(), 1e-9)

	summary := Summarize(results)
	assert.Equal(t, 2, summary.Stations)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.MissingFiles)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 3, summary.Readings.Accepted)
}

func TestAggregateStation_DatePolicy(t *testing.T) {
	months := []domain.MonthKey{jan2014}
	content := "date, pm25\n2014/1/1,10\nnot-a-date,50\n,70\n2014-1-3,30\n"

	t.Run("strict fails the station", func(t *testing.T) {
		agg, dir := newTestAggregator(t, defaultOpts(), months)
		writeStation(t, dir, "s", content)

		r := agg.AggregateStation(context.Background(), 0, domain.Station{Name: "S", FileName: "s"})
		require.Error(t, r.Err)
		assert.Nil(t, r.Averages)
	})

	t.Run("lenient drops the row", func(t *testing.T) {
		opts := defaultOpts()
		opts.LenientDates = true
		agg, dir := newTestAggregator(t, opts, months)
		writeStation(t, dir, "s", content)

		r := agg.AggregateStation(context.Background(), 0, domain.Station{Name: "S", FileName: "s"})
		require.NoError(t, r.Err)
		assert.Equal(t, domain.MonthlyAverage{jan2014: 20}, r.Averages)
		assert.Equal(t, 4, r.Stats.Total)
		assert.Equal(t, 1, r.Stats.InvalidDate)
		assert.Equal(t, 1, r.Stats.BlankDate)
		assert.Equal(t, 2, r.Stats.Accepted)
	})
}

func TestAggregateStation_EmptyFileName(t *testing.T) {
	agg, _ := newTestAggregator(t, defaultOpts(), []domain.MonthKey{jan2014})
	r := agg.AggregateStation(context.Background(), 3, domain.Station{Name: "X"})
	require.Error(t, r.Err)
	assert.True(t, IsMissingFile(r.Err))
	assert.Equal(t, 3, r.Index)
}

func TestJoin_IgnoresOutOfRangeResults(t *testing.T) {
	reg := &domain.Registry{Stations: []domain.Station{{Name: "A"}}}
	months := []domain.MonthKey{jan2014}
	results := []StationResult{
		{Index: 0, Averages: domain.MonthlyAverage{jan2014: 1, feb2014: 2}},
		{Index: 5, Averages: domain.MonthlyAverage{jan2014: 9}},
	}

	enriched := Join(reg, months, results)
	require.Len(t, enriched.Cells, 1)
	assert.Equal(t, []domain.OptionalFloat{domain.Some(1)}, enriched.Cells[0])
}

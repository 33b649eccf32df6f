package store

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqicli/pkg/contracts/domain"
)

func TestMonthlyRows(t *testing.T) {
	reg := &domain.Registry{
		Stations: []domain.Station{
			{Name: "A", FileName: "a"},
			{Name: "B", FileName: "b"},
		},
	}
	months := []domain.MonthKey{
		{Year: 2014, Month: time.January},
		{Year: 2014, Month: time.February},
	}
	enriched := domain.NewEnrichedRegistry(reg, months)
	enriched.Cells[0][1] = domain.Some(7.5)

	rows := MonthlyRows(enriched)
	require.Len(t, rows, 4)

	assert.Equal(t, MonthlyRow{
		StationName: "A",
		FileName:    "a",
		Month:       "Feb2014",
		MonthStart:  time.Date(2014, time.February, 1, 0, 0, 0, 0, time.UTC),
		Average:     sql.NullFloat64{Float64: 7.5, Valid: true},
	}, rows[1])

	for _, i := range []int{0, 2, 3} {
		assert.False(t, rows[i].Average.Valid, "row %d should be NULL", i)
	}
	assert.Equal(t, "B", rows[3].StationName)
}

func TestMonthlyRows_KeyedByFileName(t *testing.T) {
	reg := &domain.Registry{
		Stations: []domain.Station{
			{Name: "Dongcheng", FileName: "beijing-dongcheng"},
			{Name: "Dongcheng", FileName: "tianjin-dongcheng"},
			{Name: "Dongcheng copy", FileName: "beijing-dongcheng"},
			{Name: "Unlinked"},
		},
	}
	months := []domain.MonthKey{{Year: 2014, Month: time.January}}
	enriched := domain.NewEnrichedRegistry(reg, months)
	enriched.Cells[0][0] = domain.Some(10)
	enriched.Cells[1][0] = domain.Some(20)
	enriched.Cells[2][0] = domain.Some(10)

	rows := MonthlyRows(enriched)
	require.Len(t, rows, 2)

	// Same station name, different source files: both kept
	assert.Equal(t, "beijing-dongcheng", rows[0].FileName)
	assert.Equal(t, 10.0, rows[0].Average.Float64)
	assert.Equal(t, "tianjin-dongcheng", rows[1].FileName)
	assert.Equal(t, 20.0, rows[1].Average.Float64)
}

func TestQueriesUseFileNameKey(t *testing.T) {
	schema := schemaQuery("station_monthly_averages")
	assert.Contains(t, schema, `"station_monthly_averages"`)
	assert.Contains(t, schema, "PRIMARY KEY (file_name, month)")

	upsert := upsertQuery("station_monthly_averages")
	assert.Contains(t, upsert, "ON CONFLICT (file_name, month)")
	for _, col := range []string{"file_name", "station_name", "month", "month_start", "average"} {
		assert.True(t, strings.Contains(upsert, ":"+col), "missing bind parameter %s", col)
	}
}

package domain

import (
	"strings"
	"time"
)

// Registry column headers
const (
	ColumnName       = "Name"
	ColumnFileName   = "file_name"
	ColumnLat        = "Lat"
	ColumnLong       = "Long"
	ColumnAddress    = "address"
	ColumnCurrentAQI = "Current AQI"
)

// RequiredColumns must be present in every registry header
var RequiredColumns = []string{ColumnName, ColumnFileName}

// Station represents one monitored location from the registry
type Station struct {
	Name       string  `json:"name" validate:"required"`
	FileName   string  `json:"file_name" validate:"required"`
	Lat        float64 `json:"lat" validate:"latitude"`
	Long       float64 `json:"long" validate:"longitude"`
	Address    string  `json:"address,omitempty"`
	CurrentAQI string  `json:"current_aqi,omitempty"`

	// Row holds the raw registry cells aligned with Registry.Columns
	Row []string `json:"-"`
}

// Registry is the ordered station list with the original header
type Registry struct {
	Columns  []string
	Stations []Station
}

// Reading is one row of a station's raw daily series
type Reading struct {
	Date  time.Time
	Value OptionalFloat
}

// MonthlyAverage maps a month to the mean of its valid readings. A month is
// present only when at least one valid reading fell in it.
type MonthlyAverage map[MonthKey]float64

func trimCell(s string) string {
	return strings.TrimSpace(s)
}

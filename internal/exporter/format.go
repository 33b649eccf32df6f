package exporter

import (
	"strconv"

	"aqicli/pkg/contracts/domain"
)

// formatAverage formats a monthly cell for CSV output; missing stays empty
func formatAverage(v domain.OptionalFloat) string {
	return v.String()
}

// numericCell returns the float value of a registry cell when it round-trips
// exactly, so identifiers such as "0012" stay text
func numericCell(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, strconv.FormatFloat(v, 'f', -1, 64) == raw
}

package dataprocessing

import (
	"aqicli/pkg/contracts/domain"
)

// Join writes each station's monthly averages into a new enriched registry.
// Every month cell starts missing; failed stations and months without data
// stay missing. Station order follows the registry.
func Join(reg *domain.Registry, months []domain.MonthKey, results []StationResult) *domain.EnrichedRegistry {
	enriched := domain.NewEnrichedRegistry(reg, months)
	index := domain.NewMonthSet(months)

	for _, r := range results {
		if r.Index < 0 || r.Index >= len(enriched.Cells) {
			continue
		}
		row := enriched.Cells[r.Index]
		for key, value := range r.Averages {
			if j, ok := index[key]; ok {
				row[j] = domain.Some(value)
			}
		}
	}

	return enriched
}
